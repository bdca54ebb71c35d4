//go:build !(linux && giouring)

package adaptor

import (
	"errors"
	"net"
)

// IOURingAdaptor is only available when built with GOOS=linux and the
// giouring build tag. NewIOURingAdaptor always fails otherwise; use
// NewEpollAdaptor or MockAdaptor instead.
type IOURingAdaptor struct{}

func NewIOURingAdaptor(conn *net.TCPConn) (*IOURingAdaptor, error) {
	return nil, errors.New("adaptor: io_uring adaptor requires linux and the giouring build tag")
}
