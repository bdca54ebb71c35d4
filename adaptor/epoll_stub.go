//go:build !linux

package adaptor

import (
	"errors"
	"net"

	"github.com/tyrant-go/gotyrant/internal/wire"
)

// EpollAdaptor is unavailable on non-Linux platforms; NewEpollAdaptor
// always fails. Use the MockAdaptor for tests on other platforms.
type EpollAdaptor struct{}

func NewEpollAdaptor(conn *net.TCPConn) (*EpollAdaptor, error) {
	return nil, errors.New("adaptor: epoll adaptor requires linux")
}

func (a *EpollAdaptor) Read(n int, done func(buf []byte, err error)) {}
func (a *EpollAdaptor) Write(f wire.Frame, done func(err error))     {}
func (a *EpollAdaptor) IsWaiting() bool                              { return false }
func (a *EpollAdaptor) Schedule(fn func())                           {}
func (a *EpollAdaptor) Close() error                                 { return nil }

var _ Adaptor = (*EpollAdaptor)(nil)
