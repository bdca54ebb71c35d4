//go:build linux && giouring

// Package adaptor's io_uring backend submits ordinary socket RECV/SEND
// SQEs instead of the URING_CMD passthrough the teacher used for ublk's
// control plane. The teacher's own //go:build giouring file
// (internal/uring/iouring.go) imported github.com/iceber/iouring-go, a
// module its go.mod never declared; this file actually uses the
// dependency the module declares, github.com/pawelgaczynski/giouring.
package adaptor

import (
	"fmt"
	"net"
	"sync"
	"unsafe"

	"github.com/pawelgaczynski/giouring"

	"github.com/tyrant-go/gotyrant/internal/wire"
)

// IOURingAdaptor drives reads and writes for one connection through a
// dedicated io_uring instance. Like EpollAdaptor it confines all ring and
// buffer state to its own loop goroutine. Schedule is how a caller on any
// other goroutine marshals work onto that goroutine; Read and Write are
// only ever called by the engine from inside a Schedule'd closure, so
// they touch reader/writeQueue directly instead of re-scheduling
// themselves — IsWaiting must observe the new pending state the instant
// Read/Write return, not on some later ring wakeup.
type IOURingAdaptor struct {
	fd   int32
	ring *giouring.Ring

	reader BufferedReader

	recvBuf  []byte
	recvBusy bool

	writeQueue   []pendingWrite
	writeBusy    bool

	mu        sync.Mutex
	scheduled []func()
	closeCh   chan struct{}
}

const ringEntries = 64
const recvBufferSize = 64 * 1024

// opTag distinguishes RECV from SEND completions by user_data, since both
// share one ring.
type opTag uint64

const (
	tagRecv opTag = 1
	tagSend opTag = 2
)

// NewIOURingAdaptor takes ownership of conn's fd and creates a ring sized
// for one outstanding recv and a handful of outstanding sends.
func NewIOURingAdaptor(conn *net.TCPConn) (*IOURingAdaptor, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}
	var fd int
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return nil, err
	}

	ring, err := giouring.CreateRing(ringEntries)
	if err != nil {
		return nil, fmt.Errorf("adaptor: create io_uring: %w", err)
	}

	a := &IOURingAdaptor{
		fd:      int32(fd),
		ring:    ring,
		recvBuf: make([]byte, recvBufferSize),
		closeCh: make(chan struct{}),
	}
	go a.loop()
	return a, nil
}

// Close tears down the loop and the ring.
func (a *IOURingAdaptor) Close() error {
	select {
	case <-a.closeCh:
		return nil
	default:
		close(a.closeCh)
	}
	return nil
}

func (a *IOURingAdaptor) loop() {
	defer a.ring.QueueExit()
	a.submitRecv()

	for {
		select {
		case <-a.closeCh:
			return
		default:
		}

		a.runScheduled()
		a.submitPendingSends()

		if _, err := a.ring.SubmitAndWait(1); err != nil {
			continue
		}

		for {
			cqe, err := a.ring.PeekCQE()
			if err != nil || cqe == nil {
				break
			}
			a.handleCompletion(opTag(cqe.UserData), cqe.Res)
			a.ring.CQESeen(cqe)
		}
	}
}

func (a *IOURingAdaptor) runScheduled() {
	a.mu.Lock()
	fns := a.scheduled
	a.scheduled = nil
	a.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Schedule queues fn for the loop goroutine. Because this adaptor has no
// epoll-style wake fd, fn runs on the next ring wakeup (a completion or
// the SubmitAndWait timeout); callers needing immediate wakeups should
// prefer EpollAdaptor.
func (a *IOURingAdaptor) Schedule(fn func()) {
	a.mu.Lock()
	a.scheduled = append(a.scheduled, fn)
	a.mu.Unlock()
}

func (a *IOURingAdaptor) submitRecv() {
	if a.recvBusy {
		return
	}
	sqe := a.ring.GetSQE()
	if sqe == nil {
		return
	}
	sqe.PrepareRecv(a.fd, uintptr(unsafe.Pointer(&a.recvBuf[0])), uint32(len(a.recvBuf)), 0)
	sqe.UserData = uint64(tagRecv)
	a.recvBusy = true
}

func (a *IOURingAdaptor) submitPendingSends() {
	if a.writeBusy || len(a.writeQueue) == 0 {
		return
	}
	w := a.writeQueue[0]
	sqe := a.ring.GetSQE()
	if sqe == nil {
		return
	}
	sqe.PrepareSend(a.fd, uintptr(unsafe.Pointer(&w.data[0])), uint32(len(w.data)), 0)
	sqe.UserData = uint64(tagSend)
	a.writeBusy = true
}

func (a *IOURingAdaptor) handleCompletion(tag opTag, res int32) {
	switch tag {
	case tagRecv:
		a.recvBusy = false
		if res > 0 {
			chunk := make([]byte, res)
			copy(chunk, a.recvBuf[:res])
			a.reader.Feed(chunk)
		}
		a.submitRecv()
	case tagSend:
		a.writeBusy = false
		if len(a.writeQueue) == 0 {
			return
		}
		w := a.writeQueue[0]
		if res < 0 {
			a.writeQueue = a.writeQueue[1:]
			w.done(fmt.Errorf("adaptor: io_uring send failed: res=%d", res))
			return
		}
		if int(res) < len(w.data) {
			w.data = w.data[res:]
			a.writeQueue[0] = w
			return
		}
		a.writeQueue = a.writeQueue[1:]
		w.done(nil)
	}
}

// Read implements Adaptor.Read: the request is handed to the
// BufferedReader synchronously, so reader.Pending() (and thus IsWaiting)
// reflects it before Read returns.
func (a *IOURingAdaptor) Read(n int, done func(buf []byte, err error)) {
	a.reader.Request(n, func(buf []byte) {
		done(buf, nil)
	})
}

// Write implements Adaptor.Write: the frame is queued synchronously, so
// len(writeQueue) (and thus IsWaiting) reflects it before Write returns.
// The loop's next iteration submits it via submitPendingSends.
func (a *IOURingAdaptor) Write(f wire.Frame, done func(err error)) {
	data := f.Bytes()
	a.writeQueue = append(a.writeQueue, pendingWrite{data: data, done: done})
}

// IsWaiting reports whether a recv or send is still in flight.
func (a *IOURingAdaptor) IsWaiting() bool {
	return a.reader.Pending() || len(a.writeQueue) > 0
}

var _ Adaptor = (*IOURingAdaptor)(nil)
