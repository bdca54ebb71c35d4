//go:build linux

package adaptor

import (
	"encoding/binary"
	"errors"
	"net"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/tyrant-go/gotyrant/internal/wire"
)

// EpollAdaptor is an epoll-driven concrete Adaptor over a TCP connection's
// raw file descriptor. It is the Go analogue of the source's
// asyncore-based adaptor: a single loop goroutine owns the socket fd, the
// BufferedReader, and the pending write queue, so the engine it drives
// never needs locking of its own. Schedule is how a caller on any other
// goroutine marshals work onto the loop goroutine; Read and Write are
// only ever called by the engine from inside a Schedule'd closure, so
// they touch reader/writeQueue directly rather than re-scheduling
// themselves — IsWaiting must observe the new pending state the instant
// Read/Write return, not on some later loop iteration.
//
// Grounded on internal/uring/interface.go's Ring abstraction (submit /
// wait for completion / report result) reimagined over epoll readiness
// instead of io_uring SQEs for ublk's URING_CMD passthrough.
type EpollAdaptor struct {
	fd     int
	epfd   int
	wakeFd int

	reader BufferedReader

	writeQueue   []pendingWrite
	wantWritable bool

	mu        sync.Mutex
	scheduled []func()

	closeCh chan struct{}
	closed  bool
}

type pendingWrite struct {
	data []byte
	done func(error)
}

// NewEpollAdaptor takes ownership of conn's file descriptor, puts it in
// non-blocking mode, and starts the adaptor's loop goroutine.
func NewEpollAdaptor(conn *net.TCPConn) (*EpollAdaptor, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var fd int
	var ctrlErr error
	if err := raw.Control(func(f uintptr) {
		fd = int(f)
		ctrlErr = unix.SetNonblock(fd, true)
		if ctrlErr == nil {
			ctrlErr = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		}
	}); err != nil {
		return nil, err
	}
	if ctrlErr != nil {
		return nil, ctrlErr
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}

	a := &EpollAdaptor{fd: fd, epfd: epfd, wakeFd: wakeFd, closeCh: make(chan struct{})}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}); err != nil {
		a.closeFds()
		return nil, err
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}); err != nil {
		a.closeFds()
		return nil, err
	}

	go a.loop()
	return a, nil
}

func (a *EpollAdaptor) closeFds() {
	unix.Close(a.wakeFd)
	unix.Close(a.epfd)
	unix.Close(a.fd)
}

// Close stops the loop goroutine and releases the epoll instance, wake
// eventfd, and socket.
func (a *EpollAdaptor) Close() error {
	select {
	case <-a.closeCh:
		return nil
	default:
		close(a.closeCh)
	}
	return nil
}

func (a *EpollAdaptor) loop() {
	defer a.closeFds()
	events := make([]unix.EpollEvent, 16)
	for {
		select {
		case <-a.closeCh:
			return
		default:
		}

		n, err := unix.EpollWait(a.epfd, events, 250)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			switch int(ev.Fd) {
			case a.wakeFd:
				a.drainWake()
				a.runScheduled()
			case a.fd:
				if ev.Events&unix.EPOLLIN != 0 {
					a.handleReadable()
				}
				if ev.Events&unix.EPOLLOUT != 0 {
					a.flushWrites()
				}
			}
		}
	}
}

func (a *EpollAdaptor) drainWake() {
	buf := make([]byte, 8)
	unix.Read(a.wakeFd, buf)
}

func (a *EpollAdaptor) runScheduled() {
	a.mu.Lock()
	fns := a.scheduled
	a.scheduled = nil
	a.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Schedule queues fn to run on the loop goroutine and wakes the loop if
// it is blocked in EpollWait.
func (a *EpollAdaptor) Schedule(fn func()) {
	a.mu.Lock()
	a.scheduled = append(a.scheduled, fn)
	a.mu.Unlock()

	one := make([]byte, 8)
	binary.LittleEndian.PutUint64(one, 1)
	unix.Write(a.wakeFd, one)
}

func (a *EpollAdaptor) handleReadable() {
	buf := make([]byte, 64*1024)
	for {
		n, err := unix.Read(a.fd, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			a.reader.Feed(chunk)
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			return
		}
		if n == 0 || n < len(buf) {
			return
		}
	}
}

// Read implements Adaptor.Read: the request is handed to the
// BufferedReader synchronously, so reader.Pending() (and thus IsWaiting)
// reflects it before Read returns.
func (a *EpollAdaptor) Read(n int, done func(buf []byte, err error)) {
	a.reader.Request(n, func(buf []byte) {
		done(buf, nil)
	})
}

// Write implements Adaptor.Write: the frame is concatenated, queued, and
// flushWrites is attempted immediately, all synchronously, so
// len(writeQueue) (and thus IsWaiting) reflects it before Write returns.
func (a *EpollAdaptor) Write(f wire.Frame, done func(err error)) {
	data := f.Bytes()
	a.writeQueue = append(a.writeQueue, pendingWrite{data: data, done: done})
	a.flushWrites()
}

func (a *EpollAdaptor) flushWrites() {
	for len(a.writeQueue) > 0 {
		w := a.writeQueue[0]
		n, err := unix.Write(a.fd, w.data)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				a.setWritableInterest(true)
				return
			}
			a.writeQueue = a.writeQueue[1:]
			w.done(err)
			continue
		}
		if n < len(w.data) {
			w.data = w.data[n:]
			a.writeQueue[0] = w
			a.setWritableInterest(true)
			return
		}
		a.writeQueue = a.writeQueue[1:]
		w.done(nil)
	}
	a.setWritableInterest(false)
}

func (a *EpollAdaptor) setWritableInterest(want bool) {
	if want == a.wantWritable {
		return
	}
	a.wantWritable = want
	events := uint32(unix.EPOLLIN)
	if want {
		events |= unix.EPOLLOUT
	}
	unix.EpollCtl(a.epfd, unix.EPOLL_CTL_MOD, a.fd, &unix.EpollEvent{Events: events, Fd: int32(a.fd)})
}

// IsWaiting reports whether a read or write is still in flight. Only
// meaningful when called from the loop goroutine, which is the only
// place the engine calls it from.
func (a *EpollAdaptor) IsWaiting() bool {
	return a.reader.Pending() || len(a.writeQueue) > 0
}

var _ Adaptor = (*EpollAdaptor)(nil)
