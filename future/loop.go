// Package future implements the suspension-style alternate client
// described alongside the step-program engine: each operation is written
// as a linear routine that calls Loop.Read/Loop.Write directly instead of
// building an explicit []engine.Step program. Grounded on
// original_source/async/__init__.py's y()/GeneratorCallback/
// YStreamProtocol, whose Python generator yields are suspension points;
// here a routine's goroutine blocks on a channel at each suspension point
// instead of yielding control to a trampoline, which is the natural Go
// analogue of a coroutine per spec.md §9's "Coroutine control flow" note.
package future

import (
	"sync"

	"github.com/tyrant-go/gotyrant/adaptor"
	"github.com/tyrant-go/gotyrant/internal/wire"
)

// Loop drives one connection's suspension-style routines: it serializes
// whole routine bodies through a FIFO queue (only one routine's terminal
// value is ever in flight at a time) and independently serializes Read
// and Write requests through their own single-slot busy flag plus waiter
// queue, matching spec.md §4.5's contract.
type Loop struct {
	adp adaptor.Adaptor

	mu            sync.Mutex
	routineActive bool
	routineQueue  []func()

	readMu      sync.Mutex
	readBusy    bool
	readWaiters []func()

	writeMu      sync.Mutex
	writeBusy    bool
	writeWaiters []func()
}

// NewLoop wraps an Adaptor for suspension-style routines.
func NewLoop(a adaptor.Adaptor) *Loop {
	return &Loop{adp: a}
}

type readResult struct {
	buf []byte
	err error
}

// Read blocks the calling goroutine until n bytes are available (or the
// adaptor reports an error), serialized against any other outstanding
// Read on this Loop.
func (l *Loop) Read(n int) ([]byte, error) {
	out := make(chan readResult, 1)
	l.scheduleRead(func() {
		l.adp.Read(n, func(buf []byte, err error) {
			out <- readResult{buf, err}
			l.releaseRead()
		})
	})
	res := <-out
	return res.buf, res.err
}

// Write blocks the calling goroutine until f has been handed to the
// transport, serialized against any other outstanding Write on this Loop.
func (l *Loop) Write(f wire.Frame) error {
	out := make(chan error, 1)
	l.scheduleWrite(func() {
		l.adp.Write(f, func(err error) {
			out <- err
			l.releaseWrite()
		})
	})
	return <-out
}

func (l *Loop) scheduleRead(fn func()) {
	l.readMu.Lock()
	if l.readBusy {
		l.readWaiters = append(l.readWaiters, fn)
		l.readMu.Unlock()
		return
	}
	l.readBusy = true
	l.readMu.Unlock()
	fn()
}

func (l *Loop) releaseRead() {
	l.readMu.Lock()
	if len(l.readWaiters) == 0 {
		l.readBusy = false
		l.readMu.Unlock()
		return
	}
	next := l.readWaiters[0]
	l.readWaiters = l.readWaiters[1:]
	l.readMu.Unlock()
	next()
}

func (l *Loop) scheduleWrite(fn func()) {
	l.writeMu.Lock()
	if l.writeBusy {
		l.writeWaiters = append(l.writeWaiters, fn)
		l.writeMu.Unlock()
		return
	}
	l.writeBusy = true
	l.writeMu.Unlock()
	fn()
}

func (l *Loop) releaseWrite() {
	l.writeMu.Lock()
	if len(l.writeWaiters) == 0 {
		l.writeBusy = false
		l.writeMu.Unlock()
		return
	}
	next := l.writeWaiters[0]
	l.writeWaiters = l.writeWaiters[1:]
	l.writeMu.Unlock()
	next()
}

// Run enqueues body to execute in its own goroutine once any prior
// routine on l has delivered its terminal value, then invokes callback
// with body's result. Routines never run concurrently with each other on
// the same Loop; Read/Write calls from different routines still
// interleave correctly via their own busy-flag queues, so a routine that
// itself fires off concurrent sub-operations (not used by this package's
// own ops, but available to callers) remains safe.
func Run[T any](l *Loop, body func(l *Loop) (T, error), callback func(T, error)) {
	l.enqueueRoutine(func() {
		go func() {
			val, err := body(l)
			callback(val, err)
			l.finishRoutine()
		}()
	})
}

func (l *Loop) enqueueRoutine(start func()) {
	l.mu.Lock()
	if l.routineActive {
		l.routineQueue = append(l.routineQueue, start)
		l.mu.Unlock()
		return
	}
	l.routineActive = true
	l.mu.Unlock()
	start()
}

func (l *Loop) finishRoutine() {
	l.mu.Lock()
	if len(l.routineQueue) == 0 {
		l.routineActive = false
		l.mu.Unlock()
		return
	}
	next := l.routineQueue[0]
	l.routineQueue = l.routineQueue[1:]
	l.mu.Unlock()
	next()
}
