// Package adaptor defines the transport contract the step-program engine
// drives, and a read-buffering helper shared by every concrete
// implementation. Concrete adaptors (epoll, io_uring) live in this same
// package behind build tags; tests use MockAdaptor (mock.go), which the
// root package re-exports.
package adaptor

import "github.com/tyrant-go/gotyrant/internal/wire"

// Adaptor is the non-blocking transport capability the engine needs: queue
// a read of exactly n bytes, queue a write of a frame, report whether a
// queued operation is still in flight, and schedule a callback to run on
// the adaptor's own loop. Every method must return immediately; completion
// is reported through the supplied callback.
type Adaptor interface {
	// Read queues a read for exactly n bytes. done is invoked exactly once,
	// with either len(buf) == n and err == nil, or err != nil.
	Read(n int, done func(buf []byte, err error))

	// Write queues a frame for transmission. done is invoked exactly once
	// when the whole frame has been written or the write has failed.
	Write(f wire.Frame, done func(err error))

	// IsWaiting reports whether a previously queued Read or Write has not
	// yet completed. The engine's drive loop stops advancing while true.
	IsWaiting() bool

	// Schedule arranges for fn to run on the adaptor's own loop, decoupling
	// the caller (which may be running inside a completion callback) from
	// directly reentering engine state.
	Schedule(fn func())
}

// Lifecycle is implemented optionally by callers that want connection
// events. Neither the engine, the Client, nor the concrete adaptors in
// this package call these methods.
type Lifecycle interface {
	HandleConnect()
	HandleClose()
	HandleError(err error)
}
