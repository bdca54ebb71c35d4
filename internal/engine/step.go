package engine

import "github.com/tyrant-go/gotyrant/internal/wire"

// stepKind tags the async primitives the adaptor must see. Everything
// else a step program needs (reading the result slot, setting it,
// interpreting the read buffer) is a plain Engine method called from
// inside a Call closure — Go closures already capture the engine, so
// there is no need for the source's tuple-vs-bare-callable dispatch to
// thread extra arguments through a step.
type stepKind int

const (
	stepCall stepKind = iota
	stepReadBytes
	stepWriteFrame
	stepFail
)

// Step is one entry in a program driven by Engine.Do / Engine.DoNow.
type Step struct {
	kind  stepKind
	n     int
	frame wire.Frame
	run   func(e *Engine)
	err   error
}

// Call runs an arbitrary closure synchronously against the engine. Most
// step programs are built almost entirely out of Call steps that read and
// write the engine's result slot and read buffer directly.
func Call(fn func(e *Engine)) Step {
	return Step{kind: stepCall, run: fn}
}

// ReadBytes queues a read of exactly n bytes from the adaptor. The engine
// stops advancing until the adaptor reports the read complete; the bytes
// are then available via Engine.ReadBuffer.
func ReadBytes(n int) Step {
	return Step{kind: stepReadBytes, n: n}
}

// WriteFrame queues a frame for transmission through the adaptor.
func WriteFrame(f wire.Frame) Step {
	return Step{kind: stepWriteFrame, frame: f}
}

// Fail aborts the active command immediately with err, without reading a
// result. This replaces the source's bare self._fail()/self._complete(None)
// sentinel (spec.md Open Question 1) with a typed error.
func Fail(err error) Step {
	return Step{kind: stepFail, err: err}
}
