// Package engine implements the step-program engine that drives protocol
// operations over an adaptor.Adaptor without blocking the calling
// goroutine: a command FIFO, an active step queue, a result slot, and a
// drive loop that advances steps until the adaptor has something in
// flight. It is grounded on original_source/async/__init__.py's
// StreamProtocol (_do/_do_now/_advance/_advance_cmd/_complete) and on the
// teacher's internal/queue/runner.go completion-driven loop shape.
package engine

import (
	"github.com/tyrant-go/gotyrant/adaptor"
	"github.com/tyrant-go/gotyrant/internal/logging"
)

// command is one enqueued operation: its step program and the callback to
// invoke with the final result or error.
type command struct {
	steps    []Step
	callback func(Result, error)
}

// Engine serializes step programs against a single adaptor. Only one
// command is "active" (has steps being advanced) at a time; further
// commands queue in cmds and are started as each active command
// completes, giving callers request pipelining without needing their own
// queueing.
type Engine struct {
	adaptor adaptor.Adaptor
	log     *logging.Logger

	cmds   []command
	active []Step

	callActive bool
	callback   func(Result, error)

	result   Result
	readBuf  []byte
}

// New creates an engine driving steps through a.
func New(a adaptor.Adaptor) *Engine {
	return &Engine{adaptor: a, log: logging.Default()}
}

// Do enqueues a step program. If no command is currently active it starts
// immediately; otherwise it waits its turn in FIFO order.
func (e *Engine) Do(steps []Step, callback func(Result, error)) {
	e.cmds = append(e.cmds, command{steps: steps, callback: callback})
	if !e.callActive {
		e.advanceCmd()
	}
}

// DoNow splices steps onto the front of the currently active step queue
// and resumes driving immediately. It is used by higher-level helpers
// (reading a length-prefixed string, checking the success byte) that need
// to inject sub-steps without going through the command FIFO.
func (e *Engine) DoNow(steps ...Step) {
	e.active = append(steps, e.active...)
	e.work()
}

func (e *Engine) advanceCmd() {
	if len(e.cmds) == 0 {
		return
	}
	cmd := e.cmds[0]
	e.cmds = e.cmds[1:]
	e.active = append(e.active, cmd.steps...)
	e.callback = cmd.callback
	e.callActive = true
	e.work()
}

// work drives the active step queue until it's exhausted or the adaptor
// has a read or write in flight.
func (e *Engine) work() {
	for e.callActive && !e.adaptor.IsWaiting() {
		e.advanceOne()
	}
}

func (e *Engine) advanceOne() {
	if len(e.active) == 0 {
		e.complete(e.result, nil)
		return
	}
	step := e.active[0]
	e.active = e.active[1:]

	switch step.kind {
	case stepCall:
		step.run(e)
	case stepReadBytes:
		e.adaptor.Read(step.n, func(buf []byte, err error) {
			if err != nil {
				e.Fail(err)
				return
			}
			e.readBuf = buf
			e.work()
		})
	case stepWriteFrame:
		e.adaptor.Write(step.frame, func(err error) {
			if err != nil {
				e.Fail(err)
				return
			}
			e.work()
		})
	case stepFail:
		e.Fail(step.err)
	}
}

// complete finishes the active command, invoking its callback, then
// starts the next queued command if any.
func (e *Engine) complete(r Result, err error) {
	e.callActive = false
	e.active = nil
	cb := e.callback
	e.callback = nil
	if cb != nil {
		cb(r, err)
	}
	if len(e.cmds) > 0 {
		e.advanceCmd()
	}
}

// Fail aborts the active command with a typed error, in place of the
// source's self._fail()/self._complete(None) sentinel.
func (e *Engine) Fail(err error) {
	e.log.Warn("step program failed", "error", err)
	e.complete(Result{}, err)
}

// SetResult stores r in the result slot. Call steps use this to hand data
// forward to later steps in the same program.
func (e *Engine) SetResult(r Result) {
	e.result = r
}

// Result returns the current result-slot value.
func (e *Engine) Result() Result {
	return e.result
}

// ReadBuffer returns the bytes delivered by the most recently completed
// ReadBytes step.
func (e *Engine) ReadBuffer() []byte {
	return e.readBuf
}

// UseReadBufferAsResult stores the most recently read bytes into the
// result slot, matching the source's _use_read_buffer_as_result.
func (e *Engine) UseReadBufferAsResult() {
	e.SetResult(BytesResult(e.readBuf))
}

// ProcessReadBuffer runs fn over the current read buffer and stores its
// return value in the result slot, matching the source's
// _process_read_buffer. If fn reports an error the active command fails
// instead of completing.
func (e *Engine) ProcessReadBuffer(fn func(buf []byte) (Result, error)) {
	r, err := fn(e.readBuf)
	if err != nil {
		e.Fail(err)
		return
	}
	e.SetResult(r)
}
