package adaptor

import (
	"sync"

	"github.com/tyrant-go/gotyrant/internal/wire"
)

// MockAdaptor is an in-memory Adaptor for engine and client unit tests
// that need no real socket. Queued writes are captured verbatim; queued
// reads are satisfied either immediately (if enough bytes have already
// been fed via FeedRead) or once FeedRead supplies them. It tracks call
// counts the way the teacher's MockBackend does, for tests that assert on
// how many reads/writes an operation issued.
type MockAdaptor struct {
	mu sync.Mutex

	pendingReadN    int
	pendingReadDone func(buf []byte, err error)
	readBuf         []byte

	pendingWriteDone func(err error)

	writes     []wire.Frame
	readCalls  int
	writeCalls int
}

// NewMockAdaptor creates an empty MockAdaptor.
func NewMockAdaptor() *MockAdaptor {
	return &MockAdaptor{}
}

func (m *MockAdaptor) Read(n int, done func(buf []byte, err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++
	m.pendingReadN = n
	m.pendingReadDone = done
	m.tryDeliverLocked()
}

func (m *MockAdaptor) Write(f wire.Frame, done func(err error)) {
	m.mu.Lock()
	m.writeCalls++
	m.writes = append(m.writes, f)
	m.pendingWriteDone = done
	m.mu.Unlock()
	// Writes complete synchronously in this mock; only reads need FeedRead.
	m.CompleteWrite(nil)
}

func (m *MockAdaptor) IsWaiting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingReadDone != nil || m.pendingWriteDone != nil
}

func (m *MockAdaptor) Schedule(fn func()) {
	fn()
}

// FeedRead appends bytes as if they arrived from the wire, satisfying a
// pending Read once enough have accumulated.
func (m *MockAdaptor) FeedRead(chunk []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf = append(m.readBuf, chunk...)
	m.tryDeliverLocked()
}

func (m *MockAdaptor) tryDeliverLocked() {
	if m.pendingReadDone == nil || len(m.readBuf) < m.pendingReadN {
		return
	}
	buf := m.readBuf[:m.pendingReadN]
	m.readBuf = m.readBuf[m.pendingReadN:]
	done := m.pendingReadDone
	m.pendingReadDone = nil
	m.mu.Unlock()
	done(buf, nil)
	m.mu.Lock()
}

// FailPendingRead completes a pending Read with err instead of bytes.
func (m *MockAdaptor) FailPendingRead(err error) {
	m.mu.Lock()
	done := m.pendingReadDone
	m.pendingReadDone = nil
	m.mu.Unlock()
	if done != nil {
		done(nil, err)
	}
}

// CompleteWrite finishes the most recently queued write with err (nil for
// success).
func (m *MockAdaptor) CompleteWrite(err error) {
	m.mu.Lock()
	done := m.pendingWriteDone
	m.pendingWriteDone = nil
	m.mu.Unlock()
	if done != nil {
		done(err)
	}
}

// Writes returns every frame written so far, for assertions.
func (m *MockAdaptor) Writes() []wire.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]wire.Frame, len(m.writes))
	copy(out, m.writes)
	return out
}

// CallCounts mirrors the teacher's MockBackend.CallCounts.
func (m *MockAdaptor) CallCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{"read": m.readCalls, "write": m.writeCalls}
}

var _ Adaptor = (*MockAdaptor)(nil)
