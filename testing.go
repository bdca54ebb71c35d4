package tyrant

import "github.com/tyrant-go/gotyrant/adaptor"

// MockAdaptor re-exports adaptor.MockAdaptor so callers testing a Client
// don't need a second import. The concrete type lives in the adaptor
// package rather than here so internal/engine's own tests can use it
// without importing this package, which would create an import cycle
// (this package imports internal/engine).
type MockAdaptor = adaptor.MockAdaptor

// NewMockAdaptor creates an empty MockAdaptor, grounded on the teacher's
// NewMockBackend.
func NewMockAdaptor() *MockAdaptor {
	return adaptor.NewMockAdaptor()
}

// NewTestClient wires a Client to a fresh MockAdaptor, for unit tests that
// want to drive a Client without a real socket. The returned MockAdaptor
// feeds responses and records the frames the client wrote.
func NewTestClient(opts Options) (*Client, *MockAdaptor) {
	m := NewMockAdaptor()
	return NewClient(m, opts), m
}
