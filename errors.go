package tyrant

import (
	"errors"
	"fmt"

	"github.com/tyrant-go/gotyrant/internal/wire"
)

// Kind categorizes a tyrant error into one of the four buckets spec.md §7
// defines, replacing the source's bare-nil fail() sentinel (Open Question
// 1) with a typed error a caller can branch on.
type Kind string

const (
	// KindProtocol means the server returned a nonzero status byte.
	KindProtocol Kind = "protocol"
	// KindFraming means a length field decoded off the wire was malformed
	// or implausibly large.
	KindFraming Kind = "framing"
	// KindTransport means the underlying adaptor/socket failed.
	KindTransport Kind = "transport"
	// KindMisuse means the caller violated the adaptor or client contract
	// (e.g. calling a method after Close).
	KindMisuse Kind = "misuse"
)

// Error is the structured error every Client method returns on failure.
type Error struct {
	Op     string // operation that failed, e.g. "Get", "Put"
	Kind   Kind
	Status byte  // protocol status byte, valid when Kind == KindProtocol
	Err    error // wrapped underlying error
}

func (e *Error) Error() string {
	if e.Kind == KindProtocol {
		return fmt.Sprintf("tyrant: %s: %s status=%d", e.Op, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("tyrant: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("tyrant: %s: %s", e.Op, e.Kind)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports comparing against a Kind-only sentinel *Error, the same way
// the teacher's *ublk.Error supports comparison by UblkErrorCode.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	if te.Kind != "" && te.Kind != e.Kind {
		return false
	}
	return true
}

// newError wraps err as a *Error of the given kind and operation name.
func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error surfaced by the wire/engine layers to the Kind a
// caller should see.
func classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	var status *wire.ProtocolStatus
	if errors.As(err, &status) {
		return &Error{Op: op, Kind: KindProtocol, Status: status.Code, Err: err}
	}
	var framing *wire.FramingError
	if errors.As(err, &framing) {
		return &Error{Op: op, Kind: KindFraming, Err: err}
	}
	return &Error{Op: op, Kind: KindTransport, Err: err}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}
