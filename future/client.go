package future

import "github.com/tyrant-go/gotyrant/adaptor"

// op codes, duplicated from the root package's (unexported) constants.go.
// The two client flavors are deliberately independent implementations of
// the same wire table (spec.md §4.5 requires both to produce identical
// wire behavior, not to share an implementation of it).
const (
	opPut       = 0x10
	opPutKeep   = 0x11
	opPutCat    = 0x12
	opPutShl    = 0x13
	opPutNR     = 0x18
	opOut       = 0x20
	opGet       = 0x30
	opMGet      = 0x31
	opVSiz      = 0x38
	opIterInit  = 0x50
	opIterNext  = 0x51
	opFwmKeys   = 0x58
	opAddInt    = 0x60
	opAddDouble = 0x61
	opExt       = 0x68
	opSync      = 0x70
	opVanish    = 0x71
	opCopy      = 0x72
	opRestore   = 0x73
	opSetMst    = 0x78
	opRNum      = 0x80
	opSize      = 0x81
	opStat      = 0x88
	opMisc      = 0x90
)

// Client is the suspension-style counterpart to the root package's
// Client: the same 24 operations, each written as a linear routine
// instead of an explicit step list.
type Client struct {
	loop *Loop
}

// NewClient wraps an Adaptor (a concrete transport or MockAdaptor) as a
// suspension-style Client.
func NewClient(a adaptor.Adaptor) *Client {
	return &Client{loop: NewLoop(a)}
}
