package tyrant

// DefaultPort is the default Tokyo Tyrant server listening port.
const DefaultPort = 1978

// Option bits passed in the opts argument of Misc (MonoULog) and Ext
// (XLockRecord, XLockGlobal).
const (
	// MonoULog suppresses update-log replication for this operation.
	MonoULog = 1 << 0
	// XLockRecord requests a record-level lock (same bit value as
	// MonoULog; the two are mutually exclusive by context).
	XLockRecord = 1 << 0
	// XLockGlobal requests a global lock.
	XLockGlobal = 1 << 1
)

// opCode enumerates the Tokyo Tyrant 1.1.17 wire operation codes.
type opCode byte

const (
	opPut       opCode = 0x10
	opPutKeep   opCode = 0x11
	opPutCat    opCode = 0x12
	opPutShl    opCode = 0x13
	opPutNR     opCode = 0x18
	opOut       opCode = 0x20
	opGet       opCode = 0x30
	opMGet      opCode = 0x31
	opVSiz      opCode = 0x38
	opIterInit  opCode = 0x50
	opIterNext  opCode = 0x51
	opFwmKeys   opCode = 0x58
	opAddInt    opCode = 0x60
	opAddDouble opCode = 0x61
	opExt       opCode = 0x68
	opSync      opCode = 0x70
	opVanish    opCode = 0x71
	opCopy      opCode = 0x72
	opRestore   opCode = 0x73
	opSetMst    opCode = 0x78
	opRNum      opCode = 0x80
	opSize      opCode = 0x81
	opStat      opCode = 0x88
	opMisc      opCode = 0x90
)
