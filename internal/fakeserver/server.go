package fakeserver

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/tyrant-go/gotyrant/internal/wire"
)

// Op codes, duplicated from the client's (unexported) constants.go rather
// than imported, since this package is test scaffolding for the wire
// protocol, not a consumer of the client package.
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

const (
	statusOK      = 0x00
	statusNoRecord = 0x01
)

// Server accepts connections and serves the Tokyo Tyrant wire protocol
// against a Store, one goroutine per connection.
type Server struct {
	Store *Store

	mu  sync.Mutex
	ln  net.Listener
}

// NewServer creates a Server backed by a fresh Store.
func NewServer() *Server {
	return &Server{Store: NewStore()}
}

// ListenAndServe listens on addr (host:port, or ":0" for an ephemeral
// port) and serves connections until Close is called. It returns once the
// listener is ready to accept, with serving already started on its own
// goroutine; callers should read Addr() for the actual bound address.
func ListenAndServe(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{Store: NewStore(), ln: ln}
	go s.serve()
	return s, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln.Addr()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	c := &connState{conn: conn, store: s.Store}
	for {
		if err := c.handleOne(); err != nil {
			return
		}
	}
}

type connState struct {
	conn  net.Conn
	store *Store

	iterKeys [][]byte
	iterPos  int
}

func (c *connState) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *connState) readU32() (uint32, error) {
	b, err := c.readFull(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *connState) readU64() (uint64, error) {
	b, err := c.readFull(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c *connState) writeStatus(code byte) error {
	_, err := c.conn.Write([]byte{code})
	return err
}

func (c *connState) writeString(b []byte) error {
	head := make([]byte, 4)
	binary.BigEndian.PutUint32(head, uint32(len(b)))
	if _, err := c.conn.Write(head); err != nil {
		return err
	}
	_, err := c.conn.Write(b)
	return err
}

func (c *connState) handleOne() error {
	head, err := c.readFull(2)
	if err != nil {
		return err
	}
	if head[0] != wire.Magic {
		return io.ErrUnexpectedEOF
	}
	switch head[1] {
	case opPut:
		return c.handlePut()
	case opPutKeep:
		return c.handlePutKeep()
	case opPutCat:
		return c.handlePutCat()
	case opPutShl:
		return c.handlePutShl()
	case opPutNR:
		return c.handlePutNR()
	case opOut:
		return c.handleOut()
	case opGet:
		return c.handleGet()
	case opMGet:
		return c.handleMGet()
	case opVSiz:
		return c.handleVSiz()
	case opIterInit:
		return c.handleIterInit()
	case opIterNext:
		return c.handleIterNext()
	case opFwmKeys:
		return c.handleFwmKeys()
	case opAddInt:
		return c.handleAddInt()
	case opAddDouble:
		return c.handleAddDouble()
	case opExt:
		return c.handleExt()
	case opSync, opVanish, opCopy, opRestore, opSetMst:
		return c.handleNoOp(head[1])
	case opRNum:
		return c.handleRNum()
	case opSize:
		return c.handleSize()
	case opStat:
		return c.handleStat()
	case opMisc:
		return c.handleMisc()
	default:
		return io.ErrUnexpectedEOF
	}
}

func (c *connState) readKeyValue() (key, value []byte, err error) {
	klen, err := c.readU32()
	if err != nil {
		return nil, nil, err
	}
	vlen, err := c.readU32()
	if err != nil {
		return nil, nil, err
	}
	key, err = c.readFull(int(klen))
	if err != nil {
		return nil, nil, err
	}
	value, err = c.readFull(int(vlen))
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

func (c *connState) readKey() ([]byte, error) {
	klen, err := c.readU32()
	if err != nil {
		return nil, err
	}
	return c.readFull(int(klen))
}

func (c *connState) handlePut() error {
	key, value, err := c.readKeyValue()
	if err != nil {
		return err
	}
	c.store.Put(key, value)
	return c.writeStatus(statusOK)
}

func (c *connState) handlePutKeep() error {
	key, value, err := c.readKeyValue()
	if err != nil {
		return err
	}
	if !c.store.PutKeep(key, value) {
		return c.writeStatus(statusNoRecord)
	}
	return c.writeStatus(statusOK)
}

func (c *connState) handlePutCat() error {
	key, value, err := c.readKeyValue()
	if err != nil {
		return err
	}
	c.store.PutCat(key, value)
	return c.writeStatus(statusOK)
}

func (c *connState) handlePutShl() error {
	klen, err := c.readU32()
	if err != nil {
		return err
	}
	vlen, err := c.readU32()
	if err != nil {
		return err
	}
	width, err := c.readU32()
	if err != nil {
		return err
	}
	key, err := c.readFull(int(klen))
	if err != nil {
		return err
	}
	value, err := c.readFull(int(vlen))
	if err != nil {
		return err
	}
	c.store.PutShl(key, value, width)
	return c.writeStatus(statusOK)
}

func (c *connState) handlePutNR() error {
	_, _, err := c.readKeyValue()
	if err != nil {
		return err
	}
	// No response: putnr is fire-and-forget on the wire.
	return nil
}

func (c *connState) handleOut() error {
	key, err := c.readKey()
	if err != nil {
		return err
	}
	if !c.store.Out(key) {
		return c.writeStatus(statusNoRecord)
	}
	return c.writeStatus(statusOK)
}

func (c *connState) handleGet() error {
	key, err := c.readKey()
	if err != nil {
		return err
	}
	value, ok := c.store.Get(key)
	if !ok {
		return c.writeStatus(statusNoRecord)
	}
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	return c.writeString(value)
}

func (c *connState) handleMGet() error {
	count, err := c.readU32()
	if err != nil {
		return err
	}
	type kv struct{ key, value []byte }
	var found []kv
	for i := uint32(0); i < count; i++ {
		key, err := c.readKey()
		if err != nil {
			return err
		}
		if v, ok := c.store.Get(key); ok {
			found = append(found, kv{key, v})
		}
	}
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	head := make([]byte, 4)
	binary.BigEndian.PutUint32(head, uint32(len(found)))
	if _, err := c.conn.Write(head); err != nil {
		return err
	}
	for _, p := range found {
		sizes := make([]byte, 8)
		binary.BigEndian.PutUint32(sizes[0:4], uint32(len(p.key)))
		binary.BigEndian.PutUint32(sizes[4:8], uint32(len(p.value)))
		if _, err := c.conn.Write(sizes); err != nil {
			return err
		}
		if _, err := c.conn.Write(p.key); err != nil {
			return err
		}
		if _, err := c.conn.Write(p.value); err != nil {
			return err
		}
	}
	return nil
}

func (c *connState) handleVSiz() error {
	key, err := c.readKey()
	if err != nil {
		return err
	}
	size, ok := c.store.VSiz(key)
	if !ok {
		return c.writeStatus(statusNoRecord)
	}
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	head := make([]byte, 4)
	binary.BigEndian.PutUint32(head, uint32(size))
	_, err = c.conn.Write(head)
	return err
}

func (c *connState) handleIterInit() error {
	c.iterKeys = c.store.Keys()
	c.iterPos = 0
	return c.writeStatus(statusOK)
}

func (c *connState) handleIterNext() error {
	if c.iterPos >= len(c.iterKeys) {
		return c.writeStatus(statusNoRecord)
	}
	key := c.iterKeys[c.iterPos]
	c.iterPos++
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	return c.writeString(key)
}

func (c *connState) handleFwmKeys() error {
	klen, err := c.readU32()
	if err != nil {
		return err
	}
	max, err := c.readU32()
	if err != nil {
		return err
	}
	prefix, err := c.readFull(int(klen))
	if err != nil {
		return err
	}
	keys := c.store.FwmKeys(prefix, max)
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	head := make([]byte, 4)
	binary.BigEndian.PutUint32(head, uint32(len(keys)))
	if _, err := c.conn.Write(head); err != nil {
		return err
	}
	for _, k := range keys {
		if err := c.writeString(k); err != nil {
			return err
		}
	}
	return nil
}

func (c *connState) handleAddInt() error {
	klen, err := c.readU32()
	if err != nil {
		return err
	}
	n, err := c.readU32()
	if err != nil {
		return err
	}
	key, err := c.readFull(int(klen))
	if err != nil {
		return err
	}
	sum := c.store.AddInt(key, int32(n))
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	head := make([]byte, 4)
	binary.BigEndian.PutUint32(head, uint32(sum))
	_, err = c.conn.Write(head)
	return err
}

func (c *connState) handleAddDouble() error {
	klen, err := c.readU32()
	if err != nil {
		return err
	}
	integ, err := c.readU64()
	if err != nil {
		return err
	}
	fract, err := c.readU64()
	if err != nil {
		return err
	}
	key, err := c.readFull(int(klen))
	if err != nil {
		return err
	}
	sum := c.store.AddDouble(key, float64(integ)+float64(fract)*1e-12)
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	sumInteg, sumFract := splitDouble(sum)
	head := make([]byte, 16)
	binary.BigEndian.PutUint64(head[0:8], sumInteg)
	binary.BigEndian.PutUint64(head[8:16], sumFract)
	_, err = c.conn.Write(head)
	return err
}

func splitDouble(v float64) (integ, fract uint64) {
	integ = uint64(v)
	fract = uint64((v - float64(integ)) * 1e12)
	return integ, fract
}

// handleExt echoes the value back, standing in for a Lua extension call:
// this server has no embedded script engine.
func (c *connState) handleExt() error {
	fnlen, err := c.readU32()
	if err != nil {
		return err
	}
	if _, err := c.readU32(); err != nil { // opts
		return err
	}
	klen, err := c.readU32()
	if err != nil {
		return err
	}
	vlen, err := c.readU32()
	if err != nil {
		return err
	}
	if _, err := c.readFull(int(fnlen)); err != nil {
		return err
	}
	if _, err := c.readFull(int(klen)); err != nil {
		return err
	}
	value, err := c.readFull(int(vlen))
	if err != nil {
		return err
	}
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	return c.writeString(value)
}

func (c *connState) handleNoOp(code byte) error {
	switch code {
	case opSync:
		// no body
	case opVanish:
		c.store.Vanish()
	case opCopy:
		if _, err := c.readKey(); err != nil { // path
			return err
		}
	case opRestore, opSetMst:
		// restore: path length, msec, path; setmst: host length, port, host
		klen, err := c.readU32()
		if err != nil {
			return err
		}
		width := 4
		if code == opRestore {
			width = 8
		}
		if _, err := c.readFull(width + int(klen)); err != nil {
			return err
		}
	}
	return c.writeStatus(statusOK)
}

func (c *connState) handleRNum() error {
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	n := c.store.RNum()
	head := make([]byte, 8)
	binary.BigEndian.PutUint64(head, n)
	_, err := c.conn.Write(head)
	return err
}

func (c *connState) handleSize() error {
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	n := c.store.Size()
	head := make([]byte, 8)
	binary.BigEndian.PutUint64(head, n)
	_, err := c.conn.Write(head)
	return err
}

func (c *connState) handleStat() error {
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	stat := "fakeserver\nrnum\t" + itoa(int(c.store.RNum())) + "\n"
	return c.writeString([]byte(stat))
}

// handleMisc responds with an empty result list: this server implements
// no miscellaneous server functions.
func (c *connState) handleMisc() error {
	fnlen, err := c.readU32()
	if err != nil {
		return err
	}
	if _, err := c.readU32(); err != nil { // opts
		return err
	}
	argc, err := c.readU32()
	if err != nil {
		return err
	}
	if _, err := c.readFull(int(fnlen)); err != nil {
		return err
	}
	for i := uint32(0); i < argc; i++ {
		alen, err := c.readU32()
		if err != nil {
			return err
		}
		if _, err := c.readFull(int(alen)); err != nil {
			return err
		}
	}
	if err := c.writeStatus(statusOK); err != nil {
		return err
	}
	head := make([]byte, 4)
	_, err = c.conn.Write(head)
	return err
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
