package future

import "github.com/tyrant-go/gotyrant/internal/wire"

// Put stores value under key, overwriting any existing value.
func (c *Client) Put(key, value []byte, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T2(opPut, key, value)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// PutKeep stores value under key only if key does not already exist.
func (c *Client) PutKeep(key, value []byte, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T2(opPutKeep, key, value)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// PutCat appends value to whatever is already stored under key.
func (c *Client) PutCat(key, value []byte, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T2(opPutCat, key, value)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// PutShl concatenates value onto key's existing value and truncates the
// result to width bytes from the left.
func (c *Client) PutShl(key, value []byte, width uint32, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T2W(opPutShl, key, value, width)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// PutNR stores value under key without waiting for any response.
func (c *Client) PutNR(key, value []byte, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		return struct{}{}, l.Write(wire.T2(opPutNR, key, value))
	}, func(_ struct{}, err error) {
		if callback != nil {
			callback(err)
		}
	})
}

// Out removes key.
func (c *Client) Out(key []byte, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T1(opOut, key)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// Get retrieves the value stored under key.
func (c *Client) Get(key []byte, callback func(value []byte, err error)) {
	Run(c.loop, func(l *Loop) ([]byte, error) {
		if err := l.Write(wire.T1(opGet, key)); err != nil {
			return nil, err
		}
		if err := readSuccess(l); err != nil {
			return nil, err
		}
		return readStr(l)
	}, callback)
}

// MGet retrieves multiple keys in a single round trip.
func (c *Client) MGet(keys [][]byte, callback func(pairs []Pair, err error)) {
	Run(c.loop, func(l *Loop) ([]Pair, error) {
		if err := l.Write(wire.TN(opMGet, keys)); err != nil {
			return nil, err
		}
		if err := readSuccess(l); err != nil {
			return nil, err
		}
		return readCountPrefixedPairs(l)
	}, callback)
}

// VSiz returns the byte size of the value stored under key.
func (c *Client) VSiz(key []byte, callback func(size uint32, err error)) {
	Run(c.loop, func(l *Loop) (uint32, error) {
		if err := l.Write(wire.T1(opVSiz, key)); err != nil {
			return 0, err
		}
		if err := readSuccess(l); err != nil {
			return 0, err
		}
		return readLen(l)
	}, callback)
}

// IterInit resets the server's key iterator to the first record.
func (c *Client) IterInit(callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T0(opIterInit)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// IterNext returns the next key from the server's iterator.
func (c *Client) IterNext(callback func(key []byte, err error)) {
	Run(c.loop, func(l *Loop) ([]byte, error) {
		if err := l.Write(wire.T0(opIterNext)); err != nil {
			return nil, err
		}
		if err := readSuccess(l); err != nil {
			return nil, err
		}
		return readStr(l)
	}, callback)
}

// FwmKeys returns up to max keys beginning with prefix.
func (c *Client) FwmKeys(prefix []byte, max uint32, callback func(keys [][]byte, err error)) {
	Run(c.loop, func(l *Loop) ([][]byte, error) {
		if err := l.Write(wire.T1M(opFwmKeys, prefix, max)); err != nil {
			return nil, err
		}
		if err := readSuccess(l); err != nil {
			return nil, err
		}
		return readCountPrefixedStrings(l)
	}, callback)
}

// AddInt adds n to the integer stored under key and returns the new
// total.
func (c *Client) AddInt(key []byte, n int32, callback func(sum int32, err error)) {
	Run(c.loop, func(l *Loop) (int32, error) {
		if err := l.Write(wire.T1M(opAddInt, key, uint32(n))); err != nil {
			return 0, err
		}
		if err := readSuccess(l); err != nil {
			return 0, err
		}
		b, err := l.Read(4)
		if err != nil {
			return 0, err
		}
		return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
	}, callback)
}

// AddDouble adds value to the double stored under key and returns the
// new total.
func (c *Client) AddDouble(key []byte, value float64, callback func(sum float64, err error)) {
	Run(c.loop, func(l *Loop) (float64, error) {
		integ, fract := wire.SplitDouble(value)
		if err := l.Write(wire.TDouble(opAddDouble, key, integ, fract)); err != nil {
			return 0, err
		}
		if err := readSuccess(l); err != nil {
			return 0, err
		}
		return readDouble(l)
	}, callback)
}

// Ext invokes a server-side Lua extension function.
func (c *Client) Ext(fn string, opts uint32, key, value []byte, callback func(result []byte, err error)) {
	Run(c.loop, func(l *Loop) ([]byte, error) {
		if err := l.Write(wire.T3F(opExt, []byte(fn), key, value, opts)); err != nil {
			return nil, err
		}
		if err := readSuccess(l); err != nil {
			return nil, err
		}
		return readStr(l)
	}, callback)
}

// Sync flushes the database to disk.
func (c *Client) Sync(callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T0(opSync)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// Vanish removes every record from the database.
func (c *Client) Vanish(callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T0(opVanish)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// Copy makes a copy of the database file at path on the server's host.
func (c *Client) Copy(path string, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T1(opCopy, []byte(path))); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// Restore restores the database from the update log at path, replaying
// entries up to msec.
func (c *Client) Restore(path string, msec uint64, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T1R(opRestore, []byte(path), msec)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// SetMst designates host:port as this server's replication master.
func (c *Client) SetMst(host string, port uint32, callback func(err error)) {
	Run(c.loop, func(l *Loop) (struct{}, error) {
		if err := l.Write(wire.T1M(opSetMst, []byte(host), port)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, readSuccess(l)
	}, func(_ struct{}, err error) { callback(err) })
}

// RNum returns the number of records in the database.
func (c *Client) RNum(callback func(n uint64, err error)) {
	Run(c.loop, func(l *Loop) (uint64, error) {
		if err := l.Write(wire.T0(opRNum)); err != nil {
			return 0, err
		}
		if err := readSuccess(l); err != nil {
			return 0, err
		}
		return readU64(l)
	}, callback)
}

// Size returns the total size in bytes of the database file.
func (c *Client) Size(callback func(size uint64, err error)) {
	Run(c.loop, func(l *Loop) (uint64, error) {
		if err := l.Write(wire.T0(opSize)); err != nil {
			return 0, err
		}
		if err := readSuccess(l); err != nil {
			return 0, err
		}
		return readU64(l)
	}, callback)
}

// Stat returns a human-readable status string describing the server.
func (c *Client) Stat(callback func(stat string, err error)) {
	Run(c.loop, func(l *Loop) (string, error) {
		if err := l.Write(wire.T0(opStat)); err != nil {
			return "", err
		}
		if err := readSuccess(l); err != nil {
			return "", err
		}
		b, err := readStr(l)
		return string(b), err
	}, callback)
}

// Misc invokes a miscellaneous named server function, returning a list
// of result strings.
func (c *Client) Misc(name string, opts uint32, args [][]byte, callback func(results [][]byte, err error)) {
	Run(c.loop, func(l *Loop) ([][]byte, error) {
		if err := l.Write(wire.T1FN(opMisc, []byte(name), opts, args)); err != nil {
			return nil, err
		}
		if err := readSuccess(l); err != nil {
			return nil, err
		}
		return readCountPrefixedStrings(l)
	}, callback)
}
