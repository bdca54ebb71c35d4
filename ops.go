package tyrant

import (
	"context"

	"github.com/tyrant-go/gotyrant/internal/engine"
	"github.com/tyrant-go/gotyrant/internal/wire"
)

// Pair is a key/value byte pair, as returned by MGet.
type Pair struct {
	Key   []byte
	Value []byte
}

func toPairs(ps []engine.Pair) []Pair {
	out := make([]Pair, len(ps))
	for i, p := range ps {
		out[i] = Pair{Key: p.Key, Value: p.Value}
	}
	return out
}

func writeThenSteps(f wire.Frame, steps ...engine.Step) []engine.Step {
	return append([]engine.Step{engine.WriteFrame(f)}, steps...)
}

// Put stores value under key, overwriting any existing value.
func (c *Client) Put(ctx context.Context, key, value []byte, callback func(err error)) {
	steps := writeThenSteps(wire.T2(byte(opPut), key, value), engine.Success()...)
	c.run(ctx, "Put", OpKindPut, steps, func(r engine.Result, err error) { callback(err) })
}

// PutKeep stores value under key only if key does not already exist.
func (c *Client) PutKeep(ctx context.Context, key, value []byte, callback func(err error)) {
	steps := writeThenSteps(wire.T2(byte(opPutKeep), key, value), engine.Success()...)
	c.run(ctx, "PutKeep", OpKindPut, steps, func(r engine.Result, err error) { callback(err) })
}

// PutCat appends value to whatever is already stored under key.
func (c *Client) PutCat(ctx context.Context, key, value []byte, callback func(err error)) {
	steps := writeThenSteps(wire.T2(byte(opPutCat), key, value), engine.Success()...)
	c.run(ctx, "PutCat", OpKindPut, steps, func(r engine.Result, err error) { callback(err) })
}

// PutShl concatenates value onto key's existing value and truncates the
// result to width bytes from the left.
func (c *Client) PutShl(ctx context.Context, key, value []byte, width uint32, callback func(err error)) {
	steps := writeThenSteps(wire.T2W(byte(opPutShl), key, value, width), engine.Success()...)
	c.run(ctx, "PutShl", OpKindPut, steps, func(r engine.Result, err error) { callback(err) })
}

// PutNR stores value under key without waiting for any response at all
// (fire and forget). The server does not ack putnr, so this resolves once
// the frame has been written, not once it has been processed. Recovered
// from the op-code table (0x18) as a supplemented feature; the
// distillation's canonical-forms list omitted it. callback is optional.
func (c *Client) PutNR(ctx context.Context, key, value []byte, callback func(err error)) {
	steps := writeThenSteps(wire.T2(byte(opPutNR), key, value))
	c.run(ctx, "PutNR", OpKindPut, steps, func(r engine.Result, err error) {
		if callback != nil {
			callback(err)
		}
	})
}

// Out removes key.
func (c *Client) Out(ctx context.Context, key []byte, callback func(err error)) {
	steps := writeThenSteps(wire.T1(byte(opOut), key), engine.Success()...)
	c.run(ctx, "Out", OpKindOut, steps, func(r engine.Result, err error) { callback(err) })
}

// Get retrieves the value stored under key.
func (c *Client) Get(ctx context.Context, key []byte, callback func(value []byte, err error)) {
	steps := writeThenSteps(wire.T1(byte(opGet), key), engine.Success()...)
	steps = append(steps, engine.Str()...)
	c.run(ctx, "Get", OpKindGet, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(r.Bytes, nil)
	})
}

// MGet retrieves multiple keys in a single round trip.
func (c *Client) MGet(ctx context.Context, keys [][]byte, callback func(pairs []Pair, err error)) {
	steps := writeThenSteps(wire.TN(byte(opMGet), keys), engine.Success()...)
	steps = append(steps, engine.CountPrefixedPairs()...)
	c.run(ctx, "MGet", OpKindGet, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(toPairs(r.Pairs), nil)
	})
}

// VSiz returns the byte size of the value stored under key.
func (c *Client) VSiz(ctx context.Context, key []byte, callback func(size uint32, err error)) {
	steps := writeThenSteps(wire.T1(byte(opVSiz), key), engine.Success()...)
	steps = append(steps, engine.U32()...)
	c.run(ctx, "VSiz", OpKindGet, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(uint32(r.U64), nil)
	})
}

// IterInit resets the server's key iterator to the first record.
func (c *Client) IterInit(ctx context.Context, callback func(err error)) {
	steps := writeThenSteps(wire.T0(byte(opIterInit)), engine.Success()...)
	c.run(ctx, "IterInit", OpKindOther, steps, func(r engine.Result, err error) { callback(err) })
}

// IterNext returns the next key from the server's iterator.
func (c *Client) IterNext(ctx context.Context, callback func(key []byte, err error)) {
	steps := writeThenSteps(wire.T0(byte(opIterNext)), engine.Success()...)
	steps = append(steps, engine.Str()...)
	c.run(ctx, "IterNext", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(r.Bytes, nil)
	})
}

// FwmKeys returns up to max keys beginning with prefix.
func (c *Client) FwmKeys(ctx context.Context, prefix []byte, max uint32, callback func(keys [][]byte, err error)) {
	steps := writeThenSteps(wire.T1M(byte(opFwmKeys), prefix, max), engine.Success()...)
	steps = append(steps, engine.CountPrefixedStrings()...)
	c.run(ctx, "FwmKeys", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(r.List, nil)
	})
}

// AddInt adds n to the integer stored under key (creating it as n if
// absent) and returns the new total.
func (c *Client) AddInt(ctx context.Context, key []byte, n int32, callback func(sum int32, err error)) {
	steps := writeThenSteps(wire.T1M(byte(opAddInt), key, uint32(n)), engine.Success()...)
	steps = append(steps, engine.U32()...)
	c.run(ctx, "AddInt", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(int32(r.U64), nil)
	})
}

// AddDouble adds value to the double stored under key (creating it as
// value if absent) and returns the new total.
func (c *Client) AddDouble(ctx context.Context, key []byte, value float64, callback func(sum float64, err error)) {
	integ, fract := wire.SplitDouble(value)
	steps := writeThenSteps(wire.TDouble(byte(opAddDouble), key, integ, fract), engine.Success()...)
	steps = append(steps, engine.Double()...)
	c.run(ctx, "AddDouble", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(r.Double, nil)
	})
}

// Ext invokes a server-side Lua extension function.
func (c *Client) Ext(ctx context.Context, fn string, opts uint32, key, value []byte, callback func(result []byte, err error)) {
	steps := writeThenSteps(wire.T3F(byte(opExt), []byte(fn), key, value, opts), engine.Success()...)
	steps = append(steps, engine.Str()...)
	c.run(ctx, "Ext", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(r.Bytes, nil)
	})
}

// Sync flushes the database to disk.
func (c *Client) Sync(ctx context.Context, callback func(err error)) {
	steps := writeThenSteps(wire.T0(byte(opSync)), engine.Success()...)
	c.run(ctx, "Sync", OpKindOther, steps, func(r engine.Result, err error) { callback(err) })
}

// Vanish removes every record from the database.
func (c *Client) Vanish(ctx context.Context, callback func(err error)) {
	steps := writeThenSteps(wire.T0(byte(opVanish)), engine.Success()...)
	c.run(ctx, "Vanish", OpKindOther, steps, func(r engine.Result, err error) { callback(err) })
}

// Copy makes a copy of the database file at path on the server's host.
func (c *Client) Copy(ctx context.Context, path string, callback func(err error)) {
	steps := writeThenSteps(wire.T1(byte(opCopy), []byte(path)), engine.Success()...)
	c.run(ctx, "Copy", OpKindOther, steps, func(r engine.Result, err error) { callback(err) })
}

// Restore restores the database from the update log at path, replaying
// entries up to msec (milliseconds since the epoch).
func (c *Client) Restore(ctx context.Context, path string, msec uint64, callback func(err error)) {
	steps := writeThenSteps(wire.T1R(byte(opRestore), []byte(path), msec), engine.Success()...)
	c.run(ctx, "Restore", OpKindOther, steps, func(r engine.Result, err error) { callback(err) })
}

// SetMst designates host:port as this server's replication master.
func (c *Client) SetMst(ctx context.Context, host string, port uint32, callback func(err error)) {
	steps := writeThenSteps(wire.T1M(byte(opSetMst), []byte(host), port), engine.Success()...)
	c.run(ctx, "SetMst", OpKindOther, steps, func(r engine.Result, err error) { callback(err) })
}

// RNum returns the number of records in the database.
func (c *Client) RNum(ctx context.Context, callback func(n uint64, err error)) {
	steps := writeThenSteps(wire.T0(byte(opRNum)), engine.Success()...)
	steps = append(steps, engine.U64()...)
	c.run(ctx, "RNum", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(r.U64, nil)
	})
}

// Size returns the total size in bytes of the database file.
func (c *Client) Size(ctx context.Context, callback func(size uint64, err error)) {
	steps := writeThenSteps(wire.T0(byte(opSize)), engine.Success()...)
	steps = append(steps, engine.U64()...)
	c.run(ctx, "Size", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(0, err)
			return
		}
		callback(r.U64, nil)
	})
}

// Stat returns a human-readable status string describing the server.
func (c *Client) Stat(ctx context.Context, callback func(stat string, err error)) {
	steps := writeThenSteps(wire.T0(byte(opStat)), engine.Success()...)
	steps = append(steps, engine.Str()...)
	c.run(ctx, "Stat", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback("", err)
			return
		}
		callback(string(r.Bytes), nil)
	})
}

// Misc invokes a miscellaneous named server function with a variable
// argument list (the catch-all operation backing many Tokyo Tyrant
// extensions), returning a list of result strings.
func (c *Client) Misc(ctx context.Context, name string, opts uint32, args [][]byte, callback func(results [][]byte, err error)) {
	steps := writeThenSteps(wire.T1FN(byte(opMisc), []byte(name), opts, args), engine.Success()...)
	steps = append(steps, engine.CountPrefixedStrings()...)
	c.run(ctx, "Misc", OpKindOther, steps, func(r engine.Result, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		callback(r.List, nil)
	})
}
