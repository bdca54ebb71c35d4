package engine

import "github.com/tyrant-go/gotyrant/internal/wire"

// This file provides reusable response-decoding step sequences, directly
// grounded on original_source/pytyrant_async.py's Tyrant._success/_len/_str
// and pytyrant.py's sockstrpair/sockdouble. Every client operation in the
// root package composes its program out of WriteFrame plus these.

// Success reads the one-byte status prefix every response carries. A
// nonzero byte fails the command with the server's protocol status
// instead of completing it.
func Success() []Step {
	return []Step{
		ReadBytes(1),
		Call(func(e *Engine) {
			e.ProcessReadBuffer(func(buf []byte) (Result, error) {
				if err := wire.DecodeSuccess(buf); err != nil {
					return Result{}, err
				}
				return BoolResult(true), nil
			})
		}),
	}
}

// Len reads a 4-byte length field into the result slot as a U64Result.
func Len() []Step {
	return []Step{
		ReadBytes(4),
		Call(func(e *Engine) {
			e.ProcessReadBuffer(func(buf []byte) (Result, error) {
				n, err := wire.DecodeLen(buf)
				if err != nil {
					return Result{}, err
				}
				return U64Result(uint64(n)), nil
			})
		}),
	}
}

// Str reads a length-prefixed string: a 4-byte length, then that many
// bytes, landing in the result slot as BytesResult.
func Str() []Step {
	steps := Len()
	return append(steps, Call(func(e *Engine) {
		n := int(e.Result().U64)
		e.DoNow(ReadBytes(n), Call(func(e *Engine) {
			e.UseReadBufferAsResult()
		}))
	}))
}

// U64 reads an 8-byte big-endian integer (rnum, size, the sum returned by
// addint when read as a wide field).
func U64() []Step {
	return []Step{
		ReadBytes(8),
		Call(func(e *Engine) {
			e.ProcessReadBuffer(func(buf []byte) (Result, error) {
				v, err := wire.DecodeU64(buf)
				if err != nil {
					return Result{}, err
				}
				return U64Result(v), nil
			})
		}),
	}
}

// U32 reads a 4-byte big-endian integer, used by AddInt's sum response.
func U32() []Step {
	return []Step{
		ReadBytes(4),
		Call(func(e *Engine) {
			e.ProcessReadBuffer(func(buf []byte) (Result, error) {
				if len(buf) != 4 {
					return Result{}, &wire.FramingError{Field: "u32", Got: uint64(len(buf))}
				}
				n := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
				return U64Result(uint64(n)), nil
			})
		}),
	}
}

// Double reads the two 8-byte integer/fractional fields AddDouble's
// response carries, matching pytyrant.py's sockdouble.
func Double() []Step {
	return []Step{
		ReadBytes(16),
		Call(func(e *Engine) {
			e.ProcessReadBuffer(func(buf []byte) (Result, error) {
				integ, err := wire.DecodeU64(buf[0:8])
				if err != nil {
					return Result{}, err
				}
				fract, err := wire.DecodeU64(buf[8:16])
				if err != nil {
					return Result{}, err
				}
				return DoubleResult(wire.DecodeDouble(integ, fract)), nil
			})
		}),
	}
}

// StringPair reads a key-length, value-length, key, value quartet,
// matching pytyrant.py's sockstrpair.
func StringPair() []Step {
	return []Step{
		ReadBytes(4),
		Call(func(e *Engine) {
			klen, err := wire.DecodeLen(e.ReadBuffer())
			if err != nil {
				e.Fail(err)
				return
			}
			e.DoNow(ReadBytes(4), Call(func(e *Engine) {
				vlen, err := wire.DecodeLen(e.ReadBuffer())
				if err != nil {
					e.Fail(err)
					return
				}
				e.DoNow(ReadBytes(int(klen)), Call(func(e *Engine) {
					key := append([]byte(nil), e.ReadBuffer()...)
					e.DoNow(ReadBytes(int(vlen)), Call(func(e *Engine) {
						val := append([]byte(nil), e.ReadBuffer()...)
						e.SetResult(PairResult(key, val))
					}))
				}))
			}))
		}),
	}
}

// CountPrefixedStrings reads a 4-byte count followed by that many
// length-prefixed strings, landing in the result slot as ListResult. Used
// by FwmKeys and Misc.
func CountPrefixedStrings() []Step {
	steps := Len()
	return append(steps, Call(func(e *Engine) {
		count := int(e.Result().U64)
		readStrings(e, count, nil)
	}))
}

func readStrings(e *Engine, remaining int, acc [][]byte) {
	if remaining == 0 {
		e.SetResult(ListResult(acc))
		return
	}
	steps := append(Str(), Call(func(e *Engine) {
		item := append([]byte(nil), e.Result().Bytes...)
		readStrings(e, remaining-1, append(acc, item))
	}))
	e.DoNow(steps...)
}

// CountPrefixedPairs reads a 4-byte count followed by that many
// key/value string pairs, landing in the result slot as PairsResult. Used
// by MGet.
func CountPrefixedPairs() []Step {
	steps := Len()
	return append(steps, Call(func(e *Engine) {
		count := int(e.Result().U64)
		readPairs(e, count, nil)
	}))
}

func readPairs(e *Engine, remaining int, acc []Pair) {
	if remaining == 0 {
		e.SetResult(PairsResult(acc))
		return
	}
	steps := append(StringPair(), Call(func(e *Engine) {
		p := e.Result().Pair
		readPairs(e, remaining-1, append(acc, p))
	}))
	e.DoNow(steps...)
}
