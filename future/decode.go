package future

import "github.com/tyrant-go/gotyrant/internal/wire"

// Pair is a key/value byte pair, mirroring the root package's Pair. The
// two client flavors are independent implementations of the same wire
// behavior (spec.md §4.5), so this package defines its own rather than
// importing the root package, keeping the two engines independent.
type Pair struct {
	Key   []byte
	Value []byte
}

func readSuccess(l *Loop) error {
	b, err := l.Read(1)
	if err != nil {
		return err
	}
	return wire.DecodeSuccess(b)
}

func readLen(l *Loop) (uint32, error) {
	b, err := l.Read(4)
	if err != nil {
		return 0, err
	}
	return wire.DecodeLen(b)
}

func readStr(l *Loop) ([]byte, error) {
	n, err := readLen(l)
	if err != nil {
		return nil, err
	}
	return l.Read(int(n))
}

func readU64(l *Loop) (uint64, error) {
	b, err := l.Read(8)
	if err != nil {
		return 0, err
	}
	return wire.DecodeU64(b)
}

func readDouble(l *Loop) (float64, error) {
	b, err := l.Read(16)
	if err != nil {
		return 0, err
	}
	integ, err := wire.DecodeU64(b[0:8])
	if err != nil {
		return 0, err
	}
	fract, err := wire.DecodeU64(b[8:16])
	if err != nil {
		return 0, err
	}
	return wire.DecodeDouble(integ, fract), nil
}

func readStringPair(l *Loop) (Pair, error) {
	klen, err := readLen(l)
	if err != nil {
		return Pair{}, err
	}
	vlen, err := readLen(l)
	if err != nil {
		return Pair{}, err
	}
	key, err := l.Read(int(klen))
	if err != nil {
		return Pair{}, err
	}
	value, err := l.Read(int(vlen))
	if err != nil {
		return Pair{}, err
	}
	return Pair{Key: key, Value: value}, nil
}

func readCountPrefixedStrings(l *Loop) ([][]byte, error) {
	count, err := readLen(l)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := readStr(l)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func readCountPrefixedPairs(l *Loop) ([]Pair, error) {
	count, err := readLen(l)
	if err != nil {
		return nil, err
	}
	out := make([]Pair, 0, count)
	for i := uint32(0); i < count; i++ {
		p, err := readStringPair(l)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
