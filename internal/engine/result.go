package engine

// Kind tags which field of a Result is populated. Every client operation
// produces exactly one of these shapes.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindBytes
	KindU64
	KindDouble
	KindPair
	KindList
	KindPairs
)

// Pair is a key/value byte pair, used by MGet's response.
type Pair struct {
	Key   []byte
	Value []byte
}

// Result is the engine's result-slot value: a closed sum type rather than
// an untyped any, so a completed step program hands its caller exactly the
// shape its operation promises (see Design Note "Result slot as untyped
// any" in SPEC_FULL.md, resolved here as a tagged struct).
type Result struct {
	Kind   Kind
	Bool   bool
	Bytes  []byte
	U64    uint64
	Double float64
	Pair   Pair
	List   [][]byte
	Pairs  []Pair
}

func NoneResult() Result            { return Result{Kind: KindNone} }
func BoolResult(v bool) Result      { return Result{Kind: KindBool, Bool: v} }
func BytesResult(v []byte) Result   { return Result{Kind: KindBytes, Bytes: v} }
func U64Result(v uint64) Result     { return Result{Kind: KindU64, U64: v} }
func DoubleResult(v float64) Result { return Result{Kind: KindDouble, Double: v} }
func PairResult(k, v []byte) Result { return Result{Kind: KindPair, Pair: Pair{Key: k, Value: v}} }
func ListResult(v [][]byte) Result  { return Result{Kind: KindList, List: v} }
func PairsResult(v []Pair) Result   { return Result{Kind: KindPairs, Pairs: v} }
