package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestT2_Put(t *testing.T) {
	f := T2(0x10, []byte("k"), []byte("value"))
	require.Len(t, f, 3)
	head := f[0]
	assert.Equal(t, byte(Magic), head[0])
	assert.Equal(t, byte(0x10), head[1])

	n, err := DecodeLen(head[2:6])
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)

	n, err = DecodeLen(head[6:10])
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)

	assert.Equal(t, []byte("k"), f[1])
	assert.Equal(t, []byte("value"), f[2])
}

func TestT1_Get(t *testing.T) {
	f := T1(0x30, []byte("hello"))
	assert.Equal(t, Frame{
		{Magic, 0x30, 0, 0, 0, 5},
		[]byte("hello"),
	}, f)
}

func TestT0_Bare(t *testing.T) {
	assert.Equal(t, Frame{{Magic, 0x80}}, T0(0x80))
}

func TestTN_MultiKey(t *testing.T) {
	f := TN(0x31, [][]byte{[]byte("a"), []byte("bb")})
	require.Len(t, f, 5) // head, len+key for each of 2 keys
	assert.Equal(t, []byte("a"), f[2])
	assert.Equal(t, []byte("bb"), f[4])
}

func TestTDouble_RoundTrip(t *testing.T) {
	cases := []float64{0, 1.5, 3.14159, 1000000.000000000001}
	for _, v := range cases {
		integ, fract := SplitDouble(v)
		got := DecodeDouble(integ, fract)
		assert.InDelta(t, v, got, 1e-6)
	}
}

func TestDecodeSuccess(t *testing.T) {
	assert.NoError(t, DecodeSuccess([]byte{0}))

	err := DecodeSuccess([]byte{1})
	require.Error(t, err)
	var status *ProtocolStatus
	require.ErrorAs(t, err, &status)
	assert.Equal(t, byte(1), status.Code)
}

func TestDecodeLen_FramingError(t *testing.T) {
	huge := make([]byte, 4)
	huge[0] = 0xff // top byte set -> length in the billions, over MaxFrameLen
	_, err := DecodeLen(huge)
	require.Error(t, err)
	var fe *FramingError
	require.ErrorAs(t, err, &fe)
}

func TestDecodeLen_WrongSize(t *testing.T) {
	_, err := DecodeLen([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestFrame_Bytes(t *testing.T) {
	f := Frame{[]byte("ab"), []byte("cd")}
	assert.Equal(t, []byte("abcd"), f.Bytes())
}
