package tyrant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	tyrant "github.com/tyrant-go/gotyrant"
)

func TestClient_Get(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotValue []byte
	var gotErr error
	done := make(chan struct{})
	c.Get(context.Background(), []byte("key"), func(value []byte, err error) {
		gotValue, gotErr = value, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x05})
	m.FeedRead([]byte("value"))
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, "value", string(gotValue))
}

func TestClient_PutThenGet_Pipelined(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var putErr error
	putDone := make(chan struct{})
	c.Put(context.Background(), []byte("k"), []byte("v"), func(err error) {
		putErr = err
		close(putDone)
	})

	var gotValue []byte
	var getErr error
	getDone := make(chan struct{})
	c.Get(context.Background(), []byte("k"), func(value []byte, err error) {
		gotValue, getErr = value, err
		close(getDone)
	})

	require.Len(t, m.Writes(), 1, "get waits in the command queue until put completes")

	m.FeedRead([]byte{0x00}) // put's success byte
	<-putDone
	require.NoError(t, putErr)
	require.Len(t, m.Writes(), 2, "get's frame is written once put has completed")

	m.FeedRead([]byte{0x00}) // get's success byte
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x01})
	m.FeedRead([]byte("v"))
	<-getDone

	require.NoError(t, getErr)
	require.Equal(t, "v", string(gotValue))
}

func TestClient_Get_MissingKeyReportsProtocolStatus(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotErr error
	done := make(chan struct{})
	c.Get(context.Background(), []byte("missing"), func(value []byte, err error) {
		gotErr = err
		close(done)
	})

	m.FeedRead([]byte{0x01})
	<-done

	require.Error(t, gotErr)
	var tErr *tyrant.Error
	require.ErrorAs(t, gotErr, &tErr)
	require.Equal(t, tyrant.KindProtocol, tErr.Kind)
	require.Equal(t, byte(0x01), tErr.Status)
}

func TestClient_RNum(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotN uint64
	var gotErr error
	done := make(chan struct{})
	c.RNum(context.Background(), func(n uint64, err error) {
		gotN, gotErr = n, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2a})
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, uint64(42), gotN)
}

func TestClient_Size(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotSize uint64
	var gotErr error
	done := make(chan struct{})
	c.Size(context.Background(), func(size uint64, err error) {
		gotSize, gotErr = size, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00})
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, uint64(256), gotSize)
}

func TestClient_MGet(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotPairs []tyrant.Pair
	var gotErr error
	done := make(chan struct{})
	c.MGet(context.Background(), [][]byte{[]byte("a"), []byte("b")}, func(pairs []tyrant.Pair, err error) {
		gotPairs, gotErr = pairs, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x02}) // 2 pairs
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01})
	m.FeedRead([]byte("a1"))
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01})
	m.FeedRead([]byte("b2"))
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, []tyrant.Pair{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	}, gotPairs)
}

func TestClient_PutNR_DoesNotWaitForResponse(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var called bool
	var gotErr error
	c.PutNR(context.Background(), []byte("k"), []byte("v"), func(err error) {
		called = true
		gotErr = err
	})

	require.True(t, called, "PutNR should resolve without any fed bytes")
	require.NoError(t, gotErr)
	require.Len(t, m.Writes(), 1)
}

func TestClient_Close_RejectsFurtherCalls(t *testing.T) {
	c, _ := tyrant.NewTestClient(tyrant.DefaultOptions())
	require.NoError(t, c.Close())

	var gotErr error
	done := make(chan struct{})
	c.Get(context.Background(), []byte("k"), func(value []byte, err error) {
		gotErr = err
		close(done)
	})
	<-done

	require.Error(t, gotErr)
	var tErr *tyrant.Error
	require.ErrorAs(t, gotErr, &tErr)
	require.Equal(t, tyrant.KindMisuse, tErr.Kind)
}
