package future_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyrant-go/gotyrant/adaptor"
	"github.com/tyrant-go/gotyrant/future"
)

func TestClient_Get(t *testing.T) {
	m := adaptor.NewMockAdaptor()
	c := future.NewClient(m)

	type result struct {
		value []byte
		err   error
	}
	done := make(chan result, 1)
	c.Get([]byte("key"), func(value []byte, err error) {
		done <- result{value, err}
	})

	require.Eventually(t, func() bool { return len(m.Writes()) == 1 }, time.Second, time.Millisecond)
	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x05})
	m.FeedRead([]byte("value"))

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, "value", string(res.value))
}

func TestClient_PutThenGet_Pipelined(t *testing.T) {
	m := adaptor.NewMockAdaptor()
	c := future.NewClient(m)

	putDone := make(chan error, 1)
	c.Put([]byte("k"), []byte("v"), func(err error) { putDone <- err })

	type result struct {
		value []byte
		err   error
	}
	getDone := make(chan result, 1)
	c.Get([]byte("k"), func(value []byte, err error) { getDone <- result{value, err} })

	require.Eventually(t, func() bool { return len(m.Writes()) == 1 }, time.Second, time.Millisecond)
	m.FeedRead([]byte{0x00})
	require.NoError(t, <-putDone)

	require.Eventually(t, func() bool { return len(m.Writes()) == 2 }, time.Second, time.Millisecond)
	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x01})
	m.FeedRead([]byte("v"))

	res := <-getDone
	require.NoError(t, res.err)
	require.Equal(t, "v", string(res.value))
}

func TestClient_Get_MissingKeyReportsProtocolStatus(t *testing.T) {
	m := adaptor.NewMockAdaptor()
	c := future.NewClient(m)

	type result struct {
		value []byte
		err   error
	}
	done := make(chan result, 1)
	c.Get([]byte("missing"), func(value []byte, err error) { done <- result{value, err} })

	require.Eventually(t, func() bool { return len(m.Writes()) == 1 }, time.Second, time.Millisecond)
	m.FeedRead([]byte{0x01})

	res := <-done
	require.Error(t, res.err)
}

func TestClient_RNum(t *testing.T) {
	m := adaptor.NewMockAdaptor()
	c := future.NewClient(m)

	type result struct {
		n   uint64
		err error
	}
	done := make(chan result, 1)
	c.RNum(func(n uint64, err error) { done <- result{n, err} })

	require.Eventually(t, func() bool { return len(m.Writes()) == 1 }, time.Second, time.Millisecond)
	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2a})

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, uint64(42), res.n)
}
