package unit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	tyrant "github.com/tyrant-go/gotyrant"
)

// These tests run against a MockAdaptor, with no real socket and no
// fakeserver process, exercising Client wiring end to end at the unit
// level (framing, decode, error classification).

func TestDefaultOptions_FillsLoggerAndObserver(t *testing.T) {
	opts := tyrant.DefaultOptions()
	require.NotNil(t, opts.Logger)
	require.NotNil(t, opts.Observer)
	require.True(t, opts.DialTimeout > 0)
}

func TestClient_OutMissingKeyReportsProtocolStatus(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotErr error
	done := make(chan struct{})
	c.Out(context.Background(), []byte("missing"), func(err error) {
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

func TestClient_VSiz(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotSize uint32
	var gotErr error
	done := make(chan struct{})
	c.VSiz(context.Background(), []byte("k"), func(size uint32, err error) {
		gotSize, gotErr = size, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x07})
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, uint32(7), gotSize)
}

func TestClient_AddInt(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotSum int32
	var gotErr error
	done := make(chan struct{})
	c.AddInt(context.Background(), []byte("n"), 5, func(sum int32, err error) {
		gotSum, gotErr = sum, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x05})
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, int32(5), gotSum)
}

func TestClient_AddDouble(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotSum float64
	var gotErr error
	done := make(chan struct{})
	c.AddDouble(context.Background(), []byte("d"), 1.5, func(sum float64, err error) {
		gotSum, gotErr = sum, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, // integ = 1
		0x00, 0x00, 0x00, 0x74, 0x6a, 0x52, 0x88, 0x00, // fract = 500000000000 => 0.5
	})
	<-done

	require.NoError(t, gotErr)
	require.InDelta(t, 1.5, gotSum, 1e-6)
}

func TestClient_FwmKeys(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotKeys [][]byte
	var gotErr error
	done := make(chan struct{})
	c.FwmKeys(context.Background(), []byte("pre:"), 10, func(keys [][]byte, err error) {
		gotKeys, gotErr = keys, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x02})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x05})
	m.FeedRead([]byte("pre:a"))
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x05})
	m.FeedRead([]byte("pre:b"))
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, [][]byte{[]byte("pre:a"), []byte("pre:b")}, gotKeys)
}

func TestClient_Stat(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	var gotStat string
	var gotErr error
	done := make(chan struct{})
	c.Stat(context.Background(), func(stat string, err error) {
		gotStat, gotErr = stat, err
		close(done)
	})

	m.FeedRead([]byte{0x00})
	m.FeedRead([]byte{0x00, 0x00, 0x00, 0x07})
	m.FeedRead([]byte("version"))
	<-done

	require.NoError(t, gotErr)
	require.Equal(t, "version", gotStat)
}

func TestClient_SyncIssuesBareOpCodeFrame(t *testing.T) {
	c, m := tyrant.NewTestClient(tyrant.DefaultOptions())

	done := make(chan error, 1)
	c.Sync(context.Background(), func(err error) { done <- err })

	m.FeedRead([]byte{0x00})
	require.NoError(t, <-done)

	writes := m.Writes()
	require.Len(t, writes, 1)
	require.Len(t, writes[0].Bytes(), 2, "a t0 frame is just magic + op code")
}
