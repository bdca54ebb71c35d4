//go:build linux

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tyrant "github.com/tyrant-go/gotyrant"
	"github.com/tyrant-go/gotyrant/internal/fakeserver"
)

func startServer(t *testing.T) *fakeserver.Server {
	t.Helper()
	srv, err := fakeserver.ListenAndServe("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func dial(t *testing.T, srv *fakeserver.Server) *tyrant.Client {
	t.Helper()
	opts := tyrant.DefaultOptions()
	opts.DialTimeout = 2 * time.Second
	c, err := tyrant.Dial(srv.Addr().String(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIntegration_PutThenGet(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	putDone := make(chan error, 1)
	c.Put(ctx, []byte("greeting"), []byte("hello"), func(err error) { putDone <- err })
	require.NoError(t, <-putDone)

	type getResult struct {
		value []byte
		err   error
	}
	getDone := make(chan getResult, 1)
	c.Get(ctx, []byte("greeting"), func(value []byte, err error) { getDone <- getResult{value, err} })
	res := <-getDone

	require.NoError(t, res.err)
	require.Equal(t, "hello", string(res.value))
}

func TestIntegration_GetMissingKeyReportsProtocolStatus(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type getResult struct {
		value []byte
		err   error
	}
	done := make(chan getResult, 1)
	c.Get(ctx, []byte("nope"), func(value []byte, err error) { done <- getResult{value, err} })
	res := <-done

	require.Error(t, res.err)
	var tErr *tyrant.Error
	require.ErrorAs(t, res.err, &tErr)
	require.Equal(t, tyrant.KindProtocol, tErr.Kind)
}

func TestIntegration_RNumReflectsStoredRecords(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, k := range []string{"a", "b", "c"} {
		done := make(chan error, 1)
		c.Put(ctx, []byte(k), []byte("v"), func(err error) { done <- err })
		require.NoError(t, <-done)
	}

	type rnumResult struct {
		n   uint64
		err error
	}
	done := make(chan rnumResult, 1)
	c.RNum(ctx, func(n uint64, err error) { done <- rnumResult{n, err} })
	res := <-done

	require.NoError(t, res.err)
	require.Equal(t, uint64(3), res.n)
}

func TestIntegration_PipelinedPutThenGet(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	putDone := make(chan error, 1)
	c.Put(ctx, []byte("k"), []byte("v1"), func(err error) { putDone <- err })

	type getResult struct {
		value []byte
		err   error
	}
	getDone := make(chan getResult, 1)
	c.Get(ctx, []byte("k"), func(value []byte, err error) { getDone <- getResult{value, err} })

	require.NoError(t, <-putDone)
	res := <-getDone
	require.NoError(t, res.err)
	require.Equal(t, "v1", string(res.value))
}

func TestIntegration_ChunkedLargeValueRoundTrips(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	big := make([]byte, 256*1024)
	for i := range big {
		big[i] = byte(i)
	}

	putDone := make(chan error, 1)
	c.Put(ctx, []byte("bigkey"), big, func(err error) { putDone <- err })
	require.NoError(t, <-putDone)

	type getResult struct {
		value []byte
		err   error
	}
	getDone := make(chan getResult, 1)
	c.Get(ctx, []byte("bigkey"), func(value []byte, err error) { getDone <- getResult{value, err} })
	res := <-getDone

	require.NoError(t, res.err)
	require.Equal(t, big, res.value)
}

func TestIntegration_VanishClearsAllRecords(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	c.Put(ctx, []byte("k"), []byte("v"), func(err error) { done <- err })
	require.NoError(t, <-done)

	vanishDone := make(chan error, 1)
	c.Vanish(ctx, func(err error) { vanishDone <- err })
	require.NoError(t, <-vanishDone)

	type rnumResult struct {
		n   uint64
		err error
	}
	rnumDone := make(chan rnumResult, 1)
	c.RNum(ctx, func(n uint64, err error) { rnumDone <- rnumResult{n, err} })
	res := <-rnumDone

	require.NoError(t, res.err)
	require.Equal(t, uint64(0), res.n)
}
