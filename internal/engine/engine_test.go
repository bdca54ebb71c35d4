package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyrant-go/gotyrant/adaptor"
	"github.com/tyrant-go/gotyrant/internal/engine"
	"github.com/tyrant-go/gotyrant/internal/wire"
)

func TestEngine_GetLikeProgram(t *testing.T) {
	mock := adaptor.NewMockAdaptor()
	e := engine.New(mock)

	steps := append([]engine.Step{engine.WriteFrame(wire.T1(0x30, []byte("k")))}, engine.Success()...)
	steps = append(steps, engine.Str()...)

	var got engine.Result
	var gotErr error
	done := make(chan struct{})
	e.Do(steps, func(r engine.Result, err error) {
		got, gotErr = r, err
		close(done)
	})

	mock.FeedRead([]byte{0}) // success byte
	mock.FeedRead([]byte{0, 0, 0, 5})
	mock.FeedRead([]byte("value"))

	<-done
	require.NoError(t, gotErr)
	assert.Equal(t, engine.KindBytes, got.Kind)
	assert.Equal(t, []byte("value"), got.Bytes)

	writes := mock.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, byte(0x30), writes[0][0][1])
}

func TestEngine_FailsOnProtocolStatus(t *testing.T) {
	mock := adaptor.NewMockAdaptor()
	e := engine.New(mock)

	steps := append([]engine.Step{engine.WriteFrame(wire.T1(0x20, []byte("missing")))}, engine.Success()...)

	var gotErr error
	done := make(chan struct{})
	e.Do(steps, func(r engine.Result, err error) {
		gotErr = err
		close(done)
	})

	mock.FeedRead([]byte{1}) // nonzero status
	<-done

	require.Error(t, gotErr)
	var status *wire.ProtocolStatus
	require.ErrorAs(t, gotErr, &status)
}

func TestEngine_PipelinesCommandsInOrder(t *testing.T) {
	mock := adaptor.NewMockAdaptor()
	e := engine.New(mock)

	var order []string
	e.Do(append([]engine.Step{engine.WriteFrame(wire.T1(0x20, []byte("a")))}, engine.Success()...), func(engine.Result, error) {
		order = append(order, "a")
	})
	e.Do(append([]engine.Step{engine.WriteFrame(wire.T1(0x20, []byte("b")))}, engine.Success()...), func(engine.Result, error) {
		order = append(order, "b")
	})

	mock.FeedRead([]byte{0})
	mock.FeedRead([]byte{0})

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestEngine_FramingErrorOnOversizedLength(t *testing.T) {
	mock := adaptor.NewMockAdaptor()
	e := engine.New(mock)

	steps := append([]engine.Step{engine.WriteFrame(wire.T1(0x30, []byte("k")))}, engine.Success()...)
	steps = append(steps, engine.Str()...)

	var gotErr error
	done := make(chan struct{})
	e.Do(steps, func(r engine.Result, err error) {
		gotErr = err
		close(done)
	})

	mock.FeedRead([]byte{0})
	mock.FeedRead([]byte{0xff, 0xff, 0xff, 0xff})
	<-done

	require.Error(t, gotErr)
	var fe *wire.FramingError
	require.ErrorAs(t, gotErr, &fe)
}
