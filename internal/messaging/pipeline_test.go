package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/shorturl/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func startPipeline(t *testing.T, handler messaging.Handler[testPayload]) *messaging.Pipeline[testPayload] {
	t.Helper()

	pipeline := messaging.NewPipeline("test.topic", handler, zap.NewNop())
	require.NoError(t, pipeline.Start(context.Background()))

	t.Cleanup(func() { _ = pipeline.Close() })

	return pipeline
}

func TestPipeline_Send(t *testing.T) {
	t.Run("delivers payloads in order before returning", func(t *testing.T) {
		var received []testPayload

		pipeline := startPipeline(t, func(_ context.Context, p *testPayload) error {
			received = append(received, *p)

			return nil
		})

		for i := range 3 {
			require.NoError(t, pipeline.Send(context.Background(), &testPayload{ID: i, Name: "entry"}))
			// Send blocks until the handler is done.
			assert.Len(t, received, i+1)
		}

		assert.Equal(t, []int{0, 1, 2}, []int{received[0].ID, received[1].ID, received[2].ID})
		assert.Equal(t, messaging.Stats{Handled: 3}, pipeline.Stats())
	})

	t.Run("counts rejected payloads without redelivering them", func(t *testing.T) {
		calls := 0

		pipeline := startPipeline(t, func(_ context.Context, p *testPayload) error {
			calls++

			if p.ID == 1 {
				return errors.New("bad payload")
			}

			return nil
		})

		for i := range 3 {
			require.NoError(t, pipeline.Send(context.Background(), &testPayload{ID: i}))
		}

		assert.Equal(t, 3, calls)
		assert.Equal(t, messaging.Stats{Handled: 3, Rejected: 1}, pipeline.Stats())
	})

	t.Run("refuses cancelled contexts", func(t *testing.T) {
		pipeline := startPipeline(t, func(context.Context, *testPayload) error { return nil })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := pipeline.Send(ctx, &testPayload{})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, pipeline.Stats().Handled)
	})

	t.Run("fails after close", func(t *testing.T) {
		pipeline := messaging.NewPipeline("test.topic", func(context.Context, *testPayload) error { return nil }, zap.NewNop())
		require.NoError(t, pipeline.Start(context.Background()))
		require.NoError(t, pipeline.Close())

		assert.Error(t, pipeline.Send(context.Background(), &testPayload{}))
	})
}

func TestPipeline_Close(t *testing.T) {
	t.Run("without start", func(t *testing.T) {
		pipeline := messaging.NewPipeline("test.topic", func(context.Context, *testPayload) error { return nil }, zap.NewNop())

		assert.NoError(t, pipeline.Close())
	})

	t.Run("after start", func(t *testing.T) {
		pipeline := messaging.NewPipeline("test.topic", func(context.Context, *testPayload) error { return nil }, zap.NewNop())
		require.NoError(t, pipeline.Start(context.Background()))

		assert.NoError(t, pipeline.Close())
	})
}
