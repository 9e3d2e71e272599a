package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgorman/ephemera/pkg/container"
)

func startFake(t *testing.T, rt *fakeRuntime, image string, script logScript) string {
	t.Helper()
	rt.scripts[image] = script
	ctx := context.Background()
	id, err := rt.Create(ctx, container.RunConfig{Name: "abcdefghij", Image: image})
	require.NoError(t, err)
	require.NoError(t, rt.Start(ctx, id))
	return "abcdefghij"
}

func TestWaitReady(t *testing.T) {
	t.Run("marker seen returns before deadline", func(t *testing.T) {
		rt := newFakeRuntime()
		name := startFake(t, rt, "svc:latest", logScript{
			lines:    []string{"booting", "db connected", "HTTP server listening on :9000"},
			keepOpen: true,
		})

		start := time.Now()
		state, err := WaitReady(context.Background(), rt, name, "listening", 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, Ready, state)
		assert.Less(t, time.Since(start), time.Second, "must not wait for the deadline")
	})

	t.Run("marker match is case-sensitive", func(t *testing.T) {
		rt := newFakeRuntime()
		name := startFake(t, rt, "svc:latest", logScript{lines: []string{"LISTENING"}})

		state, err := WaitReady(context.Background(), rt, name, "listening", time.Second)
		assert.Equal(t, StreamEnded, state)
		assert.ErrorIs(t, err, ErrReadinessStreamEnded)
	})

	t.Run("open stream without marker times out at the deadline", func(t *testing.T) {
		rt := newFakeRuntime()
		name := startFake(t, rt, "svc:latest", logScript{lines: []string{"warming up"}, keepOpen: true})

		const timeout = 200 * time.Millisecond
		start := time.Now()
		state, err := WaitReady(context.Background(), rt, name, "listening", timeout)
		elapsed := time.Since(start)

		assert.Equal(t, TimedOut, state)
		assert.ErrorIs(t, err, ErrReadinessTimeout)
		assert.False(t, errors.Is(err, ErrReadinessStreamEnded))
		assert.GreaterOrEqual(t, elapsed, timeout, "must not time out early")
		assert.Less(t, elapsed, timeout+time.Second)
	})

	t.Run("closed stream without marker is stream ended", func(t *testing.T) {
		rt := newFakeRuntime()
		name := startFake(t, rt, "svc:latest", logScript{lines: []string{"fatal: missing DATABASE_URL"}})

		start := time.Now()
		state, err := WaitReady(context.Background(), rt, name, "listening", 5*time.Second)

		assert.Equal(t, StreamEnded, state)
		assert.ErrorIs(t, err, ErrReadinessStreamEnded)
		assert.False(t, errors.Is(err, ErrReadinessTimeout))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("log attach failure is stream ended", func(t *testing.T) {
		rt := newFakeRuntime()
		state, err := WaitReady(context.Background(), rt, "missing", "listening", time.Second)

		assert.Equal(t, StreamEnded, state)
		assert.ErrorIs(t, err, ErrReadinessStreamEnded)
		assert.ErrorIs(t, err, container.ErrNotFound)
	})

	t.Run("caller cancellation", func(t *testing.T) {
		rt := newFakeRuntime()
		name := startFake(t, rt, "svc:latest", logScript{keepOpen: true})

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		state, err := WaitReady(ctx, rt, name, "listening", 5*time.Second)
		assert.Equal(t, Pending, state)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty marker rejected", func(t *testing.T) {
		rt := newFakeRuntime()
		state, err := WaitReady(context.Background(), rt, "abcdefghij", "", time.Second)
		assert.Equal(t, Pending, state)
		require.Error(t, err)

		var lerr *Error
		assert.False(t, errors.As(err, &lerr), "argument errors carry no lifecycle kind")
	})

	t.Run("oversized line does not end the wait", func(t *testing.T) {
		rt := newFakeRuntime()
		name := startFake(t, rt, "svc:latest", logScript{
			lines:    []string{strings.Repeat("x", 2*maxLogLine), "listening"},
			keepOpen: true,
		})

		state, err := WaitReady(context.Background(), rt, name, "listening", 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, Ready, state)
	})

	t.Run("marker at the start of an oversized line", func(t *testing.T) {
		rt := newFakeRuntime()
		name := startFake(t, rt, "svc:latest", logScript{
			lines:    []string{"listening " + strings.Repeat("x", 2*maxLogLine)},
			keepOpen: true,
		})

		state, err := WaitReady(context.Background(), rt, name, "listening", 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, Ready, state)
	})
}

func TestReadinessState(t *testing.T) {
	tests := []struct {
		state    ReadinessState
		name     string
		terminal bool
	}{
		{Pending, "pending", false},
		{Ready, "ready", true},
		{TimedOut, "timed out", true},
		{StreamEnded, "stream ended", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.state.String())
			assert.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}
