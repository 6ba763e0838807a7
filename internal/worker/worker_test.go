package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_RunsEveryTask(t *testing.T) {
	for _, sequential := range []bool{true, false} {
		m := NewManager(quietLogger(), sequential, 0)
		results := make([]int, 8)
		var tasks []Task
		for i := range results {
			tasks = append(tasks, Task{Name: "task", Run: func(context.Context) error {
				results[i] = i * i
				return nil
			}})
		}

		require.NoError(t, m.Run(context.Background(), tasks))
		assert.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49}, results)
	}
}

func TestManager_SequentialStopsAtFirstError(t *testing.T) {
	m := NewManager(quietLogger(), true, 0)
	boom := errors.New("boom")
	var ran []string

	err := m.Run(context.Background(), []Task{
		{Name: "a", Run: func(context.Context) error { ran = append(ran, "a"); return nil }},
		{Name: "b", Run: func(context.Context) error { ran = append(ran, "b"); return boom }},
		{Name: "c", Run: func(context.Context) error { ran = append(ran, "c"); return nil }},
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestManager_ConcurrentReturnsFailure(t *testing.T) {
	m := NewManager(quietLogger(), false, 2)
	boom := errors.New("boom")
	var done atomic.Int32

	tasks := []Task{{Name: "fail", Run: func(context.Context) error { return boom }}}
	for i := 0; i < 5; i++ {
		tasks = append(tasks, Task{Name: "ok", Run: func(context.Context) error {
			done.Add(1)
			return nil
		}})
	}

	assert.ErrorIs(t, m.Run(context.Background(), tasks), boom)
	assert.LessOrEqual(t, done.Load(), int32(5))
}

func TestManager_LimitCapsConcurrency(t *testing.T) {
	m := NewManager(quietLogger(), false, 2)
	var mu sync.Mutex
	active, peak := 0, 0
	gate := make(chan struct{})

	var tasks []Task
	for i := 0; i < 6; i++ {
		tasks = append(tasks, Task{Name: "slow", Run: func(context.Context) error {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			<-gate
			mu.Lock()
			active--
			mu.Unlock()
			return nil
		}})
	}
	go close(gate)

	require.NoError(t, m.Run(context.Background(), tasks))
	assert.LessOrEqual(t, peak, 2)
}

func TestManager_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, sequential := range []bool{true, false} {
		m := NewManager(quietLogger(), sequential, 0)
		err := m.Run(ctx, []Task{{Name: "never", Run: func(context.Context) error { return nil }}})
		assert.ErrorIs(t, err, context.Canceled)
	}
}
