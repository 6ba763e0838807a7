// Package worker runs the independent decode tasks of one file.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of decode work. Tasks of a batch must write disjoint state.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Manager runs batches of tasks either concurrently or one after another.
type Manager struct {
	logger     *slog.Logger
	sequential bool
	limit      int
}

// NewManager creates a manager. limit caps the goroutines of a batch; 0 means no cap.
func NewManager(logger *slog.Logger, sequential bool, limit int) *Manager {
	return &Manager{
		logger:     logger,
		sequential: sequential,
		limit:      limit,
	}
}

// Run executes every task and returns the first failure. In concurrent mode
// the remaining tasks see a cancelled context once a task fails, and Run
// returns only after all started tasks have finished.
func (m *Manager) Run(ctx context.Context, tasks []Task) error {
	start := time.Now()
	defer func() {
		m.logger.Debug("Task batch finished",
			"tasks", len(tasks),
			"sequential", m.sequential,
			"duration", time.Since(start))
	}()

	if m.sequential {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			if err := t.Run(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if m.limit > 0 {
		g.SetLimit(m.limit)
	}
	for _, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			return t.Run(gctx)
		})
	}
	return g.Wait()
}
