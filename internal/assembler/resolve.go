package assembler

import (
	"context"

	"github.com/rcforge/levelcore/internal/cache"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/worker"
)

// Unresolved is the count of references the resolution pass left unbound, per kind.
type Unresolved map[string]int

// Total returns the sum over all kinds.
func (u Unresolved) Total() int {
	n := 0
	for _, v := range u {
		n += v
	}
	return n
}

// resolve binds every instance model reference of l through one index built
// from the model lists. Each kind writes only its own list.
func resolve(ctx context.Context, pool *worker.Manager, l *level.Level) (Unresolved, error) {
	idx := cache.BuildModelIndex(l)
	counters := map[string]*cache.SafeCounter{
		"moby":    {},
		"tie":     {},
		"shrub":   {},
		"terrain": {},
	}

	tasks := []worker.Task{
		{Name: "resolve mobies", Run: func(context.Context) error {
			for i := range l.Mobies {
				if !idx.Resolve(level.CategoryMoby, &l.Mobies[i].Model) {
					counters["moby"].Inc()
				}
			}
			return nil
		}},
		{Name: "resolve ties", Run: func(context.Context) error {
			for i := range l.Ties {
				if !idx.Resolve(level.CategoryTie, &l.Ties[i].Model) {
					counters["tie"].Inc()
				}
			}
			return nil
		}},
		{Name: "resolve shrubs", Run: func(context.Context) error {
			for i := range l.Shrubs {
				if !idx.Resolve(level.CategoryShrub, &l.Shrubs[i].Model) {
					counters["shrub"].Inc()
				}
			}
			return nil
		}},
		{Name: "resolve terrain", Run: func(context.Context) error {
			for i := range l.TerrainElements {
				if !idx.Resolve(level.CategoryTerrain, &l.TerrainElements[i].Fragment) {
					counters["terrain"].Inc()
				}
			}
			return nil
		}},
	}
	if err := pool.Run(ctx, tasks); err != nil {
		return nil, err
	}

	out := make(Unresolved, len(counters))
	for kind, c := range counters {
		if n := c.Value(); n > 0 {
			out[kind] = n
		}
	}
	return out, nil
}
