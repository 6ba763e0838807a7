package cache

import (
	"sync"

	"github.com/rcforge/levelcore/internal/level"
)

// ModelIndex maps model IDs to decoded models, one map per category, so the
// resolution pass binds instance references without rescanning model lists.
type ModelIndex struct {
	m      sync.RWMutex
	models map[level.Category]map[int32]*level.StaticModel
}

func NewModelIndex() *ModelIndex {
	idx := &ModelIndex{
		models: make(map[level.Category]map[int32]*level.StaticModel, len(level.Categories)),
	}
	for _, c := range level.Categories {
		idx.models[c] = make(map[int32]*level.StaticModel)
	}
	return idx
}

// BuildModelIndex indexes every model list of l.
func BuildModelIndex(l *level.Level) *ModelIndex {
	idx := NewModelIndex()
	for _, c := range level.Categories {
		for _, m := range l.Models(c) {
			idx.Add(m)
		}
	}
	return idx
}

// Add indexes m under its category. It reports false when the ID is already taken.
func (c *ModelIndex) Add(m *level.StaticModel) bool {
	c.m.Lock()
	defer c.m.Unlock()
	byID, ok := c.models[m.Category]
	if !ok {
		byID = make(map[int32]*level.StaticModel)
		c.models[m.Category] = byID
	}
	if _, dup := byID[m.ID]; dup {
		return false
	}
	byID[m.ID] = m
	return true
}

func (c *ModelIndex) Get(cat level.Category, id int32) (*level.StaticModel, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	if m, ok := c.models[cat][id]; ok {
		return m, true
	}
	return nil, false
}

// Resolve binds ref to the model with its ID in category cat.
// An unknown ID leaves ref unresolved.
func (c *ModelIndex) Resolve(cat level.Category, ref *level.ModelRef) bool {
	m, ok := c.Get(cat, ref.ID)
	ref.Model = m
	return ok
}

// Len returns the number of models indexed under cat.
func (c *ModelIndex) Len(cat level.Category) int {
	c.m.RLock()
	defer c.m.RUnlock()
	return len(c.models[cat])
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
