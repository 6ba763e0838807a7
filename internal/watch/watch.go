// Package watch reports changes to the files of one level directory.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rcforge/levelcore/internal/format"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the base names of the level files that changed
// during one quiet period, sorted.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher watches the directory of an engine file.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// New starts watching the directory that holds enginePath.
func New(enginePath string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(enginePath)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		debounce: debounce,
		logger:   logger.With("dir", dir),
		watcher:  fw,
	}, nil
}

// Dir is the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Close stops watching. Run returns once the event channels close.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// IsLevelFile reports whether path names one of the three level files.
func IsLevelFile(path string) bool {
	switch filepath.Base(path) {
	case format.EngineFileName, format.VramFileName, format.GameplayFileName:
		return true
	}
	return false
}

// Run calls onChange once per burst of level file events, after the
// debounce period passes with no further event. It returns when ctx is
// done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsLevelFile(event.Name) {
				continue
			}
			w.logger.Debug("Level file event", "file", event.Name, "op", event.Op.String())
			pending[filepath.Base(event.Name)] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(ctx, changed)
		}
	}
}
