package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func startWatcher(t *testing.T) (string, <-chan []string) {
	t.Helper()
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "engine.ps3"), testDebounce, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, dir, w.Dir())

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			changes <- changed
		})
	}()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		w.Close()
	})
	return dir, changes
}

func TestIsLevelFile(t *testing.T) {
	assert.True(t, IsLevelFile("/a/b/engine.ps3"))
	assert.True(t, IsLevelFile("vram.ps3"))
	assert.True(t, IsLevelFile(filepath.Join("x", "gameplay_ntsc")))
	assert.False(t, IsLevelFile("/a/b/engine.ps3.bak"))
	assert.False(t, IsLevelFile("notes.txt"))
}

func TestRun_DebouncesBurst(t *testing.T) {
	dir, changes := startWatcher(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "vram.ps3"), []byte{byte(i)}, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine.ps3"), []byte{1}, 0644))

	select {
	case got := <-changes:
		assert.Equal(t, []string{"engine.ps3", "vram.ps3"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case got := <-changes:
		t.Fatalf("unexpected second report %v", got)
	case <-time.After(4 * testDebounce):
	}
}

func TestRun_IgnoresOtherFiles(t *testing.T) {
	dir, changes := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	select {
	case got := <-changes:
		t.Fatalf("unexpected report %v", got)
	case <-time.After(6 * testDebounce):
	}
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "engine.ps3"), 0, slog.Default())
	assert.Error(t, err)
}
