// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/rcforge/levelcore/internal/config"
	"github.com/rcforge/levelcore/pkg/core"
)

// Backend keeps manifests in memory and exports each one to a JSON file
type Backend struct {
	cfg         config.MemoryConfig
	compression Compression
	logger      *slog.Logger

	manifests      []core.Manifest
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend. An empty OutputDir keeps manifests in
// memory only.
func New(cfg config.MemoryConfig, logger *slog.Logger) *Backend {
	return &Backend{
		cfg:    cfg,
		logger: logger,
	}
}

// Init validates the settings and creates the output directory
func (b *Backend) Init() error {
	c, err := ParseCompression(b.cfg.Compression)
	if err != nil {
		return err
	}
	b.compression = c

	if b.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StoreManifest keeps a copy of m and exports it when an output directory is set
func (b *Backend) StoreManifest(ctx context.Context, m *core.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.manifests = append(b.manifests, cloneManifest(m))

	if b.cfg.OutputDir == "" {
		return nil
	}
	path, err := b.export(m)
	if err != nil {
		return err
	}
	b.lastExportPath = path
	b.logger.Debug("Exported manifest", "path", path, "level", m.Path)
	return nil
}

// Manifests returns every stored manifest, oldest first
func (b *Backend) Manifests(ctx context.Context) ([]core.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Manifest, len(b.manifests))
	for i := range b.manifests {
		out[i] = cloneManifest(&b.manifests[i])
	}
	return out, nil
}

// Latest returns the newest manifest stored for a level directory
func (b *Backend) Latest(ctx context.Context, path string) (*core.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := len(b.manifests) - 1; i >= 0; i-- {
		if b.manifests[i].Path == path {
			m := cloneManifest(&b.manifests[i])
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrNotCatalogued, path)
}

// LastExportPath returns the file written by the latest StoreManifest
func (b *Backend) LastExportPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func cloneManifest(m *core.Manifest) core.Manifest {
	out := *m
	out.Models = cloneCounts(m.Models)
	out.Instances = cloneCounts(m.Instances)
	out.Blobs = append([]core.BlobDigest(nil), m.Blobs...)
	return out
}

func cloneCounts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
