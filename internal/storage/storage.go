// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rcforge/levelcore/pkg/core"
)

// Backend is the interface all manifest catalog implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// StoreManifest records one decode of a level.
	StoreManifest(ctx context.Context, m *core.Manifest) error
}

// Lister is an optional interface for backends that can read the catalog back.
type Lister interface {
	// Manifests returns every stored manifest, oldest first.
	Manifests(ctx context.Context) ([]core.Manifest, error)
	// Latest returns the newest manifest stored for a level directory,
	// or core.ErrNotCatalogued.
	Latest(ctx context.Context, path string) (*core.Manifest, error)
}

// Exporter is an optional interface for backends that write manifest files.
type Exporter interface {
	LastExportPath() string
}
