// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database that is written to disk via VACUUM INTO on close.
// It wraps the GORM backend via composition.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rcforge/levelcore/internal/config"
	"github.com/rcforge/levelcore/internal/database"
	gormstorage "github.com/rcforge/levelcore/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg    config.SQLiteConfig
	logger *slog.Logger
}

// New creates a new SQLite storage backend.
func New(cfg config.SQLiteConfig, logger *slog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(db, logger),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Dump writes the in-memory database to the configured path.
// VACUUM INTO creates a point-in-time snapshot.
func (b *Backend) Dump() error {
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.Path); err != nil {
		return err
	}
	b.logger.Debug("Dumped catalog to disk", "path", b.cfg.Path, "duration", time.Since(start))
	return nil
}

// Close dumps the catalog when a path is set, then closes the database.
func (b *Backend) Close() error {
	if b.cfg.Path != "" {
		if err := b.Dump(); err != nil {
			b.logger.Error("Error dumping catalog to disk", "path", b.cfg.Path, "error", err)
			b.Backend.Close()
			return err
		}
	}
	return b.Backend.Close()
}
