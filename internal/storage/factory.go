// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/rcforge/levelcore/internal/config"
	"github.com/rcforge/levelcore/internal/storage/influx"
	"github.com/rcforge/levelcore/internal/storage/memory"
	"github.com/rcforge/levelcore/internal/storage/postgres"
	sqlitestorage "github.com/rcforge/levelcore/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration. Init is
// left to the caller.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres, logger), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, logger)
	case "influx":
		return influx.New(cfg.Influx, influxBackupPath(cfg), logger), nil
	case "memory", "":
		return memory.New(cfg.Memory, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func influxBackupPath(cfg config.StorageConfig) string {
	if cfg.Memory.OutputDir == "" {
		return ""
	}
	return filepath.Join(cfg.Memory.OutputDir, "influx-backup.lp.gz")
}
