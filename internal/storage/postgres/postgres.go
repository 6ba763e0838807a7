// Package postgres implements the manifest catalog on a Postgres server
// through the GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/rcforge/levelcore/internal/config"
	"github.com/rcforge/levelcore/internal/database"
	gormstorage "github.com/rcforge/levelcore/internal/storage/gorm"
)

// Backend connects to Postgres on Init and delegates to the GORM backend.
type Backend struct {
	*gormstorage.Backend
	cfg    config.PostgresConfig
	logger *slog.Logger
}

// New creates a new Postgres backend; no connection is made until Init.
func New(cfg config.PostgresConfig, logger *slog.Logger) *Backend {
	return &Backend{cfg: cfg, logger: logger}
}

// Init connects, validates the connection and migrates the schema.
func (b *Backend) Init() error {
	b.logger.Debug("Connecting to Postgres", "host", b.cfg.Host, "port", b.cfg.Port, "database", b.cfg.Database)

	db, err := database.OpenPostgres(b.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres at %s:%s: %w", b.cfg.Host, b.cfg.Port, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to validate Postgres connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	b.Backend = gormstorage.New(db, b.logger)
	return b.Backend.Init()
}

// Close closes the connection if Init opened one.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
