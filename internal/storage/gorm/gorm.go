// Package gormstorage implements the manifest catalog on any GORM dialect.
// The sqlite and postgres backends embed it and add connection handling.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/rcforge/levelcore/internal/database"
	"github.com/rcforge/levelcore/internal/model"
	"github.com/rcforge/levelcore/internal/model/convert"
	"github.com/rcforge/levelcore/pkg/core"
)

// Backend stores manifests as model.Level rows with their model.Blob rows
type Backend struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New wraps an open database. Init migrates the schema.
func New(db *gorm.DB, logger *slog.Logger) *Backend {
	return &Backend{db: db, logger: logger}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the catalog tables
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("database not connected")
	}
	if err := database.Migrate(b.db); err != nil {
		return err
	}
	b.logger.Info("Catalog schema ready", "dialect", b.db.Dialector.Name())
	return nil
}

// Close closes the underlying connection
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// StoreManifest inserts the level row and its blob rows in one transaction
func (b *Backend) StoreManifest(ctx context.Context, m *core.Manifest) error {
	row := convert.ManifestToLevel(*m)
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store manifest for %s: %w", m.Path, err)
	}
	b.logger.Debug("Stored manifest", "level", m.Path, "id", row.ID, "blobs", len(row.Blobs))
	return nil
}

// Manifests returns every stored manifest, oldest first
func (b *Backend) Manifests(ctx context.Context) ([]core.Manifest, error) {
	var rows []model.Level
	err := b.db.WithContext(ctx).
		Preload("Blobs", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}

	out := make([]core.Manifest, 0, len(rows))
	for _, row := range rows {
		m, err := convert.LevelToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Latest returns the newest manifest stored for a level directory
func (b *Backend) Latest(ctx context.Context, path string) (*core.Manifest, error) {
	var row model.Level
	err := b.db.WithContext(ctx).
		Preload("Blobs", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("path = ?", path).
		Order("id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotCatalogued, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest for %s: %w", path, err)
	}

	m, err := convert.LevelToCore(row)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
