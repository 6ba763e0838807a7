// Package influx writes one point per manifest to InfluxDB. When the
// server cannot be reached the points go to a gzipped line protocol
// backup file instead.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/klauspost/compress/gzip"

	"github.com/rcforge/levelcore/internal/config"
	"github.com/rcforge/levelcore/pkg/core"
)

// Measurement is the name of the manifest points.
const Measurement = "level_manifest"

const pingTimeout = 5 * time.Second

// Backend writes manifests as points to one bucket.
type Backend struct {
	cfg        config.InfluxConfig
	backupPath string
	logger     *slog.Logger

	client       influxdb2.Client
	writer       influxdb2_api.WriteAPIBlocking
	backupFile   *os.File
	backupWriter *gzip.Writer
	mu           sync.Mutex
}

// New creates the backend. backupPath receives points when the server is
// unreachable; empty disables the fallback.
func New(cfg config.InfluxConfig, backupPath string, logger *slog.Logger) *Backend {
	return &Backend{cfg: cfg, backupPath: backupPath, logger: logger}
}

// URL is the server address built from the configuration.
func (b *Backend) URL() string {
	return fmt.Sprintf("%s://%s:%s", b.cfg.Protocol, b.cfg.Host, b.cfg.Port)
}

// Init connects and ensures the organization and bucket exist, or opens
// the backup file when the server does not answer.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(b.URL(), b.cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(uint(pingTimeout.Seconds())))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	// validate client connection health
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		if b.backupPath == "" {
			b.client.Close()
			return fmt.Errorf("InfluxDB at %s is not reachable: %v", b.URL(), err)
		}
		b.logger.Warn("InfluxDB not reachable, writing to backup file", "url", b.URL(), "backupPath", b.backupPath)
		return b.openBackup()
	}

	if err := b.setupOrganizationAndBucket(context.Background()); err != nil {
		return err
	}
	b.writer = b.client.WriteAPIBlocking(b.cfg.Org, b.cfg.Bucket)
	b.logger.Info("InfluxDB client initialized", "url", b.URL(), "bucket", b.cfg.Bucket)
	return nil
}

func (b *Backend) openBackup() error {
	if err := os.MkdirAll(filepath.Dir(b.backupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %v", err)
	}
	file, err := os.OpenFile(b.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %v", err)
	}
	b.backupFile = file
	b.backupWriter = gzip.NewWriter(file)
	return nil
}

func (b *Backend) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := b.client.OrganizationsAPI()

	// ensure org exists
	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.logger.Info("Organization not found, creating", "org", b.cfg.Org)
		org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", b.cfg.Org, err)
		}
	}

	// ensure bucket exists with 90 day retention
	if _, err := b.client.BucketsAPI().FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.logger.Info("Bucket not found, creating", "bucket", b.cfg.Bucket)

		rule := domain.RetentionRuleTypeExpire
		_, err = b.client.BucketsAPI().CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

// Close flushes the backup file and closes the client.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.backupWriter != nil {
		err = b.backupWriter.Close()
		if cerr := b.backupFile.Close(); err == nil {
			err = cerr
		}
		b.backupWriter, b.backupFile = nil, nil
	}
	if b.client != nil {
		b.client.Close()
	}
	return err
}

// StoreManifest writes one point to the server or to the backup file.
func (b *Backend) StoreManifest(ctx context.Context, m *core.Manifest) error {
	point := ManifestPoint(m)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.writer != nil:
		if err := b.writer.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("error sending manifest to InfluxDB: %w", err)
		}
	case b.backupWriter != nil:
		lineProtocol := strings.TrimSuffix(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
		if _, err := b.backupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
		}
	default:
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	return nil
}

// ManifestPoint converts a manifest to a point tagged by level path and
// variant, with one field per count.
func ManifestPoint(m *core.Manifest) *influxdb2_write.Point {
	p := influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("path", m.Path).
		AddTag("variant", m.Variant).
		AddField("valid", m.Valid).
		AddField("digest", m.Digest()).
		AddField("unresolved", m.Unresolved).
		AddField("blobs", len(m.Blobs)).
		AddField("textures_total", m.Textures.Total).
		AddField("textures_filled", m.Textures.Filled).
		AddField("vram_orphans", m.Textures.Orphans).
		AddField("payload_bytes", m.Textures.PayloadBytes).
		SetTime(m.DecodedAt)

	for k, v := range m.Models {
		p.AddField("models_"+k, v)
	}
	for k, v := range m.Instances {
		p.AddField("instances_"+k, v)
	}
	return p
}
