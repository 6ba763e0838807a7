package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rcforge/levelcore/internal/assembler"
	"github.com/rcforge/levelcore/internal/config"
	"github.com/rcforge/levelcore/internal/logging"
	"github.com/rcforge/levelcore/internal/model/convert"
	lcotel "github.com/rcforge/levelcore/internal/otel"
	"github.com/rcforge/levelcore/internal/storage"
	"github.com/rcforge/levelcore/pkg/core"
)

var errInvalidLevel = errors.New("level is invalid")

// app holds what every command shares: logging, telemetry and the assembler.
type app struct {
	stdout io.Writer
	stderr io.Writer
	start  time.Time

	slogMgr  *logging.SlogManager
	logger   *slog.Logger
	otel     *lcotel.Provider
	files    []*os.File
	asm      *assembler.Assembler
	decoding atomic.Value
}

func newApp(configDir string, logToFile bool, stdout, stderr io.Writer) (*app, error) {
	a := &app{stdout: stdout, stderr: stderr, start: time.Now()}

	cfgErr := config.Load(configDir)
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNoConfigFile) {
		return nil, cfgErr
	}
	logsDir := config.GetString("logsDir")

	var logFile io.Writer
	if logToFile {
		f, err := a.openLog(logging.LogFilePath(logsDir, "levelcore", a.start))
		if err != nil {
			return nil, err
		}
		logFile = f
	}

	otelCfg := config.GetOTelConfig()
	providerCfg := lcotel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	}
	if otelCfg.Enabled {
		f, err := a.openLog(logging.LogFilePath(logsDir, "levelcore.otel", a.start))
		if err != nil {
			a.close()
			return nil, err
		}
		providerCfg.LogWriter = f

		mf, err := a.openLog(logging.LogFilePath(logsDir, "levelcore.metrics", a.start))
		if err != nil {
			a.close()
			return nil, err
		}
		providerCfg.MetricWriter = mf
	}
	provider, err := lcotel.New(providerCfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("setting up OTel: %w", err)
	}
	a.otel = provider

	a.slogMgr = logging.NewSlogManager().WithContext(func() []slog.Attr {
		engine, _ := a.decoding.Load().(string)
		if engine == "" {
			return nil
		}
		return []slog.Attr{slog.String("engine", engine)}
	})
	a.slogMgr.Setup(logFile, config.GetString("logLevel"), provider.LoggerProvider())
	a.logger = a.slogMgr.Logger()

	if cfgErr != nil {
		a.logger.Warn("No config file, using defaults", "dir", configDir)
	}

	var opts []assembler.Option
	if !config.GetDecodeConfig().Parallel {
		opts = append(opts, assembler.Sequential())
	}
	a.asm, err = assembler.New(a.logger, opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	a.files = append(a.files, f)
	return f, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.slogMgr != nil {
		_ = a.slogMgr.Flush(ctx)
	}
	if a.otel != nil {
		_ = a.otel.Shutdown(ctx)
	}
	for _, f := range a.files {
		_ = f.Close()
	}
	a.files = nil
}

// decode runs the assembler on one engine file and builds its manifest.
func (a *app) decode(ctx context.Context, enginePath string) (*core.Manifest, error) {
	a.decoding.Store(enginePath)
	defer a.decoding.Store("")

	res, err := a.asm.Assemble(ctx, enginePath)
	if err != nil {
		return nil, err
	}
	m := convert.LevelToManifest(res.Level, time.Now())
	a.logger.Info("Level decoded",
		"state", res.State,
		"valid", m.Valid,
		"variant", m.Variant,
		"unresolved", res.Unresolved.Total(),
		"duration", res.Duration,
	)
	return &m, nil
}

// openBackend creates and initializes the configured catalog backend.
func (a *app) openBackend() (storage.Backend, error) {
	b, err := storage.NewBackend(config.GetStorageConfig(), a.logger)
	if err != nil {
		return nil, err
	}
	if err := b.Init(); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return b, nil
}

// catalog stores m and returns the differences from the previous manifest
// of the same level when the backend can read the catalog back.
func (a *app) catalog(ctx context.Context, b storage.Backend, m *core.Manifest) ([]string, error) {
	var diff []string
	if l, ok := b.(storage.Lister); ok {
		prev, err := l.Latest(ctx, m.Path)
		switch {
		case err == nil:
			diff = prev.Diff(m)
		case errors.Is(err, core.ErrNotCatalogued):
		default:
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
	}

	if err := b.StoreManifest(ctx, m); err != nil {
		return nil, fmt.Errorf("storing manifest: %w", err)
	}
	if e, ok := b.(storage.Exporter); ok && e.LastExportPath() != "" {
		a.logger.Info("Manifest exported", "file", e.LastExportPath())
	}
	return diff, nil
}
