// Package assembler runs the engine, vram and gameplay decoders of one level
// in order and builds the Level aggregate.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/engine"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/gameplay"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/vram"
	"github.com/rcforge/levelcore/internal/worker"
)

// Option configures an Assembler.
type Option func(*config)

type config struct {
	sequential bool
}

// Sequential runs every decode batch one task at a time.
func Sequential() Option {
	return func(c *config) {
		c.sequential = true
	}
}

// Result is the outcome of one decode attempt.
type Result struct {
	Level      *level.Level
	State      State
	Unresolved Unresolved
	Duration   time.Duration
}

// Assembler decodes levels. It holds no per-level state and may be reused.
type Assembler struct {
	logger *slog.Logger
	cfg    config

	// OTEL metrics
	decodes    metric.Int64Counter
	duration   metric.Float64Histogram
	unresolved metric.Int64Counter
}

// New creates an Assembler. Metrics go to the global OTel meter provider.
func New(logger *slog.Logger, opts ...Option) (*Assembler, error) {
	a := &Assembler{logger: logger}
	for _, opt := range opts {
		opt(&a.cfg)
	}

	m := meter()
	var err error

	a.decodes, err = m.Int64Counter(
		"levelcore.decode.total",
		metric.WithDescription("Level decode attempts by final state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decode counter: %w", err)
	}

	a.duration, err = m.Float64Histogram(
		"levelcore.decode.duration",
		metric.WithDescription("Wall time of one level decode"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	a.unresolved, err = m.Int64Counter(
		"levelcore.references.unresolved",
		metric.WithDescription("Instance model references without a matching model"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unresolved counter: %w", err)
	}

	return a, nil
}

// Decode decodes the level whose engine file is at enginePath and returns
// the aggregate. A missing or unreadable vram file gives an invalid Level
// and a nil error; every other failure is a *format.DecodeError.
func (a *Assembler) Decode(ctx context.Context, enginePath string) (*level.Level, error) {
	res, err := a.Assemble(ctx, enginePath)
	if err != nil {
		return nil, err
	}
	return res.Level, nil
}

// Assemble is Decode with the final state and resolution report.
func (a *Assembler) Assemble(ctx context.Context, enginePath string) (*Result, error) {
	start := time.Now()
	dir := filepath.Dir(enginePath)
	run := &decodeRun{
		a:      a,
		logger: a.logger.With("level", dir),
		res:    &Result{State: StateStart},
		pool:   worker.NewManager(a.logger, a.cfg.sequential, 0),
	}

	err := run.execute(ctx, enginePath)
	run.res.Duration = time.Since(start)

	attrs := metric.WithAttributes(
		attribute.String("state", run.res.State.String()),
		attribute.Bool("failed", err != nil),
	)
	a.decodes.Add(ctx, 1, attrs)
	a.duration.Record(ctx, run.res.Duration.Seconds(), attrs)

	if err != nil {
		run.logger.Error("Level decode failed", "state", run.res.State, "error", err)
		return nil, err
	}
	return run.res, nil
}

type decodeRun struct {
	a      *Assembler
	logger *slog.Logger
	res    *Result
	pool   *worker.Manager
}

func (r *decodeRun) advance(next State) {
	if !r.res.State.CanAdvance(next) {
		panic(fmt.Sprintf("assembler: illegal transition %s -> %s", r.res.State, next))
	}
	r.logger.Debug("Decode stage reached", "from", r.res.State, "to", next)
	r.res.State = next
}

func fail(file format.FileKind, path, stage string, err error) error {
	return &format.DecodeError{File: file, Path: path, Stage: stage, Err: err}
}

func (r *decodeRun) execute(ctx context.Context, enginePath string) error {
	dir := filepath.Dir(enginePath)
	var engineOpts []engine.Option
	var gameplayOpts []gameplay.Option
	if r.a.cfg.sequential {
		engineOpts = append(engineOpts, engine.Sequential())
		gameplayOpts = append(gameplayOpts, gameplay.Sequential())
	}

	// Engine file.
	engineSrc, err := binfile.Open(enginePath)
	if err != nil {
		return fail(format.FileEngine, enginePath, "open", err)
	}
	defer engineSrc.Close()

	eng := engine.New(engineSrc, r.logger, engineOpts...)
	if _, err := eng.DetectGameVariant(); err != nil {
		return fail(format.FileEngine, enginePath, "detect variant", err)
	}
	engineRes, err := eng.DecodeAll(ctx)
	if err != nil {
		return fail(format.FileEngine, enginePath, "decode", err)
	}
	lvl := &level.Level{Path: dir}
	engineRes.Apply(lvl)
	r.advance(StateEngineDecoded)

	// Vram file. Missing pixel data aborts the level without an error.
	vramPath := filepath.Join(dir, format.VramFileName)
	vd, err := vram.Open(vramPath, r.logger)
	if err != nil {
		if errors.Is(err, format.ErrNotFound) || errors.Is(err, format.ErrIoFailure) {
			r.logger.Warn("Vram file unavailable, level marked invalid", "path", vramPath, "error", err)
			r.advance(StateAborted)
			r.res.Level = level.Invalid(dir, lvl.Variant)
			return nil
		}
		return fail(format.FileVram, vramPath, "open", err)
	}
	defer vd.Close()

	orphans, err := vd.Fill(lvl.Textures)
	if err != nil {
		if errors.Is(err, format.ErrIoFailure) {
			r.logger.Warn("Vram file unreadable, level marked invalid", "path", vramPath, "error", err)
			r.advance(StateAborted)
			r.res.Level = level.Invalid(dir, lvl.Variant)
			return nil
		}
		return fail(format.FileVram, vramPath, "fill", err)
	}
	lvl.VramOrphans = orphans
	r.advance(StateVramChecked)

	// Gameplay file.
	gameplayPath := filepath.Join(dir, format.GameplayFileName)
	gameplaySrc, err := binfile.Open(gameplayPath)
	if err != nil {
		return fail(format.FileGameplay, gameplayPath, "open", err)
	}
	defer gameplaySrc.Close()

	gp := gameplay.New(gameplaySrc, lvl.Variant, r.logger, gameplayOpts...)
	if _, err := gp.Layout(); err != nil {
		return fail(format.FileGameplay, gameplayPath, "detect variant", err)
	}
	gameplayRes, err := gp.DecodeAll(ctx)
	if err != nil {
		return fail(format.FileGameplay, gameplayPath, "decode", err)
	}
	gameplayRes.Apply(lvl)
	r.advance(StateGameplayDecoded)

	// Cross-file references.
	unresolved, err := resolve(ctx, r.pool, lvl)
	if err != nil {
		return fail(format.FileGameplay, gameplayPath, "resolve", err)
	}
	for kind, n := range unresolved {
		r.a.unresolved.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
	}
	if total := unresolved.Total(); total > 0 {
		r.logger.Warn("Unresolved model references", "total", total, "byKind", unresolved)
	}
	r.res.Unresolved = unresolved

	lvl.Valid = true
	r.res.Level = lvl
	r.advance(StateAssembled)

	r.logger.Info("Level decoded",
		"variant", lvl.Variant,
		"textures", len(lvl.Textures),
		"filledTextures", lvl.FilledTextures(),
		"mobies", len(lvl.Mobies),
		"ties", len(lvl.Ties),
		"shrubs", len(lvl.Shrubs),
		"unresolved", unresolved.Total())
	return nil
}
