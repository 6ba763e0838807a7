package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rcforge/levelcore/internal/config"
	gltfexport "github.com/rcforge/levelcore/internal/export/gltf"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/storage/memory"
	"github.com/rcforge/levelcore/internal/watch"
	"github.com/rcforge/levelcore/pkg/core"
)

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"decode", "[-format yaml|json] <engine.ps3>", "decode a level and print its manifest", runDecode},
	{"catalog", "<engine.ps3>...", "decode levels and store their manifests", runCatalog},
	{"export", "<engine.ps3> <category> <out.glb>", "write the static models of one category as glTF", runExport},
	{"watch", "<engine.ps3>", "re-decode and catalog a level whenever its files change", runWatch},
	{"diff", "<manifest> <manifest>", "compare two exported manifests", runDiff},
}

func findCommand(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}
	return nil
}

func newFlagSet(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func printManifest(w io.Writer, m *core.Manifest, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	default:
		return usageError{fmt.Sprintf("unknown output format %q", format)}
	}
}

func runDecode(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("decode", a)
	format := fs.String("format", "yaml", "output format (yaml or json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError{"decode takes one engine file"}
	}

	m, err := a.decode(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := printManifest(a.stdout, m, *format); err != nil {
		return err
	}
	if !m.Valid {
		return fmt.Errorf("%s: %w", fs.Arg(0), errInvalidLevel)
	}
	return nil
}

func runCatalog(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return usageError{"catalog takes at least one engine file"}
	}

	b, err := a.openBackend()
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			a.logger.Error("Closing storage", "error", err)
		}
	}()

	invalid := 0
	for _, path := range args {
		m, err := a.decode(ctx, path)
		if err != nil {
			return err
		}
		diff, err := a.catalog(ctx, b, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\tvalid=%t\n", m.Path, m.Variant, m.Digest(), m.Valid)
		for _, d := range diff {
			fmt.Fprintf(a.stdout, "  %s\n", d)
		}
		if !m.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d levels: %w", invalid, len(args), errInvalidLevel)
	}
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	if len(args) != 3 {
		return usageError{"export takes an engine file, a category and an output file"}
	}
	c, err := level.ParseCategory(args[1])
	if err != nil {
		return usageError{err.Error()}
	}

	l, err := a.asm.Decode(ctx, args[0])
	if err != nil {
		return err
	}
	if !l.Valid {
		return fmt.Errorf("%s: %w", args[0], errInvalidLevel)
	}

	models := l.Models(c)
	if err := gltfexport.SaveModels(args[2], c, models); err != nil {
		return err
	}
	a.logger.Info("Models exported", "category", c, "models", len(models), "file", args[2])
	return nil
}

func runWatch(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usageError{"watch takes one engine file"}
	}
	enginePath := args[0]

	b, err := a.openBackend()
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			a.logger.Error("Closing storage", "error", err)
		}
	}()

	w, err := watch.New(enginePath, config.GetWatchConfig().Debounce, a.logger)
	if err != nil {
		return fmt.Errorf("watching %s: %w", enginePath, err)
	}
	defer w.Close()

	refresh := func(ctx context.Context, changed []string) {
		m, err := a.decode(ctx, enginePath)
		if err != nil {
			a.logger.Error("Decode failed", "changed", changed, "error", err)
			return
		}
		diff, err := a.catalog(ctx, b, m)
		if err != nil {
			a.logger.Error("Catalog failed", "error", err)
			return
		}
		fmt.Fprintf(a.stdout, "%s\t%s\tvalid=%t\n", m.Variant, m.Digest(), m.Valid)
		for _, d := range diff {
			fmt.Fprintf(a.stdout, "  %s\n", d)
		}
		_ = a.otel.Flush(ctx)
	}

	refresh(ctx, nil)
	a.logger.Info("Watching level", "dir", w.Dir())
	return w.Run(ctx, refresh)
}

func runDiff(_ context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return usageError{"diff takes two manifest files"}
	}
	left, err := memory.ReadManifest(args[0])
	if err != nil {
		return err
	}
	right, err := memory.ReadManifest(args[1])
	if err != nil {
		return err
	}

	diff := left.Diff(right)
	for _, d := range diff {
		fmt.Fprintln(a.stdout, d)
	}
	if len(diff) > 0 {
		return fmt.Errorf("manifests differ in %d places", len(diff))
	}
	fmt.Fprintln(a.stdout, "manifests match:", left.Digest())
	return nil
}
