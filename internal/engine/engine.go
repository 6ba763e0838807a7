// Package engine decodes the static assets of an engine file: model lists,
// the texture table, HUD elements, player animations and the raw blobs.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
)

// Option configures a Decoder.
type Option func(*config)

type config struct {
	sequential bool
}

// Sequential makes DecodeAll run its tasks one after another.
func Sequential() Option {
	return func(c *config) {
		c.sequential = true
	}
}

// Decoder reads one engine file. Every getter is safe for concurrent use.
type Decoder struct {
	src    *binfile.Source
	logger *slog.Logger
	cfg    config

	detect  sync.Once
	variant format.GameVariant
	layout  *format.Layout
	err     error
}

// New creates a decoder over src. The variant is detected on first use.
func New(src *binfile.Source, logger *slog.Logger, opts ...Option) *Decoder {
	d := &Decoder{
		src:    src,
		logger: logger,
	}
	for _, opt := range opts {
		opt(&d.cfg)
	}
	return d
}

// DetectGameVariant reads the layout word at the start of the file.
func (d *Decoder) DetectGameVariant() (format.GameVariant, error) {
	d.detect.Do(func() {
		word, err := d.src.Uint32(format.SignatureOffset)
		if err != nil {
			d.err = format.Wrap(stage("signature"), err)
			return
		}
		d.variant, d.err = format.VariantFromSignature(word)
		if d.err != nil {
			return
		}
		d.layout, d.err = format.LayoutFor(d.variant)
		if d.err == nil && !d.src.InBounds(0, int64(d.layout.EngineHeaderSize())) {
			d.err = format.Corruptf("engine header needs %d bytes, file has %d",
				d.layout.EngineHeaderSize(), d.src.Size())
		}
		if d.err == nil {
			d.logger.Debug("Detected game variant", "variant", d.variant, "path", d.src.Path())
		}
	})
	return d.variant, d.err
}

// Layout returns the layout of the detected variant.
func (d *Decoder) Layout() (*format.Layout, error) {
	if _, err := d.DetectGameVariant(); err != nil {
		return nil, err
	}
	return d.layout, nil
}

// descriptor reads and sanity-checks the header entry of s.
func (d *Decoder) descriptor(s format.EngineSection) (binfile.Descriptor, error) {
	l, err := d.Layout()
	if err != nil {
		return binfile.Descriptor{}, err
	}
	desc, err := d.src.ReadDescriptor(l.EngineDescriptorOffset(s))
	if err != nil {
		return desc, format.Wrap(s, err)
	}
	if desc.Count < 0 {
		return desc, format.Wrap(s, format.Corruptf("negative count %d", desc.Count))
	}
	return desc, nil
}

type stage string

func (s stage) String() string { return string(s) }

func checkCount(what string, n int32) error {
	if n < 0 {
		return format.Corruptf("%s: negative count %d", what, n)
	}
	return nil
}

func sizeOf(count, stride int32) int64 {
	return int64(count) * int64(stride)
}

func describe(s format.EngineSection, i int) string {
	return fmt.Sprintf("%s[%d]", s, i)
}
