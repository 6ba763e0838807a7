// Package gameplay decodes the per-level state of a gameplay file: level
// variables, instance lists, localization, behavior variables and the record
// lists kept verbatim.
package gameplay

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

// Decoder reads one gameplay file laid out for a known variant.
type Decoder struct {
	src     *binfile.Source
	variant format.GameVariant
	logger  *slog.Logger
	cfg     config

	check  sync.Once
	layout *format.Layout
	err    error
}

// New creates a decoder for a gameplay file of variant, which comes from the
// engine file of the same level.
func New(src *binfile.Source, variant format.GameVariant, logger *slog.Logger, opts ...Option) *Decoder {
	d := &Decoder{
		src:     src,
		variant: variant,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(&d.cfg)
	}
	return d
}

// Layout verifies the file signature against the expected variant once and
// returns its layout.
func (d *Decoder) Layout() (*format.Layout, error) {
	d.check.Do(func() {
		layout, err := format.LayoutFor(d.variant)
		if err != nil {
			d.err = err
			return
		}
		word, err := d.src.Uint32(format.SignatureOffset)
		if err != nil {
			d.err = format.Wrap(stage("signature"), err)
			return
		}
		got, err := format.VariantFromSignature(word)
		if err != nil {
			d.err = err
			return
		}
		if got != d.variant {
			d.err = fmt.Errorf("%w: gameplay file is %s, engine file is %s", format.ErrUnsupportedVariant, got, d.variant)
			return
		}
		if !d.src.InBounds(0, int64(format.GameplayHeaderSize)) {
			d.err = format.Corruptf("gameplay header needs %d bytes, file has %d", format.GameplayHeaderSize, d.src.Size())
			return
		}
		d.layout = layout
	})
	return d.layout, d.err
}

func (d *Decoder) descriptor(s format.GameplaySection) (binfile.Descriptor, error) {
	l, err := d.Layout()
	if err != nil {
		return binfile.Descriptor{}, err
	}
	desc, err := d.src.ReadDescriptor(l.GameplayDescriptorOffset(s))
	if err != nil {
		return desc, format.Wrap(s, err)
	}
	if desc.Count < 0 {
		return desc, format.Wrap(s, format.Corruptf("negative count %d", desc.Count))
	}
	return desc, nil
}

// blob reads a {offset, length} section verbatim.
func (d *Decoder) blob(s format.GameplaySection) ([]byte, int64, error) {
	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() {
		return nil, 0, err
	}
	data, err := d.src.ReadAt(int64(desc.Offset), int64(desc.Count))
	if err != nil {
		return nil, 0, format.Wrap(s, err)
	}
	return data, int64(desc.Offset), nil
}

type stage string

func (s stage) String() string { return string(s) }

func describe(s format.GameplaySection, i int) stage {
	return stage(fmt.Sprintf("%s[%d]", s, i))
}
