// Package vram attaches the pixel payloads of a vram file to the texture table.
package vram

import (
	"fmt"
	"log/slog"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

type entry struct {
	TextureIndex uint32
	Offset       uint32
	Length       uint32
}

const entrySize = 0x0C

type stage string

func (s stage) String() string { return string(s) }

// Decoder reads one vram file.
type Decoder struct {
	src    *binfile.Source
	logger *slog.Logger
}

// Open maps the vram file at path. A missing file wraps format.ErrNotFound.
func Open(path string, logger *slog.Logger) (*Decoder, error) {
	src, err := binfile.Open(path)
	if err != nil {
		return nil, err
	}
	return New(src, logger), nil
}

// New wraps an already opened source.
func New(src *binfile.Source, logger *slog.Logger) *Decoder {
	return &Decoder{src: src, logger: logger}
}

// Close releases the underlying source.
func (d *Decoder) Close() error {
	return d.src.Close()
}

func (d *Decoder) entries() ([]entry, error) {
	count, err := d.src.Uint32(0)
	if err != nil {
		return nil, format.Wrap(stage("entry count"), err)
	}
	if !d.src.InBounds(4, int64(count)*entrySize) {
		return nil, format.Corruptf("entry table of %d entries does not fit in %d bytes", count, d.src.Size())
	}
	entries, err := binfile.ReadRecords[entry](d.src, 4, int(count))
	if err != nil {
		return nil, format.Wrap(stage("entry table"), err)
	}
	return entries, nil
}

// Fill sets the payload of every texture that has a vram region and returns
// the regions naming an index outside the table. Textures without a region
// keep an empty payload. On error no texture is modified.
func (d *Decoder) Fill(textures []*level.Texture) ([]level.OpaqueBlob, error) {
	entries, err := d.entries()
	if err != nil {
		return nil, err
	}

	payloads := make(map[int][]byte, len(entries))
	var orphans []level.OpaqueBlob
	seen := make(map[uint32]struct{}, len(entries))
	for i, e := range entries {
		where := stage(fmt.Sprintf("entry[%d]", i))
		if _, dup := seen[e.TextureIndex]; dup {
			return nil, format.Wrap(where, format.Corruptf("texture %d has more than one region", e.TextureIndex))
		}
		seen[e.TextureIndex] = struct{}{}

		data, err := d.src.ReadAt(int64(e.Offset), int64(e.Length))
		if err != nil {
			return nil, format.Wrap(where, err)
		}

		if int64(e.TextureIndex) >= int64(len(textures)) {
			d.logger.Warn("Vram region names no texture, keeping it verbatim",
				"textureIndex", e.TextureIndex,
				"length", e.Length,
				"textures", len(textures))
			orphans = append(orphans, level.OpaqueBlob{
				Region: level.RegionVramOrphan,
				Offset: int64(e.Offset),
				Data:   data,
			})
			continue
		}

		tex := textures[e.TextureIndex]
		if want := tex.ExpectedPayloadSize(); int(e.Length) != want {
			return nil, format.Wrap(where, format.Corruptf("texture %d (%dx%d %s) needs %d bytes, region has %d",
				e.TextureIndex, tex.Width, tex.Height, tex.Format, want, e.Length))
		}
		payloads[int(e.TextureIndex)] = data
	}

	for idx, data := range payloads {
		textures[idx].Payload = data
	}

	d.logger.Debug("Filled texture payloads",
		"path", d.src.Path(),
		"regions", len(entries),
		"filled", len(payloads),
		"empty", len(textures)-len(payloads),
		"orphans", len(orphans))
	return orphans, nil
}
