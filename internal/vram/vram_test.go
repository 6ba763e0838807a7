package vram

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/levelfixture"
)

func textures(n int) []*level.Texture {
	out := make([]*level.Texture, n)
	for i := range out {
		out[i] = &level.Texture{Index: i, Width: 4, Height: 4, Format: level.FormatB8}
	}
	return out
}

func decoder(entries []levelfixture.VramEntry) *Decoder {
	return New(binfile.FromBytes("vram.ps3", levelfixture.Vram(entries)), slog.Default())
}

func TestFill_PartialCoverage(t *testing.T) {
	texs := textures(5)
	d := decoder([]levelfixture.VramEntry{
		{TextureIndex: 0, Data: levelfixture.Pattern(1, 16)},
		{TextureIndex: 1, Data: levelfixture.Pattern(2, 16)},
		{TextureIndex: 3, Data: levelfixture.Pattern(3, 16)},
	})

	orphans, err := d.Fill(texs)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	assert.Equal(t, levelfixture.Pattern(1, 16), texs[0].Payload)
	assert.Equal(t, levelfixture.Pattern(2, 16), texs[1].Payload)
	assert.Empty(t, texs[2].Payload)
	assert.Equal(t, levelfixture.Pattern(3, 16), texs[3].Payload)
	assert.Empty(t, texs[4].Payload)

	for _, tex := range texs {
		if tex.Filled() {
			assert.Equal(t, tex.Width*tex.Height*tex.Format.BitsPerPixel()/8, len(tex.Payload))
		}
	}
}

func TestFill_Orphans(t *testing.T) {
	texs := textures(2)
	d := decoder([]levelfixture.VramEntry{
		{TextureIndex: 1, Data: levelfixture.Pattern(1, 16)},
		{TextureIndex: 7, Data: levelfixture.Pattern(9, 5)},
	})

	orphans, err := d.Fill(texs)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, level.RegionVramOrphan, orphans[0].Region)
	assert.Equal(t, levelfixture.Pattern(9, 5), orphans[0].Data)
	assert.True(t, texs[1].Filled())
}

func TestFill_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		entries []levelfixture.VramEntry
	}{
		{"length mismatch", []levelfixture.VramEntry{{TextureIndex: 0, Data: levelfixture.Pattern(1, 15)}}},
		{"duplicate index", []levelfixture.VramEntry{
			{TextureIndex: 0, Data: levelfixture.Pattern(1, 16)},
			{TextureIndex: 0, Data: levelfixture.Pattern(2, 16)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texs := textures(3)
			_, err := decoder(tt.entries).Fill(texs)

			assert.ErrorIs(t, err, format.ErrCorruptAsset)
			for _, tex := range texs {
				assert.Empty(t, tex.Payload, "failed fill must not touch textures")
			}
		})
	}
}

func TestFill_TruncatedFile(t *testing.T) {
	img := levelfixture.Vram([]levelfixture.VramEntry{{TextureIndex: 0, Data: levelfixture.Pattern(1, 16)}})

	tests := []struct {
		name string
		img  []byte
	}{
		{"empty", nil},
		{"table cut", img[:8]},
		{"payload cut", img[:len(img)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(binfile.FromBytes("vram.ps3", tt.img), slog.Default())
			_, err := d.Fill(textures(1))
			assert.ErrorIs(t, err, format.ErrCorruptAsset)
		})
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), format.VramFileName), slog.Default())
	assert.ErrorIs(t, err, format.ErrNotFound)
}

func TestOpen_FromDisk(t *testing.T) {
	set := levelfixture.Sample(format.VariantRaC1)
	path, err := levelfixture.WriteDir(t.TempDir(), set.Files())
	require.NoError(t, err)

	d, err := Open(filepath.Join(filepath.Dir(path), format.VramFileName), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	texs := set.Engine.Textures
	orphans, err := d.Fill(texs)
	require.NoError(t, err)
	assert.Len(t, orphans, 1)
	assert.True(t, texs[0].Filled())
	assert.True(t, texs[1].Filled())
	assert.False(t, texs[2].Filled())
	assert.True(t, texs[3].Filled())
	assert.False(t, texs[4].Filled())
}
