package assembler

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/levelfixture"
)

func newAssembler(t *testing.T, opts ...Option) *Assembler {
	t.Helper()
	a, err := New(slog.Default(), opts...)
	require.NoError(t, err)
	return a
}

func writeLevel(t *testing.T, files levelfixture.Files) string {
	t.Helper()
	path, err := levelfixture.WriteDir(t.TempDir(), files)
	require.NoError(t, err)
	return path
}

func sampleLevel(t *testing.T, v format.GameVariant) string {
	t.Helper()
	return writeLevel(t, levelfixture.Sample(v).Files())
}

func TestAssemble_Sample(t *testing.T) {
	for _, v := range format.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			path := sampleLevel(t, v)

			res, err := newAssembler(t).Assemble(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, StateAssembled, res.State)

			l := res.Level
			require.True(t, l.Valid)
			assert.Equal(t, v, l.Variant)
			assert.Equal(t, filepath.Dir(path), l.Path)
			assert.Len(t, l.TieModels, 3)
			assert.Len(t, l.Textures, 5)
			assert.Len(t, l.Mobies, 3)
			assert.Len(t, l.Pvars, 2)
			assert.Len(t, l.Localization, 8)
			assert.Len(t, l.VramOrphans, 1)
			assert.Equal(t, Unresolved{"tie": 1, "moby": 1}, res.Unresolved)
			assert.Equal(t, 2, l.UnresolvedRefs())
		})
	}
}

func TestAssemble_TieResolution(t *testing.T) {
	l, err := newAssembler(t).Decode(context.Background(), sampleLevel(t, format.VariantRaC1))
	require.NoError(t, err)

	require.Len(t, l.Ties, 5)
	byID := map[int32]*level.StaticModel{}
	for _, m := range l.TieModels {
		byID[m.ID] = m
	}

	resolved := 0
	for _, tie := range l.Ties {
		if tie.Model.ID == 99 {
			assert.False(t, tie.Model.Resolved())
			continue
		}
		require.True(t, tie.Model.Resolved(), "tie model %d", tie.Model.ID)
		assert.Same(t, byID[tie.Model.ID], tie.Model.Model)
		resolved++
	}
	assert.Equal(t, 4, resolved)
}

func TestAssemble_OtherReferences(t *testing.T) {
	l, err := newAssembler(t).Decode(context.Background(), sampleLevel(t, format.VariantRaC2))
	require.NoError(t, err)

	assert.Same(t, l.MobyModels[0], l.Mobies[0].Model.Model)
	assert.Same(t, l.MobyModels[1], l.Mobies[1].Model.Model)
	assert.False(t, l.Mobies[2].Model.Resolved())
	for _, s := range l.Shrubs {
		assert.Same(t, l.ShrubModels[0], s.Model.Model)
	}
	for i, e := range l.TerrainElements {
		assert.Same(t, l.TerrainModels[i], e.Fragment.Model)
	}
}

func TestAssemble_PartialVram(t *testing.T) {
	l, err := newAssembler(t).Decode(context.Background(), sampleLevel(t, format.VariantRaC3))
	require.NoError(t, err)

	filled := map[int]bool{0: true, 1: true, 3: true}
	for _, tex := range l.Textures {
		if filled[tex.Index] {
			require.True(t, tex.Filled(), "texture %d", tex.Index)
			assert.Equal(t, tex.Width*tex.Height*tex.Format.BitsPerPixel()/8, len(tex.Payload))
		} else {
			assert.Empty(t, tex.Payload, "texture %d", tex.Index)
		}
	}
	assert.Equal(t, 3, l.FilledTextures())
}

func TestAssemble_MissingVram(t *testing.T) {
	files := levelfixture.Sample(format.VariantRaC1).Files()
	files.Vram = nil
	path := writeLevel(t, files)

	res, err := newAssembler(t).Assemble(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, res.State)
	assert.False(t, res.Level.Valid)
	assert.Empty(t, res.Level.Mobies)
	assert.Empty(t, res.Level.Textures)

	l, err := newAssembler(t).Decode(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, l.Valid)
}

func TestAssemble_VramIsDirectory(t *testing.T) {
	files := levelfixture.Sample(format.VariantRaC1).Files()
	files.Vram = nil
	path := writeLevel(t, files)
	require.NoError(t, os.Mkdir(filepath.Join(filepath.Dir(path), format.VramFileName), 0o755))

	res, err := newAssembler(t).Assemble(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, res.State)
	assert.False(t, res.Level.Valid)
}

func TestAssemble_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*levelfixture.Files)
		file   format.FileKind
		kind   error
	}{
		{
			name:   "engine missing",
			mutate: func(f *levelfixture.Files) { f.Engine = nil },
			file:   format.FileEngine,
			kind:   format.ErrNotFound,
		},
		{
			name: "engine corrupt",
			mutate: func(f *levelfixture.Files) {
				layout, _ := format.LayoutFor(format.VariantRaC1)
				at := layout.EngineDescriptorOffset(format.EngineTextures)
				binary.BigEndian.PutUint32(f.Engine[at+4:], 0x7FFFFFFF)
			},
			file: format.FileEngine,
			kind: format.ErrCorruptAsset,
		},
		{
			name:   "engine signature unknown",
			mutate: func(f *levelfixture.Files) { binary.BigEndian.PutUint32(f.Engine, 0x77) },
			file:   format.FileEngine,
			kind:   format.ErrUnsupportedVariant,
		},
		{
			name:   "vram length mismatch",
			mutate: func(f *levelfixture.Files) { binary.BigEndian.PutUint32(f.Vram[4+8:], 3) },
			file:   format.FileVram,
			kind:   format.ErrCorruptAsset,
		},
		{
			name:   "gameplay missing",
			mutate: func(f *levelfixture.Files) { f.Gameplay = nil },
			file:   format.FileGameplay,
			kind:   format.ErrNotFound,
		},
		{
			name:   "gameplay from another game",
			mutate: func(f *levelfixture.Files) { binary.BigEndian.PutUint32(f.Gameplay, uint32(format.VariantRaC2)) },
			file:   format.FileGameplay,
			kind:   format.ErrUnsupportedVariant,
		},
		{
			name: "pvar count mismatch",
			mutate: func(f *levelfixture.Files) {
				set := levelfixture.Sample(format.VariantRaC1)
				set.Gameplay.Pvars = set.Gameplay.Pvars[:1]
				f.Gameplay = set.Gameplay.Build()
			},
			file: format.FileGameplay,
			kind: format.ErrCorruptAsset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := levelfixture.Sample(format.VariantRaC1).Files()
			tt.mutate(&files)
			path := writeLevel(t, files)

			l, err := newAssembler(t).Decode(context.Background(), path)
			require.Error(t, err)
			assert.Nil(t, l)
			assert.ErrorIs(t, err, tt.kind)

			var de *format.DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.file, de.File)
			assert.NotEmpty(t, de.Stage)
		})
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	path := sampleLevel(t, format.VariantDeadlocked)
	a := newAssembler(t)

	first, err := a.Decode(context.Background(), path)
	require.NoError(t, err)
	second, err := a.Decode(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i, blob := range first.EngineBlobs() {
		assert.Equal(t, blob.Digest(), second.EngineBlobs()[i].Digest(), blob.Region)
	}
	for tag, list := range first.TypedRecords {
		assert.Equal(t, list.Count(), second.TypedRecords[tag].Count())
		assert.Equal(t, list.ByteLen(), second.TypedRecords[tag].ByteLen())
	}
}

func TestAssemble_SequentialMatchesConcurrent(t *testing.T) {
	path := sampleLevel(t, format.VariantRaC3)

	concurrent, err := newAssembler(t).Decode(context.Background(), path)
	require.NoError(t, err)
	sequential, err := newAssembler(t, Sequential()).Decode(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, concurrent, sequential)
}

func TestAssemble_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAssembler(t).Decode(ctx, sampleLevel(t, format.VariantRaC1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestState(t *testing.T) {
	assert.True(t, StateStart.CanAdvance(StateEngineDecoded))
	assert.True(t, StateEngineDecoded.CanAdvance(StateAborted))
	assert.False(t, StateStart.CanAdvance(StateAssembled))
	assert.False(t, StateAborted.CanAdvance(StateGameplayDecoded))
	assert.True(t, StateAborted.Terminal())
	assert.True(t, StateAssembled.Terminal())
	assert.False(t, StateVramChecked.Terminal())
	assert.Equal(t, "vramChecked", StateVramChecked.String())
}
