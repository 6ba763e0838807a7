package convert

import (
	"context"
	"log/slog"
	"testing"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcforge/levelcore/internal/assembler"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/levelfixture"
	"github.com/rcforge/levelcore/pkg/core"
)

func decodeSample(t *testing.T, v format.GameVariant) *level.Level {
	t.Helper()
	path, err := levelfixture.WriteDir(t.TempDir(), levelfixture.Sample(v).Files())
	require.NoError(t, err)

	a, err := assembler.New(slog.Default())
	require.NoError(t, err)
	l, err := a.Decode(context.Background(), path)
	require.NoError(t, err)
	return l
}

func TestLevelToManifest_Sample(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := decodeSample(t, format.VariantRaC2)

	m := LevelToManifest(l, now)

	assert.Equal(t, "rac2", m.Variant)
	assert.True(t, m.Valid)
	assert.Equal(t, now, m.DecodedAt)
	assert.Equal(t, map[string]int{
		"moby": 2, "tie": 3, "shrub": 1, "weapon": 1,
		"skybox": 1, "collision": 1, "terrain": 2,
	}, m.Models)
	assert.Equal(t, 3, m.Instances["mobies"])
	assert.Equal(t, 5, m.Instances["ties"])
	assert.Equal(t, 2, m.Instances["pvars"])
	assert.Equal(t, 2, m.Instances["type0C"])
	assert.Equal(t, 0, m.Instances["type68"])
	assert.Equal(t, 2, m.Instances["type50"])

	assert.Equal(t, 5, m.Textures.Total)
	assert.Equal(t, 3, m.Textures.Filled)
	assert.Equal(t, 1, m.Textures.Orphans)
	assert.Equal(t, 96, m.Textures.PayloadBytes)
	assert.Equal(t, 2, m.Unresolved)

	regions := make(map[string]int)
	for _, b := range m.Blobs {
		regions[b.Region]++
		assert.Len(t, b.XXHash, 16)
		assert.Positive(t, b.Length)
	}
	assert.Len(t, m.Blobs, 33)
	for region, n := range regions {
		assert.Equal(t, 1, n, "region %s repeated", region)
	}
	assert.Contains(t, regions, "renderDef")
	assert.Contains(t, regions, "pvar[1]")
	assert.Contains(t, regions, "localization.lang8")
	assert.Contains(t, regions, "vramOrphan[0]")
	assert.Contains(t, regions, "unk17")
	assert.NotContains(t, regions, "unk7")
	for _, region := range []string{RegionLevelVariablesTail, RegionMobyTails, RegionLightTails, RegionTerrainElementTails} {
		assert.Contains(t, regions, region)
	}
}

func TestLevelToManifest_TailDigests(t *testing.T) {
	l := decodeSample(t, format.VariantRaC2)
	m := LevelToManifest(l, time.Now())

	byRegion := make(map[string]int)
	for i, b := range m.Blobs {
		byRegion[b.Region] = i
	}
	mobies := m.Blobs[byRegion[RegionMobyTails]]
	assert.Equal(t, len(l.Mobies)*len(l.Mobies[0].Tail), mobies.Length)
	assert.Zero(t, mobies.Offset)
	assert.Equal(t, len(l.LevelVariables.Tail), m.Blobs[byRegion[RegionLevelVariablesTail]].Length)

	tests := []struct {
		region string
		mutate func(*level.Level)
	}{
		{RegionMobyTails, func(l *level.Level) { l.Mobies[1].Tail[0] ^= 0xFF }},
		{RegionLightTails, func(l *level.Level) { l.Lights[1].Tail[3] ^= 0xFF }},
		{RegionTerrainElementTails, func(l *level.Level) { l.TerrainElements[0].Tail[0] ^= 0xFF }},
		{RegionLevelVariablesTail, func(l *level.Level) { l.LevelVariables.Tail[0] ^= 0xFF }},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			l := decodeSample(t, format.VariantRaC2)
			before := LevelToManifest(l, time.Now())

			tt.mutate(l)
			after := LevelToManifest(l, time.Now())

			diff := before.Diff(&after)
			require.Len(t, diff, 1)
			assert.Contains(t, diff[0], "blob "+tt.region)
		})
	}
}

func TestLevelBlobs_PresentButEmpty(t *testing.T) {
	l := &level.Level{
		TieData:   level.OpaqueBlob{Region: level.RegionTieData, Offset: 0x400},
		ShrubData: level.OpaqueBlob{Region: level.RegionShrubData},
	}

	byRegion := make(map[string]core.BlobDigest)
	for _, b := range levelBlobs(l) {
		byRegion[b.Region] = b
	}

	tie, ok := byRegion[level.RegionTieData]
	require.True(t, ok, "region with an offset is listed")
	assert.Equal(t, 0, tie.Length)
	assert.Equal(t, int64(0x400), tie.Offset)
	assert.Equal(t, hexDigest(xxhash.Sum64(nil)), tie.XXHash)
	assert.NotContains(t, byRegion, level.RegionShrubData)
	assert.NotContains(t, byRegion, RegionMobyTails, "no mobies, no tail digest")
}

func TestLevelToManifest_BlobDigestMatchesBytes(t *testing.T) {
	l := decodeSample(t, format.VariantRaC1)
	m := LevelToManifest(l, time.Now())

	require.NotEmpty(t, m.Blobs)
	first := m.Blobs[0]
	assert.Equal(t, level.RegionRenderDef, first.Region)
	assert.Equal(t, l.RenderDef.Len(), first.Length)
	assert.Equal(t, hexDigest(l.RenderDef.Digest()), first.XXHash)
	assert.Equal(t, l.RenderDef.Offset, first.Offset)
}

func TestLevelToManifest_Deterministic(t *testing.T) {
	a := LevelToManifest(decodeSample(t, format.VariantDeadlocked), time.Now())
	b := LevelToManifest(decodeSample(t, format.VariantDeadlocked), time.Now())

	assert.NotEqual(t, a.Path, b.Path)
	assert.True(t, a.Equal(&b))
	assert.Empty(t, a.Diff(&b))
}

func TestLevelToManifest_VariantsDiffer(t *testing.T) {
	a := LevelToManifest(decodeSample(t, format.VariantRaC1), time.Now())
	b := LevelToManifest(decodeSample(t, format.VariantRaC3), time.Now())
	assert.False(t, a.Equal(&b))
	assert.Contains(t, a.Diff(&b), "variant: rac1 != rac3")
}

func TestLevelToManifest_Invalid(t *testing.T) {
	m := LevelToManifest(level.Invalid("/levels/x", format.VariantRaC3), time.Now())

	assert.False(t, m.Valid)
	assert.Equal(t, "/levels/x", m.Path)
	assert.Equal(t, "rac3", m.Variant)
	assert.Empty(t, m.Models)
	assert.Empty(t, m.Blobs)
	assert.Zero(t, m.Unresolved)
}

func TestLevelToManifest_ChangedByteChangesDigest(t *testing.T) {
	l := decodeSample(t, format.VariantRaC2)
	before := LevelToManifest(l, time.Now())

	l.TieData.Data[0] ^= 0xFF
	after := LevelToManifest(l, time.Now())

	assert.False(t, before.Equal(&after))
	diff := before.Diff(&after)
	require.Len(t, diff, 1)
	assert.Contains(t, diff[0], "blob tieData")
}
