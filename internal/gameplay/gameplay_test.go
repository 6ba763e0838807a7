package gameplay

import (
	"context"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/levelfixture"
)

func newDecoder(img []byte, v format.GameVariant, opts ...Option) *Decoder {
	return New(binfile.FromBytes("gameplay_ntsc", img), v, slog.Default(), opts...)
}

func sampleDecoder(t *testing.T, v format.GameVariant) (*Decoder, *levelfixture.Set) {
	t.Helper()
	set := levelfixture.Sample(v)
	return newDecoder(set.Gameplay.Build(), v), set
}

func patchDescriptor(img []byte, s format.GameplaySection, off uint32, count int32) {
	at := 4 + int(s)*format.DescriptorSize
	binary.BigEndian.PutUint32(img[at:], off)
	binary.BigEndian.PutUint32(img[at+4:], uint32(count))
}

func descriptorOffset(img []byte, s format.GameplaySection) uint32 {
	return binary.BigEndian.Uint32(img[4+int(s)*format.DescriptorSize:])
}

func TestLayout_VariantMismatch(t *testing.T) {
	img := levelfixture.Sample(format.VariantRaC1).Gameplay.Build()

	_, err := newDecoder(img, format.VariantRaC2).Layout()
	assert.ErrorIs(t, err, format.ErrUnsupportedVariant)
	assert.Contains(t, err.Error(), "rac1")

	_, err = newDecoder(img, format.VariantRaC2).Mobies()
	assert.ErrorIs(t, err, format.ErrUnsupportedVariant)
}

func TestLayout_Errors(t *testing.T) {
	tests := []struct {
		name string
		img  []byte
		kind error
	}{
		{"empty", nil, format.ErrCorruptAsset},
		{"unknown signature", []byte{0xDE, 0xAD, 0xBE, 0xEF}, format.ErrUnsupportedVariant},
		{"truncated header", []byte{0, 0, 0, 3, 0, 0, 0, 0}, format.ErrCorruptAsset},
		{"one byte short of header", levelfixture.Sample(format.VariantRaC3).Gameplay.Build()[:format.GameplayHeaderSize-1], format.ErrCorruptAsset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDecoder(tt.img, format.VariantRaC3).Layout()
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestLayout_ExactHeader(t *testing.T) {
	img := levelfixture.Sample(format.VariantRaC3).Gameplay.Build()[:format.GameplayHeaderSize]

	layout, err := newDecoder(img, format.VariantRaC3).Layout()
	require.NoError(t, err)
	assert.Equal(t, format.VariantRaC3, layout.Variant)
}

func TestInstances(t *testing.T) {
	for _, v := range format.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			d, set := sampleDecoder(t, v)

			mobies, err := d.Mobies()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.Mobies, mobies)

			ties, err := d.Ties()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.Ties, ties)

			shrubs, err := d.Shrubs()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.Shrubs, shrubs)

			lights, err := d.Lights()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.Lights, lights)

			splines, err := d.Splines()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.Splines, splines)

			spawns, err := d.SpawnPoints()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.SpawnPoints, spawns)

			cams, err := d.Cameras()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.Cameras, cams)

			terrain, err := d.TerrainElements()
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.TerrainElements, terrain)
		})
	}
}

func TestInstances_ReferencesStayUnresolved(t *testing.T) {
	d, _ := sampleDecoder(t, format.VariantRaC2)

	ties, err := d.Ties()
	require.NoError(t, err)
	require.Len(t, ties, 5)
	ids := make([]int32, len(ties))
	for i, tie := range ties {
		ids[i] = tie.Model.ID
		assert.False(t, tie.Model.Resolved())
	}
	assert.Equal(t, []int32{10, 11, 10, 99, 12}, ids)
}

func TestMissingOptionalSections(t *testing.T) {
	g := levelfixture.Gameplay{Variant: format.VariantDeadlocked}
	d := newDecoder(g.Build(), format.VariantDeadlocked)

	res, err := d.DecodeAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Mobies)
	assert.Empty(t, res.Ties)
	assert.Empty(t, res.Splines)
	assert.Empty(t, res.Pvars)
	assert.True(t, res.TieData.Empty())
	require.Len(t, res.Localization, 8)
	for _, table := range res.Localization {
		assert.True(t, table.Blob.Empty(), table.Language)
	}
}

func TestLevelVariables(t *testing.T) {
	d, set := sampleDecoder(t, format.VariantRaC3)

	got, err := d.LevelVariables()
	require.NoError(t, err)
	assert.Equal(t, set.Gameplay.LevelVariables, got)
}

func TestLevelVariables_Corrupt(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		img := levelfixture.Sample(format.VariantRaC1).Gameplay.Build()
		patchDescriptor(img, format.GameplayLevelVariables, 0, 0)

		_, err := newDecoder(img, format.VariantRaC1).LevelVariables()
		assert.ErrorIs(t, err, format.ErrCorruptAsset)
	})

	t.Run("too short", func(t *testing.T) {
		img := levelfixture.Sample(format.VariantRaC1).Gameplay.Build()
		patchDescriptor(img, format.GameplayLevelVariables, descriptorOffset(img, format.GameplayLevelVariables), 0x20)

		_, err := newDecoder(img, format.VariantRaC1).LevelVariables()
		assert.ErrorIs(t, err, format.ErrCorruptAsset)
	})
}

func TestLocalizationTables(t *testing.T) {
	d, set := sampleDecoder(t, format.VariantRaC2)

	tables, err := d.LocalizationTables()
	require.NoError(t, err)
	require.Len(t, tables, 8)
	for i, table := range tables {
		assert.Equal(t, level.LanguageTags[i], table.Language)
		assert.Equal(t, set.Gameplay.Languages[table.Language], table.Blob.Data, table.Language)
	}

	entries, err := tables[0].Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Metropolis", entries[0].Text)

	_, err = tables[6].Entries()
	assert.Error(t, err, "unidentified slots stay opaque")
}

func TestBehaviorVariables(t *testing.T) {
	d, set := sampleDecoder(t, format.VariantRaC1)
	mobies, err := d.Mobies()
	require.NoError(t, err)

	pvars, err := d.BehaviorVariables(mobies)
	require.NoError(t, err)
	require.Len(t, pvars, len(set.Gameplay.Pvars))
	for i, p := range pvars {
		assert.Equal(t, set.Gameplay.Pvars[i], p.Data)
		assert.Equal(t, level.RegionPvar, p.Region)
	}
}

func TestBehaviorVariables_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*levelfixture.Gameplay)
	}{
		{"fewer entries than declaring mobies", func(g *levelfixture.Gameplay) {
			g.Pvars = g.Pvars[:1]
		}},
		{"more entries than declaring mobies", func(g *levelfixture.Gameplay) {
			g.Pvars = append(g.Pvars, []byte{1, 2, 3})
		}},
		{"index outside table", func(g *levelfixture.Gameplay) {
			g.Mobies[2].PvarIndex = 5
		}},
		{"two mobies share an index", func(g *levelfixture.Gameplay) {
			g.Mobies[2].PvarIndex = g.Mobies[0].PvarIndex
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := levelfixture.Sample(format.VariantRaC2)
			tt.mutate(&set.Gameplay)
			d := newDecoder(set.Gameplay.Build(), format.VariantRaC2)

			_, err := d.DecodeAll(context.Background())
			assert.ErrorIs(t, err, format.ErrCorruptAsset)
			assert.Contains(t, err.Error(), "pvars")
		})
	}
}

func TestTypedRecords(t *testing.T) {
	for _, v := range format.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			d, set := sampleDecoder(t, v)
			layout, err := format.LayoutFor(v)
			require.NoError(t, err)

			for _, tag := range format.FixedTypeTags {
				list, err := d.TypedRecords(tag)
				require.NoError(t, err)
				assert.Equal(t, tag, list.Tag)
				assert.Equal(t, layout.TypeRecordSizes[tag], list.RecordSize)
				assert.Equal(t, set.Gameplay.TypedRecords[tag], list.Records, string(tag))
				assert.Equal(t, len(set.Gameplay.TypedRecords[tag])*list.RecordSize, list.ByteLen())
			}
		})
	}
}

func TestTypedRecords_UnknownTag(t *testing.T) {
	d, _ := sampleDecoder(t, format.VariantRaC1)

	_, err := d.TypedRecords(format.TypeTag("type99"))
	assert.Error(t, err)
	_, err = d.Pairs(format.Type04)
	assert.Error(t, err)
	_, err = d.UnknownBlob("unk8")
	assert.Error(t, err)
	_, err = d.InstanceData(level.CategoryMoby, 1)
	assert.Error(t, err)
}

func TestPairsAndUnknownBlobs(t *testing.T) {
	d, set := sampleDecoder(t, format.VariantRaC3)

	for _, tag := range format.PairTypeTags {
		pairs, err := d.Pairs(tag)
		require.NoError(t, err)
		assert.Equal(t, set.Gameplay.Pairs[tag], pairs)
	}
	for _, tag := range format.UnknownTags {
		blob, err := d.UnknownBlob(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, blob.Region)
		assert.Equal(t, set.Gameplay.Unknown[tag], blob.Data, tag)
	}
}

func TestInstanceData(t *testing.T) {
	for _, v := range format.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			d, set := sampleDecoder(t, v)

			tie, err := d.InstanceData(level.CategoryTie, len(set.Gameplay.Ties))
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.TieData, tie.Data)

			shrub, err := d.InstanceData(level.CategoryShrub, len(set.Gameplay.Shrubs))
			require.NoError(t, err)
			assert.Equal(t, set.Gameplay.ShrubData, shrub.Data)
		})
	}
}

func TestIDTablesAndOcclusion(t *testing.T) {
	d, set := sampleDecoder(t, format.VariantDeadlocked)

	ids, err := d.IDTables()
	require.NoError(t, err)
	assert.Equal(t, set.Gameplay.IDTables, ids)

	occ, err := d.OcclusionData()
	require.NoError(t, err)
	assert.Equal(t, *set.Gameplay.Occlusion, occ)
}

func TestRecordArrays_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		section format.GameplaySection
		count   int32
		decode  func(*Decoder) error
	}{
		{"negative moby count", format.GameplayMobies, -1, func(d *Decoder) error { _, err := d.Mobies(); return err }},
		{"ties past end", format.GameplayTies, 0x100000, func(d *Decoder) error { _, err := d.Ties(); return err }},
		{"cameras past end", format.GameplayCameras, 0x100000, func(d *Decoder) error { _, err := d.Cameras(); return err }},
		{"moby records past end", format.GameplayMobies, 0x100000, func(d *Decoder) error { _, err := d.Mobies(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := levelfixture.Sample(format.VariantRaC2).Gameplay.Build()
			patchDescriptor(img, tt.section, descriptorOffset(img, tt.section), tt.count)

			err := tt.decode(newDecoder(img, format.VariantRaC2))
			assert.ErrorIs(t, err, format.ErrCorruptAsset)
			assert.Contains(t, err.Error(), tt.section.String())
		})
	}
}

func TestSplines_NegativeVertexCount(t *testing.T) {
	img := levelfixture.Sample(format.VariantRaC1).Gameplay.Build()
	table := descriptorOffset(img, format.GameplaySplines)
	first := binary.BigEndian.Uint32(img[table:])
	binary.BigEndian.PutUint32(img[first:], 0xFFFFFFFF)

	_, err := newDecoder(img, format.VariantRaC1).Splines()
	assert.ErrorIs(t, err, format.ErrCorruptAsset)
	assert.Contains(t, err.Error(), "splines[0]")
}

func TestDecodeAll(t *testing.T) {
	img := levelfixture.Sample(format.VariantRaC3).Gameplay.Build()

	concurrent, err := newDecoder(img, format.VariantRaC3).DecodeAll(context.Background())
	require.NoError(t, err)
	sequential, err := newDecoder(img, format.VariantRaC3, Sequential()).DecodeAll(context.Background())
	require.NoError(t, err)
	again, err := newDecoder(img, format.VariantRaC3).DecodeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, concurrent, sequential)
	assert.Equal(t, concurrent, again)
	assert.Len(t, concurrent.Pvars, 2)
	assert.Len(t, concurrent.TypedRecords, len(format.FixedTypeTags))
	assert.Len(t, concurrent.UnknownBlobs, len(format.UnknownTags))
	assert.True(t, concurrent.UnknownBlobs["unk7"].Empty())
}

func TestResultApply(t *testing.T) {
	d, set := sampleDecoder(t, format.VariantRaC1)
	res, err := d.DecodeAll(context.Background())
	require.NoError(t, err)

	var l level.Level
	res.Apply(&l)

	assert.Len(t, l.Ties, 5)
	assert.Len(t, l.Mobies, len(set.Gameplay.Mobies))
	assert.Equal(t, res.Occlusion, l.Occlusion)
	assert.Equal(t, set.Gameplay.TieData, l.TieData.Data)
	assert.Equal(t, set.Gameplay.Pairs[format.Type50], l.Type50s)
}
