// Package convert builds level manifests and converts them to and from GORM rows
package convert

import (
	"fmt"
	"time"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/pkg/core"
)

// Manifest regions covering the unparsed tail bytes of decoded records.
const (
	RegionLevelVariablesTail  = "levelVariables.tail"
	RegionMobyTails           = "moby.tails"
	RegionLightTails          = "light.tails"
	RegionTerrainElementTails = "terrainElement.tails"
)

func hexDigest(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

func blobDigest(region string, b level.OpaqueBlob) core.BlobDigest {
	return core.BlobDigest{
		Region: region,
		Offset: b.Offset,
		Length: b.Len(),
		XXHash: hexDigest(b.Digest()),
	}
}

// LevelToManifest summarizes a decoded level. Absent regions are left out
// and repeated regions are numbered, so every region name is unique.
func LevelToManifest(l *level.Level, decodedAt time.Time) core.Manifest {
	m := core.Manifest{
		Path:      l.Path,
		Variant:   l.Variant.String(),
		Valid:     l.Valid,
		DecodedAt: decodedAt.UTC(),
		Models:    make(map[string]int, len(level.Categories)),
		Instances: make(map[string]int),
	}
	if !l.Valid {
		return m
	}

	for _, c := range level.Categories {
		m.Models[string(c)] = len(l.Models(c))
	}

	m.Instances["mobies"] = len(l.Mobies)
	m.Instances["ties"] = len(l.Ties)
	m.Instances["shrubs"] = len(l.Shrubs)
	m.Instances["lights"] = len(l.Lights)
	m.Instances["splines"] = len(l.Splines)
	m.Instances["spawnPoints"] = len(l.SpawnPoints)
	m.Instances["cameras"] = len(l.Cameras)
	m.Instances["terrainElements"] = len(l.TerrainElements)
	m.Instances["pvars"] = len(l.Pvars)
	m.Instances["uiElements"] = len(l.UiElements)
	m.Instances["playerAnimations"] = len(l.PlayerAnimations)
	m.Instances[string(format.Type50)] = len(l.Type50s)
	m.Instances[string(format.Type5C)] = len(l.Type5Cs)
	for _, tag := range format.FixedTypeTags {
		m.Instances[string(tag)] = l.TypedRecords[tag].Count()
	}

	m.Textures = core.TextureStats{
		Total:   len(l.Textures),
		Filled:  l.FilledTextures(),
		Orphans: len(l.VramOrphans),
	}
	for _, t := range l.Textures {
		m.Textures.PayloadBytes += len(t.Payload)
	}

	m.Blobs = levelBlobs(l)
	m.Unresolved = l.UnresolvedRefs()
	return m
}

// concatDigest hashes parts back to back. Length is their total size.
func concatDigest(region string, parts [][]byte) core.BlobDigest {
	h := xxhash.New()
	n := 0
	for _, p := range parts {
		_, _ = h.Write(p)
		n += len(p)
	}
	return core.BlobDigest{Region: region, Length: n, XXHash: hexDigest(h.Sum64())}
}

// levelBlobs digests every preserved byte range. A region with an offset
// but no bytes is listed with length 0; one with neither is absent.
func levelBlobs(l *level.Level) []core.BlobDigest {
	var out []core.BlobDigest
	add := func(region string, b level.OpaqueBlob) {
		if b.Offset != 0 || !b.Empty() {
			out = append(out, blobDigest(region, b))
		}
	}
	tails := func(region string, n int, tail func(i int) []byte) {
		if n == 0 {
			return
		}
		parts := make([][]byte, n)
		for i := range parts {
			parts[i] = tail(i)
		}
		out = append(out, concatDigest(region, parts))
	}

	for _, b := range l.EngineBlobs() {
		add(b.Region, b)
	}
	for i, a := range l.PlayerAnimations {
		add(fmt.Sprintf("%s[%d]", level.RegionPlayerAnimation, i), a.Frames)
	}
	for _, t := range l.Localization {
		add("localization."+string(t.Language), t.Blob)
	}
	for i, p := range l.Pvars {
		add(fmt.Sprintf("%s[%d]", level.RegionPvar, i), p)
	}
	for _, tag := range format.FixedTypeTags {
		list, ok := l.TypedRecords[tag]
		if !ok || list.Count() == 0 {
			continue
		}
		out = append(out, concatDigest(string(tag), list.Records))
	}
	for _, tag := range format.UnknownTags {
		add(tag, l.UnknownBlobs[tag])
	}
	add(level.RegionTieData, l.TieData)
	add(level.RegionShrubData, l.ShrubData)
	for i, o := range l.VramOrphans {
		add(fmt.Sprintf("%s[%d]", level.RegionVramOrphan, i), o)
	}

	out = append(out, concatDigest(RegionLevelVariablesTail, [][]byte{l.LevelVariables.Tail}))
	tails(RegionMobyTails, len(l.Mobies), func(i int) []byte { return l.Mobies[i].Tail })
	tails(RegionLightTails, len(l.Lights), func(i int) []byte { return l.Lights[i].Tail })
	tails(RegionTerrainElementTails, len(l.TerrainElements), func(i int) []byte { return l.TerrainElements[i].Tail })
	return out
}
