package convert

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/rcforge/levelcore/internal/model"
	"github.com/rcforge/levelcore/pkg/core"
)

// countsToJSON converts a count map to datatypes.JSON for DB storage.
func countsToJSON(counts map[string]int) datatypes.JSON {
	if len(counts) == 0 {
		return datatypes.JSON("{}")
	}
	data, _ := json.Marshal(counts)
	return datatypes.JSON(data)
}

func jsonToCounts(data datatypes.JSON) (map[string]int, error) {
	counts := make(map[string]int)
	if len(data) == 0 {
		return counts, nil
	}
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// ManifestToLevel converts a core.Manifest to a GORM model.Level with its blob rows.
func ManifestToLevel(m core.Manifest) model.Level {
	blobs := make([]model.Blob, len(m.Blobs))
	for i, b := range m.Blobs {
		blobs[i] = model.Blob{
			Region: b.Region,
			Offset: b.Offset,
			Length: b.Length,
			XXHash: b.XXHash,
		}
	}

	return model.Level{
		Path:           m.Path,
		Variant:        m.Variant,
		Valid:          m.Valid,
		DecodedAt:      m.DecodedAt,
		Digest:         m.Digest(),
		Models:         countsToJSON(m.Models),
		Instances:      countsToJSON(m.Instances),
		TexturesTotal:  m.Textures.Total,
		TexturesFilled: m.Textures.Filled,
		VramOrphans:    m.Textures.Orphans,
		PayloadBytes:   m.Textures.PayloadBytes,
		Unresolved:     m.Unresolved,
		Blobs:          blobs,
	}
}

// LevelToCore converts a GORM model.Level, with its Blobs preloaded, back to a core.Manifest.
func LevelToCore(l model.Level) (core.Manifest, error) {
	models, err := jsonToCounts(l.Models)
	if err != nil {
		return core.Manifest{}, fmt.Errorf("level %d models: %w", l.ID, err)
	}
	instances, err := jsonToCounts(l.Instances)
	if err != nil {
		return core.Manifest{}, fmt.Errorf("level %d instances: %w", l.ID, err)
	}

	var blobs []core.BlobDigest
	for _, b := range l.Blobs {
		blobs = append(blobs, core.BlobDigest{
			Region: b.Region,
			Offset: b.Offset,
			Length: b.Length,
			XXHash: b.XXHash,
		})
	}

	return core.Manifest{
		Path:      l.Path,
		Variant:   l.Variant,
		Valid:     l.Valid,
		DecodedAt: l.DecodedAt,
		Models:    models,
		Instances: instances,
		Textures: core.TextureStats{
			Total:        l.TexturesTotal,
			Filled:       l.TexturesFilled,
			Orphans:      l.VramOrphans,
			PayloadBytes: l.PayloadBytes,
		},
		Blobs:      blobs,
		Unresolved: l.Unresolved,
	}, nil
}
