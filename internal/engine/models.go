package engine

import (
	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

const (
	modelHeaderSize   = 0x20
	vertexSize        = 0x20
	collisionVertSize = 0x10
)

type modelHeader struct {
	ID              int32
	VertexOffset    uint32
	VertexCount     int32
	IndexOffset     uint32
	IndexCount      int32
	TexConfigOffset uint32
	TexConfigCount  int32
	Size            float32
}

type collisionVertex struct {
	Position [3]float32
	Material uint32
}

// StaticModels decodes the model list of one category. An absent list is empty.
func (d *Decoder) StaticModels(c level.Category) ([]*level.StaticModel, error) {
	s := c.Section()
	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() {
		return nil, err
	}

	headers, err := binfile.ReadRecords[modelHeader](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(s, err)
	}

	seen := make(map[int32]struct{}, len(headers))
	models := make([]*level.StaticModel, 0, len(headers))
	for i, h := range headers {
		if _, dup := seen[h.ID]; dup {
			return nil, format.Wrap(s, format.Corruptf("duplicate model id %d", h.ID))
		}
		seen[h.ID] = struct{}{}

		m, err := d.staticModel(c, h)
		if err != nil {
			return nil, format.Wrap(stage(describe(s, i)), err)
		}
		models = append(models, m)
	}

	d.logger.Debug("Decoded static models", "category", c, "count", len(models))
	return models, nil
}

func (d *Decoder) staticModel(c level.Category, h modelHeader) (*level.StaticModel, error) {
	if err := checkCount("vertices", h.VertexCount); err != nil {
		return nil, err
	}
	if err := checkCount("indices", h.IndexCount); err != nil {
		return nil, err
	}
	if err := checkCount("texture configs", h.TexConfigCount); err != nil {
		return nil, err
	}

	m := &level.StaticModel{ID: h.ID, Category: c, Size: h.Size}

	if h.VertexCount > 0 {
		if c == level.CategoryCollision {
			verts, err := binfile.ReadRecords[collisionVertex](d.src, int64(h.VertexOffset), int(h.VertexCount))
			if err != nil {
				return nil, err
			}
			m.Vertices = make([]float32, 0, 3*len(verts))
			m.VertexTags = make([]uint32, 0, len(verts))
			for _, v := range verts {
				m.Vertices = append(m.Vertices, v.Position[:]...)
				m.VertexTags = append(m.VertexTags, v.Material)
			}
		} else {
			verts, err := binfile.ReadRecords[float32](d.src, int64(h.VertexOffset), int(h.VertexCount)*c.VertexStride())
			if err != nil {
				return nil, err
			}
			m.Vertices = verts
		}
	}

	if h.IndexCount > 0 {
		indices, err := binfile.ReadRecords[uint16](d.src, int64(h.IndexOffset), int(h.IndexCount))
		if err != nil {
			return nil, err
		}
		for i, idx := range indices {
			if int32(idx) >= h.VertexCount {
				return nil, format.Corruptf("index %d is %d, model has %d vertices", i, idx, h.VertexCount)
			}
		}
		m.Indices = indices
	}

	if h.TexConfigCount > 0 {
		configs, err := binfile.ReadRecords[level.TextureConfig](d.src, int64(h.TexConfigOffset), int(h.TexConfigCount))
		if err != nil {
			return nil, err
		}
		for i, tc := range configs {
			if tc.Start < 0 || tc.Size < 0 || int64(tc.Start)+int64(tc.Size) > int64(h.IndexCount) {
				return nil, format.Corruptf("texture config %d draws [%d, +%d) of %d indices", i, tc.Start, tc.Size, h.IndexCount)
			}
		}
		m.TextureConfigs = configs
	}
	return m, nil
}
