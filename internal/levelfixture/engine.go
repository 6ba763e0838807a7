// Package levelfixture lays out engine, vram and gameplay images byte by byte
// so the decoders can be tested against real files.
package levelfixture

import (
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

// Engine describes the content of an engine file.
type Engine struct {
	Variant           format.GameVariant
	Models            map[level.Category][]*level.StaticModel
	Textures          []*level.Texture
	UiElements        []level.UiElement
	Animations        []level.Animation
	TextureConfigMenu []int32
	Blobs             map[format.EngineSection][]byte
}

const (
	modelHeaderSize     = 0x20
	textureHeaderSize   = 0x10
	uiElementSize       = 0x08
	animationHeaderSize = 0x10
)

func mustLayout(v format.GameVariant) *format.Layout {
	l, err := format.LayoutFor(v)
	if err != nil {
		panic(err)
	}
	return l
}

// Build returns the engine file bytes.
func (e *Engine) Build() []byte {
	layout := mustLayout(e.Variant)
	im := newImage(layout.EngineHeaderSize())
	im.putUint32(format.SignatureOffset, uint32(e.Variant))
	desc := func(s format.EngineSection, off uint32, count int32) {
		im.putDescriptor(layout.EngineDescriptorOffset(s), off, count)
	}

	// Follow header order so the byte layout differs per variant too.
	for _, s := range layout.EngineOrder {
		switch s {
		case format.EngineTextures:
			if len(e.Textures) > 0 {
				desc(s, writeTextures(im, e.Textures), int32(len(e.Textures)))
			}
		case format.EngineUiElements:
			if len(e.UiElements) > 0 {
				desc(s, writeUiElements(im, e.UiElements), int32(len(e.UiElements)))
			}
		case format.EnginePlayerAnimations:
			if len(e.Animations) > 0 {
				desc(s, writeAnimations(im, e.Animations), int32(len(e.Animations)))
			}
		case format.EngineTextureConfigMenu:
			if len(e.TextureConfigMenu) > 0 {
				off := im.offset()
				im.write(e.TextureConfigMenu)
				desc(s, off, int32(len(e.TextureConfigMenu)))
			}
		case format.EngineRenderDef, format.EngineCollisionBytes, format.EngineBillboard,
			format.EngineSoundConfig, format.EngineLightConfig, format.EngineTerrainBytes:
			off, n := im.blob(e.Blobs[s])
			desc(s, off, n)
		default:
			for _, c := range level.Categories {
				if c.Section() == s && len(e.Models[c]) > 0 {
					desc(s, writeModels(im, c, e.Models[c]), int32(len(e.Models[c])))
				}
			}
		}
	}
	return im.b
}

func writeModels(im *image, c level.Category, models []*level.StaticModel) uint32 {
	table := im.reserve(len(models) * modelHeaderSize)
	for i, m := range models {
		at := int64(table) + int64(i*modelHeaderSize)

		var vertOff uint32
		vertCount := m.VertexCount()
		if vertCount > 0 {
			vertOff = im.offset()
			stride := c.VertexStride()
			for v := 0; v < vertCount; v++ {
				im.write(m.Vertices[v*stride : (v+1)*stride])
				if c == level.CategoryCollision {
					var tag uint32
					if v < len(m.VertexTags) {
						tag = m.VertexTags[v]
					}
					im.write(tag)
				}
			}
		}

		var idxOff uint32
		if len(m.Indices) > 0 {
			idxOff = im.offset()
			im.write(m.Indices)
		}

		var texOff uint32
		if len(m.TextureConfigs) > 0 {
			texOff = im.offset()
			im.write(m.TextureConfigs)
		}

		hdr := newImage(0)
		hdr.write(m.ID, vertOff, int32(vertCount), idxOff, int32(len(m.Indices)),
			texOff, int32(len(m.TextureConfigs)), m.Size)
		copy(im.b[at:], hdr.b)
	}
	return table
}

func writeTextures(im *image, textures []*level.Texture) uint32 {
	off := im.offset()
	for _, t := range textures {
		im.write(uint16(t.Width), uint16(t.Height), uint8(t.Format), t.MipCount,
			t.Reserved, t.Flags, t.VramHint)
	}
	return off
}

func writeUiElements(im *image, elems []level.UiElement) uint32 {
	table := im.reserve(len(elems) * uiElementSize)
	for i, e := range elems {
		var spritesOff uint32
		if len(e.Sprites) > 0 {
			spritesOff = im.offset()
			im.write(e.Sprites)
		}
		hdr := newImage(0)
		hdr.write(e.ID, uint16(len(e.Sprites)), spritesOff)
		copy(im.b[int(table)+i*uiElementSize:], hdr.b)
	}
	return table
}

func writeAnimations(im *image, anims []level.Animation) uint32 {
	table := im.reserve(len(anims) * animationHeaderSize)
	for i, a := range anims {
		dataOff, _ := im.blob(a.Frames.Data)
		hdr := newImage(0)
		hdr.write(a.Speed, a.FrameCount, a.FrameSize, dataOff)
		copy(im.b[int(table)+i*animationHeaderSize:], hdr.b)
	}
	return table
}

// VramEntry is one region of a vram file.
type VramEntry struct {
	TextureIndex uint32
	Data         []byte
}

const vramEntrySize = 0x0C

// Vram returns the vram file bytes for entries.
func Vram(entries []VramEntry) []byte {
	im := newImage(4 + len(entries)*vramEntrySize)
	im.putUint32(0, uint32(len(entries)))
	for i, e := range entries {
		off, n := im.blob(e.Data)
		at := int64(4 + i*vramEntrySize)
		im.putUint32(at, e.TextureIndex)
		im.putUint32(at+4, off)
		im.putUint32(at+8, uint32(n))
	}
	return im.b
}
