package level

import (
	"fmt"

	"github.com/rcforge/levelcore/internal/format"
)

// Category tags a static model by its place in the engine file.
type Category string

const (
	CategoryMoby      Category = "moby"
	CategoryTie       Category = "tie"
	CategoryShrub     Category = "shrub"
	CategoryWeapon    Category = "weapon"
	CategorySkybox    Category = "skybox"
	CategoryCollision Category = "collision"
	CategoryTerrain   Category = "terrain"
)

// Categories lists every static model category in engine order.
var Categories = []Category{
	CategoryMoby, CategoryTie, CategoryShrub, CategoryWeapon,
	CategorySkybox, CategoryCollision, CategoryTerrain,
}

// ParseCategory maps a category name to its Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown model category %q", s)
}

// Section returns the engine header descriptor holding the models of c.
func (c Category) Section() format.EngineSection {
	switch c {
	case CategoryMoby:
		return format.EngineMobyModels
	case CategoryTie:
		return format.EngineTieModels
	case CategoryShrub:
		return format.EngineShrubModels
	case CategoryWeapon:
		return format.EngineWeaponModels
	case CategorySkybox:
		return format.EngineSkybox
	case CategoryCollision:
		return format.EngineCollision
	}
	return format.EngineTerrain
}

// VertexStride is the number of float32 per vertex for c.
// Collision vertices carry only a position; their material id is in VertexTags.
func (c Category) VertexStride() int {
	if c == CategoryCollision {
		return 3
	}
	return 8
}

// TextureConfig binds a texture to a range of the index buffer.
type TextureConfig struct {
	TextureIndex int32
	Start        int32
	Size         int32
	Mode         uint32
}

// StaticModel is one mesh asset of the engine file.
type StaticModel struct {
	ID       int32
	Category Category
	Size     float32

	// Vertices holds VertexStride() floats per vertex:
	// position xyz, normal xyz, uv (position only for collision).
	Vertices   []float32
	VertexTags []uint32
	Indices    []uint16

	TextureConfigs []TextureConfig
}

// VertexCount returns the number of vertices in the buffer.
func (m *StaticModel) VertexCount() int {
	return len(m.Vertices) / m.Category.VertexStride()
}

// PixelFormat is the GCM texture format code.
type PixelFormat uint8

const (
	FormatB8       PixelFormat = 0x81
	FormatA8R8G8B8 PixelFormat = 0x85
	FormatDXT1     PixelFormat = 0x86
	FormatDXT3     PixelFormat = 0x87
	FormatDXT5     PixelFormat = 0x88
)

// BitsPerPixel returns 0 for unknown formats.
func (f PixelFormat) BitsPerPixel() int {
	switch f {
	case FormatB8, FormatDXT3, FormatDXT5:
		return 8
	case FormatA8R8G8B8:
		return 32
	case FormatDXT1:
		return 4
	}
	return 0
}

// Known reports whether f is a supported format.
func (f PixelFormat) Known() bool { return f.BitsPerPixel() > 0 }

// PayloadSize is the exact pixel payload length of a w x h texture.
func (f PixelFormat) PayloadSize(w, h int) int {
	return w * h * f.BitsPerPixel() / 8
}

func (f PixelFormat) String() string {
	switch f {
	case FormatB8:
		return "B8"
	case FormatA8R8G8B8:
		return "A8R8G8B8"
	case FormatDXT1:
		return "DXT1"
	case FormatDXT3:
		return "DXT3"
	case FormatDXT5:
		return "DXT5"
	}
	return fmt.Sprintf("format(0x%02X)", uint8(f))
}

// Texture is one entry of the texture table. Payload is filled from the vram file.
type Texture struct {
	Index    int
	Width    int
	Height   int
	Format   PixelFormat
	MipCount uint8
	Reserved uint16
	Flags    uint32
	VramHint uint32
	Payload  []byte
}

// ExpectedPayloadSize is the payload length the dimensions and format require.
func (t *Texture) ExpectedPayloadSize() int {
	return t.Format.PayloadSize(t.Width, t.Height)
}

// Filled reports whether the vram file supplied pixels for the texture.
func (t *Texture) Filled() bool { return len(t.Payload) > 0 }
