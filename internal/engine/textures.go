package engine

import (
	"fmt"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

type textureHeader struct {
	Width    uint16
	Height   uint16
	Format   uint8
	MipCount uint8
	Reserved uint16
	Flags    uint32
	VramHint uint32
}

type uiElementHeader struct {
	ID            uint16
	SpriteCount   uint16
	SpritesOffset uint32
}

type animationHeader struct {
	Speed      float32
	FrameCount int32
	FrameSize  int32
	DataOffset uint32
}

// Textures decodes the texture table. Payloads stay empty until the vram file is read.
func (d *Decoder) Textures() ([]*level.Texture, error) {
	desc, err := d.descriptor(format.EngineTextures)
	if err != nil || !desc.Present() {
		return nil, err
	}
	headers, err := binfile.ReadRecords[textureHeader](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.EngineTextures, err)
	}

	textures := make([]*level.Texture, len(headers))
	for i, h := range headers {
		pf := level.PixelFormat(h.Format)
		if !pf.Known() {
			return nil, format.Wrap(stage(describe(format.EngineTextures, i)),
				format.Corruptf("unknown pixel format 0x%02X", h.Format))
		}
		textures[i] = &level.Texture{
			Index:    i,
			Width:    int(h.Width),
			Height:   int(h.Height),
			Format:   pf,
			MipCount: h.MipCount,
			Reserved: h.Reserved,
			Flags:    h.Flags,
			VramHint: h.VramHint,
		}
	}

	d.logger.Debug("Decoded texture table", "count", len(textures))
	return textures, nil
}

// UiElements decodes the HUD sprite groups.
func (d *Decoder) UiElements() ([]level.UiElement, error) {
	desc, err := d.descriptor(format.EngineUiElements)
	if err != nil || !desc.Present() {
		return nil, err
	}
	headers, err := binfile.ReadRecords[uiElementHeader](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.EngineUiElements, err)
	}

	elems := make([]level.UiElement, len(headers))
	for i, h := range headers {
		elems[i].ID = h.ID
		if h.SpriteCount == 0 {
			continue
		}
		sprites, err := binfile.ReadRecords[int32](d.src, int64(h.SpritesOffset), int(h.SpriteCount))
		if err != nil {
			return nil, format.Wrap(stage(describe(format.EngineUiElements, i)), err)
		}
		elems[i].Sprites = sprites
	}
	return elems, nil
}

// PlayerAnimations decodes the animation headers and keeps each frame block verbatim.
func (d *Decoder) PlayerAnimations() ([]level.Animation, error) {
	desc, err := d.descriptor(format.EnginePlayerAnimations)
	if err != nil || !desc.Present() {
		return nil, err
	}
	headers, err := binfile.ReadRecords[animationHeader](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.EnginePlayerAnimations, err)
	}

	anims := make([]level.Animation, len(headers))
	for i, h := range headers {
		where := stage(describe(format.EnginePlayerAnimations, i))
		if err := checkCount("frames", h.FrameCount); err != nil {
			return nil, format.Wrap(where, err)
		}
		if err := checkCount("frame size", h.FrameSize); err != nil {
			return nil, format.Wrap(where, err)
		}
		anims[i] = level.Animation{
			Index:      i,
			Speed:      h.Speed,
			FrameCount: h.FrameCount,
			FrameSize:  h.FrameSize,
		}
		n := sizeOf(h.FrameCount, h.FrameSize)
		if n == 0 {
			anims[i].Frames = level.OpaqueBlob{Region: level.RegionPlayerAnimation, Offset: int64(h.DataOffset)}
			continue
		}
		data, err := d.src.ReadAt(int64(h.DataOffset), n)
		if err != nil {
			return nil, format.Wrap(where, err)
		}
		anims[i].Frames = level.OpaqueBlob{Region: level.RegionPlayerAnimation, Offset: int64(h.DataOffset), Data: data}
	}
	return anims, nil
}

// TextureConfigMenus decodes the texture index list of the config menu.
func (d *Decoder) TextureConfigMenus() ([]int32, error) {
	desc, err := d.descriptor(format.EngineTextureConfigMenu)
	if err != nil || !desc.Present() {
		return nil, err
	}
	menu, err := binfile.ReadRecords[int32](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.EngineTextureConfigMenu, err)
	}
	return menu, nil
}

var blobRegions = map[format.EngineSection]string{
	format.EngineRenderDef:      level.RegionRenderDef,
	format.EngineCollisionBytes: level.RegionCollisionBytes,
	format.EngineBillboard:      level.RegionBillboard,
	format.EngineSoundConfig:    level.RegionSoundConfig,
	format.EngineLightConfig:    level.RegionLightConfig,
	format.EngineTerrainBytes:   level.RegionTerrainBytes,
}

// BlobSections lists the engine sections kept as opaque blobs, in RaC1 header order.
var BlobSections = []format.EngineSection{
	format.EngineRenderDef, format.EngineCollisionBytes, format.EngineBillboard,
	format.EngineSoundConfig, format.EngineLightConfig, format.EngineTerrainBytes,
}

// OpaqueBlob returns the bytes of a named blob section verbatim. An absent
// section is an empty blob.
func (d *Decoder) OpaqueBlob(s format.EngineSection) (level.OpaqueBlob, error) {
	region, ok := blobRegions[s]
	if !ok {
		return level.OpaqueBlob{}, fmt.Errorf("%s is not a blob section", s)
	}
	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() {
		return level.OpaqueBlob{Region: region}, err
	}
	data, err := d.src.ReadAt(int64(desc.Offset), int64(desc.Count))
	if err != nil {
		return level.OpaqueBlob{}, format.Wrap(s, err)
	}
	return level.OpaqueBlob{Region: region, Offset: int64(desc.Offset), Data: data}, nil
}
