package levelfixture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

// Files are the three images of one level. A nil image is not written.
type Files struct {
	Engine   []byte
	Vram     []byte
	Gameplay []byte
}

// WriteDir writes files under dir with their level file names and returns
// the engine file path.
func WriteDir(dir string, f Files) (string, error) {
	write := func(name string, data []byte) error {
		if data == nil {
			return nil
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}
	if err := write(format.EngineFileName, f.Engine); err != nil {
		return "", err
	}
	if err := write(format.VramFileName, f.Vram); err != nil {
		return "", err
	}
	if err := write(format.GameplayFileName, f.Gameplay); err != nil {
		return "", err
	}
	return filepath.Join(dir, format.EngineFileName), nil
}

// Set is the source description of a complete level.
type Set struct {
	Engine   Engine
	Vram     []VramEntry
	Gameplay Gameplay
}

// Files builds the three images of s.
func (s *Set) Files() Files {
	return Files{
		Engine:   s.Engine.Build(),
		Vram:     Vram(s.Vram),
		Gameplay: s.Gameplay.Build(),
	}
}

// Orphan texture index carried by the sample vram file.
const SampleOrphanIndex = 9

func triangle(id int32, c level.Category, texture int32) *level.StaticModel {
	m := &level.StaticModel{ID: id, Category: c, Size: float32(id) / 4, Indices: []uint16{0, 1, 2}}
	corners := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, float32(id)}}
	for i, p := range corners {
		if c == level.CategoryCollision {
			m.Vertices = append(m.Vertices, p[0], p[1], p[2])
			m.VertexTags = append(m.VertexTags, uint32(0x10+i))
			continue
		}
		m.Vertices = append(m.Vertices, p[0], p[1], p[2], 0, 0, 1, p[0], p[1])
	}
	if texture >= 0 {
		m.TextureConfigs = []level.TextureConfig{{TextureIndex: texture, Start: 0, Size: 3, Mode: 1}}
	}
	return m
}

func tail(n int, seed byte) []byte {
	if n <= 0 {
		return nil
	}
	return Pattern(seed, n)
}

func stringTable(texts ...string) []byte {
	header := 8 + 0x10*len(texts)
	buf := make([]byte, header)
	binary.BigEndian.PutUint32(buf[0:], uint32(len(texts)))
	for i, text := range texts {
		off := len(buf)
		buf = append(buf, text...)
		buf = append(buf, 0)
		entry := buf[8+0x10*i:]
		binary.BigEndian.PutUint32(entry[0:], uint32(off))
		binary.BigEndian.PutUint32(entry[4:], uint32(i+1))
		binary.BigEndian.PutUint32(entry[8:], 0xFFFFFFFF)
	}
	binary.BigEndian.PutUint32(buf[4:], uint32(len(buf)))
	return buf
}

// Sample returns a complete level for variant v. It has tie models 10, 11
// and 12 with tie instances referencing 10, 11, 10, 99 and 12, textures 0..4
// with vram payloads for 0, 1 and 3 only, an orphan vram region and one moby
// referencing a missing model.
func Sample(v format.GameVariant) *Set {
	layout := mustLayout(v)

	textures := []*level.Texture{
		{Index: 0, Width: 4, Height: 4, Format: level.FormatB8, MipCount: 1, Flags: 0x1},
		{Index: 1, Width: 4, Height: 4, Format: level.FormatA8R8G8B8, MipCount: 1, VramHint: 0x100},
		{Index: 2, Width: 8, Height: 8, Format: level.FormatDXT1, MipCount: 2},
		{Index: 3, Width: 4, Height: 4, Format: level.FormatDXT5, MipCount: 1, Reserved: 0xBEEF},
		{Index: 4, Width: 4, Height: 4, Format: level.FormatDXT3, MipCount: 1},
	}

	engine := Engine{
		Variant: v,
		Models: map[level.Category][]*level.StaticModel{
			level.CategoryMoby:      {triangle(100, level.CategoryMoby, 0), triangle(101, level.CategoryMoby, 1)},
			level.CategoryTie:       {triangle(10, level.CategoryTie, 0), triangle(11, level.CategoryTie, 2), triangle(12, level.CategoryTie, -1)},
			level.CategoryShrub:     {triangle(200, level.CategoryShrub, 3)},
			level.CategoryWeapon:    {triangle(300, level.CategoryWeapon, 4)},
			level.CategorySkybox:    {triangle(0, level.CategorySkybox, 1)},
			level.CategoryCollision: {triangle(0, level.CategoryCollision, -1)},
			level.CategoryTerrain:   {triangle(0, level.CategoryTerrain, 0), triangle(1, level.CategoryTerrain, 0)},
		},
		Textures: textures,
		UiElements: []level.UiElement{
			{ID: 1, Sprites: []int32{0, 1}},
			{ID: 2, Sprites: []int32{3}},
		},
		Animations: []level.Animation{
			{Speed: 0.5, FrameCount: 2, FrameSize: 8, Frames: level.NewBlob(level.RegionPlayerAnimation, 0, Pattern(0x30, 16))},
			{Speed: 1, FrameCount: 1, FrameSize: 4, Frames: level.NewBlob(level.RegionPlayerAnimation, 0, Pattern(0x40, 4))},
		},
		TextureConfigMenu: []int32{0, 1, 2},
		Blobs: map[format.EngineSection][]byte{
			format.EngineRenderDef:      Pattern(0x01, 0x24),
			format.EngineCollisionBytes: Pattern(0x02, 0x31),
			format.EngineBillboard:      Pattern(0x03, 0x10),
			format.EngineSoundConfig:    Pattern(0x04, 0x09),
			format.EngineLightConfig:    Pattern(0x05, 0x20),
			format.EngineTerrainBytes:   Pattern(0x06, 0x40),
		},
	}

	vram := []VramEntry{
		{TextureIndex: 0, Data: Pattern(0x50, textures[0].ExpectedPayloadSize())},
		{TextureIndex: 1, Data: Pattern(0x60, textures[1].ExpectedPayloadSize())},
		{TextureIndex: 3, Data: Pattern(0x70, textures[3].ExpectedPayloadSize())},
		{TextureIndex: SampleOrphanIndex, Data: Pattern(0x80, 0x18)},
	}

	mobyTail := layout.MobyRecordSize - mobyFixedSize
	tieIDs := []int32{10, 11, 10, 99, 12}
	ties := make([]level.Tie, len(tieIDs))
	for i, id := range tieIDs {
		ties[i] = level.Tie{
			Model:      level.ModelRef{ID: id},
			UID:        uint32(1000 + i),
			LightIndex: uint32(i % 2),
			Color:      level.Color{R: 0x80, G: 0x80, B: 0x80, A: 0xFF},
			Transform:  mgl32.Translate3D(float32(i), 0, 2),
		}
	}

	gameplay := Gameplay{
		Variant: v,
		LevelVariables: level.LevelVariables{
			BackgroundColor:  level.Color{R: 10, G: 20, B: 30, A: 255},
			FogColor:         level.Color{R: 40, G: 50, B: 60, A: 255},
			FogNearDistance:  10,
			FogFarDistance:   300,
			FogNearIntensity: 0,
			FogFarIntensity:  0.75,
			DeathPlaneZ:      -50,
			ShipPosition:     mgl32.Vec3{100, 200, 30},
			ShipRotation:     1.5,
			ShipPathID:       -1,
			Tail:             Pattern(0x90, 0x10),
		},
		Mobies: []level.Moby{
			{MobyID: 1, Model: level.ModelRef{ID: 100}, PvarIndex: 0, MissionID: -1, UpdateDistance: 64, DrawDistance: 128,
				Position: mgl32.Vec3{1, 2, 3}, Scale: 1, Color: level.Color{A: 255}, SpawnType: 1, Tail: tail(mobyTail, 0xA0)},
			{MobyID: 2, Model: level.ModelRef{ID: 101}, PvarIndex: -1, MissionID: 3, UpdateDistance: 32, DrawDistance: 64,
				Position: mgl32.Vec3{4, 5, 6}, Rotation: mgl32.Vec3{0, 0, 1.5}, Scale: 2, Tail: tail(mobyTail, 0xB0)},
			{MobyID: 3, Model: level.ModelRef{ID: 555}, PvarIndex: 1, MissionID: -1, UpdateDistance: 16, DrawDistance: 16,
				Position: mgl32.Vec3{7, 8, 9}, Scale: 0.5, Tail: tail(mobyTail, 0xC0)},
		},
		Ties: ties,
		Shrubs: []level.Shrub{
			{Model: level.ModelRef{ID: 200}, UID: 1, LightIndex: 0, Color: level.Color{G: 255, A: 255}, Transform: mgl32.Translate3D(5, 5, 0)},
			{Model: level.ModelRef{ID: 200}, UID: 2, LightIndex: 1, Transform: mgl32.Scale3D(2, 2, 2)},
		},
		Lights: []level.Light{
			{Position: mgl32.Vec4{0, 0, 10, 1}, Color: mgl32.Vec4{1, 1, 1, 1}, Direction: mgl32.Vec4{0, 0, -1, 0}, Tail: Pattern(0xD0, lightTailSize)},
			{Position: mgl32.Vec4{5, 0, 10, 1}, Color: mgl32.Vec4{1, 0.5, 0, 1}, Direction: mgl32.Vec4{1, 0, 0, 0}, Tail: make([]byte, lightTailSize)},
		},
		Splines: []level.Spline{
			{Reserved: make([]byte, splineHeaderSize-4), Vertices: []mgl32.Vec4{{0, 0, 0, 0}, {1, 1, 0, 1}, {2, 0, 0, 2}}},
			{Reserved: Pattern(0xE0, splineHeaderSize-4), Vertices: []mgl32.Vec4{{5, 5, 5, 0}}},
		},
		SpawnPoints: []level.SpawnPoint{
			{Primary: mgl32.Ident4(), Secondary: mgl32.Translate3D(1, 2, 3)},
		},
		Cameras: []level.GameCamera{
			{ID: 1, Position: mgl32.Vec3{0, -10, 5}, Rotation: mgl32.Vec3{0.3, 0, 0}, Tail: 7},
			{ID: 2, Position: mgl32.Vec3{3, 3, 3}},
		},
		TerrainElements: []level.TerrainElement{
			{Fragment: level.ModelRef{ID: 0}, Chunk: 0, Tail: make([]byte, terrainElementSize-8)},
			{Fragment: level.ModelRef{ID: 1}, Chunk: 1, Tail: Pattern(0xF0, terrainElementSize-8)},
		},
		Languages: map[level.LanguageTag][]byte{
			level.LangEnglish:   stringTable("Metropolis", "Find the gadget"),
			level.LangUKEnglish: stringTable("Metropolis", "Find the gadget"),
			level.LangFrench:    stringTable("Metropole"),
			level.LangGerman:    stringTable("Metropole"),
			level.LangSpanish:   stringTable("Metropolis"),
			level.LangItalian:   stringTable("Metropoli"),
			level.Lang7:         Pattern(0x11, 0x14),
			level.Lang8:         Pattern(0x12, 0x0B),
		},
		Pvars: [][]byte{Pattern(0x21, 0x20), Pattern(0x22, 0x08)},
		TypedRecords: map[format.TypeTag][][]byte{
			format.Type04: {Pattern(0x31, layout.TypeRecordSizes[format.Type04])},
			format.Type0C: {Pattern(0x32, layout.TypeRecordSizes[format.Type0C]), Pattern(0x33, layout.TypeRecordSizes[format.Type0C])},
			format.Type64: {Pattern(0x34, layout.TypeRecordSizes[format.Type64])},
			format.Type80: {Pattern(0x35, layout.TypeRecordSizes[format.Type80])},
			format.Type88: {Pattern(0x36, layout.TypeRecordSizes[format.Type88])},
		},
		Pairs: map[format.TypeTag][]level.IDPair{
			format.Type50: {{Key: 1, Value: 2}, {Key: 3, Value: 4}},
			format.Type5C: {{Key: -1, Value: 0}},
		},
		Unknown: map[string][]byte{
			"unk6":  Pattern(0x41, 0x10),
			"unk9":  Pattern(0x42, 0x05),
			"unk17": Pattern(0x43, 0x30),
		},
		TieData:   Pattern(0x51, len(ties)*layout.TieDataStride),
		ShrubData: Pattern(0x52, 2*layout.ShrubDataStride),
		IDTables: level.IDTables{
			MobyIDs:  []int32{1, 2, 3},
			TieIDs:   []int32{0, 1, 2, 3, 4},
			ShrubIDs: []int32{0, 1},
		},
		Occlusion: &level.OcclusionData{
			Mobies: []level.IDPair{{Key: 1, Value: 0}},
			Ties:   []level.IDPair{{Key: 1000, Value: 1}, {Key: 1001, Value: 2}},
			Shrubs: nil,
		},
	}

	return &Set{Engine: engine, Vram: vram, Gameplay: gameplay}
}
