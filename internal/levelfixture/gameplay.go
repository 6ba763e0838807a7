package levelfixture

import (
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

// Gameplay describes the content of a gameplay file. Nil or empty fields
// leave their section absent, except LevelVariables which is always written.
type Gameplay struct {
	Variant         format.GameVariant
	LevelVariables  level.LevelVariables
	Mobies          []level.Moby
	Ties            []level.Tie
	Shrubs          []level.Shrub
	Lights          []level.Light
	Splines         []level.Spline
	SpawnPoints     []level.SpawnPoint
	Cameras         []level.GameCamera
	TerrainElements []level.TerrainElement
	Languages       map[level.LanguageTag][]byte
	Pvars           [][]byte
	TypedRecords    map[format.TypeTag][][]byte
	Pairs           map[format.TypeTag][]level.IDPair
	Unknown         map[string][]byte
	TieData         []byte
	ShrubData       []byte
	IDTables        level.IDTables
	Occlusion       *level.OcclusionData
}

const (
	levelVariablesSize = 0x40
	mobyFixedSize      = 0x3C
	instanceSize       = 0x50
	lightSize          = 0x40
	lightTailSize      = 0x10
	splineHeaderSize   = 0x10
	spawnPointSize     = 0x80
	cameraSize         = 0x20
	terrainElementSize = 0x10
	pvarEntrySize      = 0x08
)

var languageSections = map[level.LanguageTag]format.GameplaySection{
	level.LangEnglish:   format.GameplayLangEnglish,
	level.LangUKEnglish: format.GameplayLangUKEnglish,
	level.LangFrench:    format.GameplayLangFrench,
	level.LangGerman:    format.GameplayLangGerman,
	level.LangSpanish:   format.GameplayLangSpanish,
	level.LangItalian:   format.GameplayLangItalian,
	level.Lang7:         format.GameplayLang7,
	level.Lang8:         format.GameplayLang8,
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Build returns the gameplay file bytes.
func (g *Gameplay) Build() []byte {
	layout := mustLayout(g.Variant)
	im := newImage(format.GameplayHeaderSize)
	im.putUint32(format.SignatureOffset, uint32(g.Variant))
	desc := func(s format.GameplaySection, off uint32, count int32) {
		im.putDescriptor(layout.GameplayDescriptorOffset(s), off, count)
	}

	lv := g.LevelVariables
	off := im.offset()
	im.write(lv.BackgroundColor, lv.FogColor, lv.FogNearDistance, lv.FogFarDistance,
		lv.FogNearIntensity, lv.FogFarIntensity, lv.DeathPlaneZ, boolWord(lv.IsSpherical),
		lv.SphereCenter, lv.ShipPosition, lv.ShipRotation, lv.ShipPathID)
	im.b = append(im.b, lv.Tail...)
	desc(format.GameplayLevelVariables, off, int32(levelVariablesSize+len(lv.Tail)))

	if len(g.Mobies) > 0 {
		off := im.offset()
		for _, m := range g.Mobies {
			im.write(m.MobyID, m.Model.ID, m.PvarIndex, m.MissionID, m.UpdateDistance,
				m.DrawDistance, m.Position, m.Rotation, m.Scale, m.Color, m.SpawnType)
			im.b = append(im.b, padded(m.Tail, layout.MobyRecordSize-mobyFixedSize)...)
		}
		desc(format.GameplayMobies, off, int32(len(g.Mobies)))
	}
	if len(g.Ties) > 0 {
		off := im.offset()
		for _, t := range g.Ties {
			im.write(t.Model.ID, t.UID, t.LightIndex, t.Color, t.Transform)
		}
		desc(format.GameplayTies, off, int32(len(g.Ties)))
	}
	if len(g.Shrubs) > 0 {
		off := im.offset()
		for _, s := range g.Shrubs {
			im.write(s.Model.ID, s.UID, s.LightIndex, s.Color, s.Transform)
		}
		desc(format.GameplayShrubs, off, int32(len(g.Shrubs)))
	}
	if len(g.Lights) > 0 {
		off := im.offset()
		for _, l := range g.Lights {
			im.write(l.Position, l.Color, l.Direction)
			im.b = append(im.b, padded(l.Tail, lightTailSize)...)
		}
		desc(format.GameplayLights, off, int32(len(g.Lights)))
	}
	if len(g.Splines) > 0 {
		table := im.reserve(4 * len(g.Splines))
		for i, s := range g.Splines {
			at := im.offset()
			im.write(int32(len(s.Vertices)))
			im.b = append(im.b, padded(s.Reserved, splineHeaderSize-4)...)
			im.write(s.Vertices)
			im.putUint32(int64(table)+int64(4*i), at)
		}
		desc(format.GameplaySplines, table, int32(len(g.Splines)))
	}
	if len(g.SpawnPoints) > 0 {
		off := im.offset()
		for _, s := range g.SpawnPoints {
			im.write(s.Primary, s.Secondary)
		}
		desc(format.GameplaySpawnPoints, off, int32(len(g.SpawnPoints)))
	}
	if len(g.Cameras) > 0 {
		off := im.offset()
		for _, c := range g.Cameras {
			im.write(c.ID, c.Position, c.Rotation, c.Tail)
		}
		desc(format.GameplayCameras, off, int32(len(g.Cameras)))
	}
	if len(g.TerrainElements) > 0 {
		off := im.offset()
		for _, e := range g.TerrainElements {
			im.write(e.Fragment.ID, e.Chunk)
			im.b = append(im.b, padded(e.Tail, terrainElementSize-8)...)
		}
		desc(format.GameplayTerrainElements, off, int32(len(g.TerrainElements)))
	}

	for _, tag := range level.LanguageTags {
		off, n := im.blob(g.Languages[tag])
		desc(languageSections[tag], off, n)
	}

	if len(g.Pvars) > 0 {
		table := im.reserve(pvarEntrySize * len(g.Pvars))
		for i, p := range g.Pvars {
			off, n := im.blob(p)
			at := int64(table) + int64(pvarEntrySize*i)
			im.putDescriptor(at, off, n)
		}
		desc(format.GameplayPvars, table, int32(len(g.Pvars)))
	}

	for _, tag := range format.FixedTypeTags {
		records := g.TypedRecords[tag]
		if len(records) == 0 {
			continue
		}
		size := layout.TypeRecordSizes[tag]
		off := im.offset()
		for _, r := range records {
			im.b = append(im.b, padded(r, size)...)
		}
		s, _ := tag.Section()
		desc(s, off, int32(len(records)))
	}
	for _, tag := range format.PairTypeTags {
		pairs := g.Pairs[tag]
		if len(pairs) == 0 {
			continue
		}
		off := im.offset()
		im.write(pairs)
		s, _ := tag.Section()
		desc(s, off, int32(len(pairs)))
	}
	for _, tag := range format.UnknownTags {
		off, n := im.blob(g.Unknown[tag])
		s, _ := format.UnknownSection(tag)
		desc(s, off, n)
	}

	if len(g.TieData) > 0 {
		off, _ := im.blob(g.TieData)
		desc(format.GameplayTieData, off, 0)
	}
	if len(g.ShrubData) > 0 {
		off, _ := im.blob(g.ShrubData)
		desc(format.GameplayShrubData, off, 0)
	}

	ids := func(s format.GameplaySection, values []int32) {
		if len(values) == 0 {
			return
		}
		off := im.offset()
		im.write(values)
		desc(s, off, int32(len(values)))
	}
	ids(format.GameplayMobyIDs, g.IDTables.MobyIDs)
	ids(format.GameplayTieIDs, g.IDTables.TieIDs)
	ids(format.GameplayShrubIDs, g.IDTables.ShrubIDs)

	if occ := g.Occlusion; occ != nil {
		off := im.offset()
		im.write(int32(len(occ.Mobies)), int32(len(occ.Ties)), int32(len(occ.Shrubs)), int32(0))
		for _, list := range [][]level.IDPair{occ.Mobies, occ.Ties, occ.Shrubs} {
			if len(list) > 0 {
				im.write(list)
			}
		}
		desc(format.GameplayOcclusion, off, 0)
	}
	return im.b
}
