package format

import "fmt"

// DescriptorSize is the byte size of one {offset, count} header entry.
const DescriptorSize = 8

// EngineSection identifies one descriptor of the engine header.
type EngineSection int

const (
	EngineMobyModels EngineSection = iota
	EngineTieModels
	EngineShrubModels
	EngineWeaponModels
	EngineSkybox
	EngineCollision
	EngineTerrain
	EngineTextures
	EngineUiElements
	EnginePlayerAnimations
	EngineTextureConfigMenu
	EngineRenderDef
	EngineCollisionBytes
	EngineBillboard
	EngineSoundConfig
	EngineLightConfig
	EngineTerrainBytes
	engineSectionCount
)

var engineSectionNames = [...]string{
	"mobyModels", "tieModels", "shrubModels", "weaponModels", "skybox",
	"collision", "terrain", "textures", "uiElements", "playerAnimations",
	"textureConfigMenu", "renderDef", "collisionBytes", "billboard",
	"soundConfig", "lightConfig", "terrainBytes",
}

func (s EngineSection) String() string {
	if s < 0 || s >= engineSectionCount {
		return fmt.Sprintf("engineSection(%d)", int(s))
	}
	return engineSectionNames[s]
}

// GameplaySection identifies one descriptor of the gameplay header.
type GameplaySection int

const (
	GameplayLevelVariables GameplaySection = iota
	GameplayMobies
	GameplayTies
	GameplayShrubs
	GameplayLights
	GameplaySplines
	GameplaySpawnPoints
	GameplayCameras
	GameplayTerrainElements
	GameplayLangEnglish
	GameplayLangUKEnglish
	GameplayLangFrench
	GameplayLangGerman
	GameplayLangSpanish
	GameplayLangItalian
	GameplayLang7
	GameplayLang8
	GameplayPvars
	GameplayType04
	GameplayType0C
	GameplayType64
	GameplayType68
	GameplayType7C
	GameplayType80
	GameplayType88
	GameplayType50
	GameplayType5C
	GameplayUnk6
	GameplayUnk7
	GameplayUnk9
	GameplayUnk13
	GameplayUnk14
	GameplayUnk17
	GameplayTieData
	GameplayShrubData
	GameplayMobyIDs
	GameplayTieIDs
	GameplayShrubIDs
	GameplayOcclusion
	GameplaySectionCount
)

var gameplaySectionNames = [...]string{
	"levelVariables", "mobies", "ties", "shrubs", "lights", "splines",
	"spawnPoints", "cameras", "terrainElements",
	"langEnglish", "langUKEnglish", "langFrench", "langGerman",
	"langSpanish", "langItalian", "lang7", "lang8",
	"pvars", "type04", "type0C", "type64", "type68", "type7C", "type80",
	"type88", "type50", "type5C",
	"unk6", "unk7", "unk9", "unk13", "unk14", "unk17",
	"tieData", "shrubData", "mobyIDs", "tieIDs", "shrubIDs", "occlusion",
}

func (s GameplaySection) String() string {
	if s < 0 || s >= GameplaySectionCount {
		return fmt.Sprintf("gameplaySection(%d)", int(s))
	}
	return gameplaySectionNames[s]
}

// GameplayHeaderSize is the size of the gameplay header for every variant.
const GameplayHeaderSize = 4 + int(GameplaySectionCount)*DescriptorSize

// TypeTag names an opaque "type NN" record category of the gameplay file.
type TypeTag string

const (
	Type04 TypeTag = "type04"
	Type0C TypeTag = "type0C"
	Type64 TypeTag = "type64"
	Type68 TypeTag = "type68"
	Type7C TypeTag = "type7C"
	Type80 TypeTag = "type80"
	Type88 TypeTag = "type88"
	Type50 TypeTag = "type50"
	Type5C TypeTag = "type5C"
)

// FixedTypeTags lists the fixed-size opaque record categories in header order.
var FixedTypeTags = []TypeTag{Type04, Type0C, Type64, Type68, Type7C, Type80, Type88}

// PairTypeTags lists the categories stored as {int32, int32} pairs.
var PairTypeTags = []TypeTag{Type50, Type5C}

// Section returns the gameplay descriptor holding the records of tag.
func (t TypeTag) Section() (GameplaySection, bool) {
	switch t {
	case Type04:
		return GameplayType04, true
	case Type0C:
		return GameplayType0C, true
	case Type64:
		return GameplayType64, true
	case Type68:
		return GameplayType68, true
	case Type7C:
		return GameplayType7C, true
	case Type80:
		return GameplayType80, true
	case Type88:
		return GameplayType88, true
	case Type50:
		return GameplayType50, true
	case Type5C:
		return GameplayType5C, true
	}
	return 0, false
}

// UnknownTags lists the opaque gameplay blobs in header order.
var UnknownTags = []string{"unk6", "unk7", "unk9", "unk13", "unk14", "unk17"}

// UnknownSection returns the gameplay descriptor of an opaque blob tag.
func UnknownSection(tag string) (GameplaySection, bool) {
	for i, t := range UnknownTags {
		if t == tag {
			return GameplayUnk6 + GameplaySection(i), true
		}
	}
	return 0, false
}

// Layout is everything that differs between variants.
type Layout struct {
	Variant          GameVariant
	EngineOrder      []EngineSection
	MobyRecordSize   int
	TypeRecordSizes  map[TypeTag]int
	TieDataStride    int
	ShrubDataStride  int
	engineDescOffset map[EngineSection]int64
}

// EngineHeaderSize is the byte size of the engine header of this layout.
func (l *Layout) EngineHeaderSize() int {
	return 4 + len(l.EngineOrder)*DescriptorSize
}

// EngineDescriptorOffset returns where the descriptor of s sits in the engine header.
func (l *Layout) EngineDescriptorOffset(s EngineSection) int64 {
	return l.engineDescOffset[s]
}

// GameplayDescriptorOffset returns where the descriptor of s sits in the gameplay header.
func (l *Layout) GameplayDescriptorOffset(s GameplaySection) int64 {
	return 4 + int64(s)*DescriptorSize
}

var rac1EngineOrder = []EngineSection{
	EngineMobyModels, EngineTieModels, EngineShrubModels, EngineWeaponModels,
	EngineSkybox, EngineCollision, EngineTerrain, EngineTextures,
	EngineUiElements, EnginePlayerAnimations, EngineTextureConfigMenu,
	EngineRenderDef, EngineCollisionBytes, EngineBillboard, EngineSoundConfig,
	EngineLightConfig, EngineTerrainBytes,
}

// Later games moved the texture table and the raw blobs ahead of the models.
var rac3EngineOrder = []EngineSection{
	EngineTextures, EngineRenderDef, EngineSoundConfig, EngineBillboard,
	EngineLightConfig, EngineCollisionBytes, EngineTerrainBytes,
	EngineMobyModels, EngineTieModels, EngineShrubModels, EngineWeaponModels,
	EngineSkybox, EngineCollision, EngineTerrain, EngineUiElements,
	EnginePlayerAnimations, EngineTextureConfigMenu,
}

func rac1TypeSizes() map[TypeTag]int {
	return map[TypeTag]int{
		Type04: 0x20, Type0C: 0x90, Type64: 0x10, Type68: 0x10,
		Type7C: 0x20, Type80: 0x20, Type88: 0x08,
		Type50: 0x08, Type5C: 0x08,
	}
}

func newLayout(v GameVariant, order []EngineSection, mobySize, tieStride, shrubStride int, override map[TypeTag]int) *Layout {
	sizes := rac1TypeSizes()
	for k, n := range override {
		sizes[k] = n
	}
	l := &Layout{
		Variant:          v,
		EngineOrder:      order,
		MobyRecordSize:   mobySize,
		TypeRecordSizes:  sizes,
		TieDataStride:    tieStride,
		ShrubDataStride:  shrubStride,
		engineDescOffset: make(map[EngineSection]int64, len(order)),
	}
	for i, s := range order {
		l.engineDescOffset[s] = 4 + int64(i)*DescriptorSize
	}
	return l
}

var layouts = map[GameVariant]*Layout{
	VariantRaC1:       newLayout(VariantRaC1, rac1EngineOrder, 0x40, 0x20, 0x10, nil),
	VariantRaC2:       newLayout(VariantRaC2, rac1EngineOrder, 0x50, 0x20, 0x10, map[TypeTag]int{Type0C: 0xA0}),
	VariantRaC3:       newLayout(VariantRaC3, rac3EngineOrder, 0x50, 0x30, 0x10, map[TypeTag]int{Type0C: 0xA0, Type80: 0x30}),
	VariantDeadlocked: newLayout(VariantDeadlocked, rac3EngineOrder, 0x50, 0x30, 0x20, map[TypeTag]int{Type0C: 0xA0, Type80: 0x30, Type88: 0x10}),
}

// LayoutFor returns the layout of v.
func LayoutFor(v GameVariant) (*Layout, error) {
	l, ok := layouts[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVariant, v)
	}
	return l, nil
}

// Variants returns every supported variant in signature order.
func Variants() []GameVariant {
	return []GameVariant{VariantRaC1, VariantRaC2, VariantRaC3, VariantDeadlocked}
}
