// Package level holds the decoded form of a game level: static models and
// textures from the engine file, placements and behavior state from the
// gameplay file, and every region the decoders keep verbatim.
package level

import "github.com/rcforge/levelcore/internal/format"

// Level is the aggregate produced by one decode attempt.
// When Valid is false only Path and Variant may be set.
type Level struct {
	Valid   bool
	Path    string
	Variant format.GameVariant

	MobyModels      []*StaticModel
	TieModels       []*StaticModel
	ShrubModels     []*StaticModel
	WeaponModels    []*StaticModel
	SkyboxModels    []*StaticModel
	CollisionModels []*StaticModel
	TerrainModels   []*StaticModel

	Textures           []*Texture
	UiElements         []UiElement
	PlayerAnimations   []Animation
	TextureConfigMenus []int32

	RenderDef      OpaqueBlob
	CollisionBytes OpaqueBlob
	Billboard      OpaqueBlob
	SoundConfig    OpaqueBlob
	LightConfig    OpaqueBlob
	TerrainBytes   OpaqueBlob

	LevelVariables  LevelVariables
	Mobies          []Moby
	Ties            []Tie
	Shrubs          []Shrub
	Lights          []Light
	Splines         []Spline
	SpawnPoints     []SpawnPoint
	Cameras         []GameCamera
	TerrainElements []TerrainElement

	Localization []LocalizationTable
	Pvars        []OpaqueBlob

	TypedRecords map[format.TypeTag]TypedRecordList
	Type50s      []IDPair
	Type5Cs      []IDPair
	UnknownBlobs map[string]OpaqueBlob

	TieData   OpaqueBlob
	ShrubData OpaqueBlob
	IDTables  IDTables
	Occlusion OcclusionData

	VramOrphans []OpaqueBlob
}

// Invalid returns the level for an aborted decode.
func Invalid(path string, variant format.GameVariant) *Level {
	return &Level{Path: path, Variant: variant}
}

// Models returns the model list of one category.
func (l *Level) Models(c Category) []*StaticModel {
	switch c {
	case CategoryMoby:
		return l.MobyModels
	case CategoryTie:
		return l.TieModels
	case CategoryShrub:
		return l.ShrubModels
	case CategoryWeapon:
		return l.WeaponModels
	case CategorySkybox:
		return l.SkyboxModels
	case CategoryCollision:
		return l.CollisionModels
	case CategoryTerrain:
		return l.TerrainModels
	}
	return nil
}

// SetModels replaces the model list of one category.
func (l *Level) SetModels(c Category, models []*StaticModel) {
	switch c {
	case CategoryMoby:
		l.MobyModels = models
	case CategoryTie:
		l.TieModels = models
	case CategoryShrub:
		l.ShrubModels = models
	case CategoryWeapon:
		l.WeaponModels = models
	case CategorySkybox:
		l.SkyboxModels = models
	case CategoryCollision:
		l.CollisionModels = models
	case CategoryTerrain:
		l.TerrainModels = models
	}
}

// EngineBlobs returns the named engine blobs in header order.
func (l *Level) EngineBlobs() []OpaqueBlob {
	return []OpaqueBlob{
		l.RenderDef, l.CollisionBytes, l.Billboard,
		l.SoundConfig, l.LightConfig, l.TerrainBytes,
	}
}

// UnresolvedRefs counts model references the resolution pass could not bind.
func (l *Level) UnresolvedRefs() int {
	n := 0
	for i := range l.Mobies {
		if !l.Mobies[i].Model.Resolved() {
			n++
		}
	}
	for i := range l.Ties {
		if !l.Ties[i].Model.Resolved() {
			n++
		}
	}
	for i := range l.Shrubs {
		if !l.Shrubs[i].Model.Resolved() {
			n++
		}
	}
	for i := range l.TerrainElements {
		if !l.TerrainElements[i].Fragment.Resolved() {
			n++
		}
	}
	return n
}

// FilledTextures counts textures that received a vram payload.
func (l *Level) FilledTextures() int {
	n := 0
	for _, t := range l.Textures {
		if t.Filled() {
			n++
		}
	}
	return n
}
