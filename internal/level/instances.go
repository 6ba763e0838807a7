package level

import "github.com/go-gl/mathgl/mgl32"

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// ModelRef is a model reference by ID. Model is set by the resolution pass and
// stays nil when the ID is not in the matching model list.
type ModelRef struct {
	ID    int32
	Model *StaticModel
}

// Resolved reports whether the reference points at a decoded model.
func (r ModelRef) Resolved() bool { return r.Model != nil }

// Moby is a placed dynamic object.
type Moby struct {
	MobyID         int32
	Model          ModelRef
	PvarIndex      int32
	MissionID      int32
	UpdateDistance float32
	DrawDistance   float32
	Position       mgl32.Vec3
	Rotation       mgl32.Vec3
	Scale          float32
	Color          Color
	SpawnType      uint32
	Tail           []byte
}

// HasPvars reports whether the moby declares behavior variables.
func (m *Moby) HasPvars() bool { return m.PvarIndex >= 0 }

// ModelMatrix builds the placement transform from position, rotation and scale.
func (m *Moby) ModelMatrix() mgl32.Mat4 {
	rot := mgl32.AnglesToQuat(m.Rotation.X(), m.Rotation.Y(), m.Rotation.Z(), mgl32.XYZ).Mat4()
	return mgl32.Translate3D(m.Position.X(), m.Position.Y(), m.Position.Z()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(m.Scale, m.Scale, m.Scale))
}

// Tie is a placed instance of a tie model.
type Tie struct {
	Model      ModelRef
	UID        uint32
	LightIndex uint32
	Color      Color
	Transform  mgl32.Mat4
}

// Position is the translation column of the transform.
func (t *Tie) Position() mgl32.Vec3 { return t.Transform.Col(3).Vec3() }

// Shrub is a placed instance of a shrub model.
type Shrub struct {
	Model      ModelRef
	UID        uint32
	LightIndex uint32
	Color      Color
	Transform  mgl32.Mat4
}

// Position is the translation column of the transform.
func (s *Shrub) Position() mgl32.Vec3 { return s.Transform.Col(3).Vec3() }

// Light is a directional light record.
type Light struct {
	Position  mgl32.Vec4
	Color     mgl32.Vec4
	Direction mgl32.Vec4
	Tail      []byte
}

// Spline is a path of 4-component vertices.
type Spline struct {
	Reserved []byte
	Vertices []mgl32.Vec4
}

// SpawnPoint carries the two matrices of a spawn record.
type SpawnPoint struct {
	Primary   mgl32.Mat4
	Secondary mgl32.Mat4
}

// GameCamera is a scripted camera placement.
type GameCamera struct {
	ID       int32
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Tail     uint32
}

// TerrainElement places one terrain fragment.
type TerrainElement struct {
	Fragment ModelRef
	Chunk    int32
	Tail     []byte
}
