package gameplay

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

const (
	mobyFixedSize      = 0x3C
	lightTailSize      = 0x10
	splineReservedSize = 0x0C
	terrainTailSize    = 0x08
)

type mobyRecord struct {
	MobyID         int32
	ModelID        int32
	PvarIndex      int32
	MissionID      int32
	UpdateDistance float32
	DrawDistance   float32
	Position       mgl32.Vec3
	Rotation       mgl32.Vec3
	Scale          float32
	Color          level.Color
	SpawnType      uint32
}

type instanceRecord struct {
	ModelID    int32
	UID        uint32
	LightIndex uint32
	Color      level.Color
	Transform  mgl32.Mat4
}

type lightRecord struct {
	Position  mgl32.Vec4
	Color     mgl32.Vec4
	Direction mgl32.Vec4
	Tail      [lightTailSize]byte
}

type cameraRecord struct {
	ID       int32
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Tail     uint32
}

type terrainRecord struct {
	FragmentID int32
	Chunk      int32
	Tail       [terrainTailSize]byte
}

// Mobies decodes the moby instances. Model references are left unresolved.
func (d *Decoder) Mobies() ([]level.Moby, error) {
	l, err := d.Layout()
	if err != nil {
		return nil, err
	}
	desc, err := d.descriptor(format.GameplayMobies)
	if err != nil || !desc.Present() {
		return nil, err
	}
	size := int64(l.MobyRecordSize)
	if !d.src.InBounds(int64(desc.Offset), size*int64(desc.Count)) {
		return nil, format.Corruptf("%s: %d records of 0x%X bytes at 0x%X leave the file",
			format.GameplayMobies, desc.Count, size, desc.Offset)
	}

	mobies := make([]level.Moby, desc.Count)
	for i := range mobies {
		at := int64(desc.Offset) + int64(i)*size
		rec, err := binfile.ReadRecord[mobyRecord](d.src, at)
		if err != nil {
			return nil, format.Wrap(describe(format.GameplayMobies, i), err)
		}
		tail, err := d.src.ReadAt(at+mobyFixedSize, size-mobyFixedSize)
		if err != nil {
			return nil, format.Wrap(describe(format.GameplayMobies, i), err)
		}
		mobies[i] = level.Moby{
			MobyID:         rec.MobyID,
			Model:          level.ModelRef{ID: rec.ModelID},
			PvarIndex:      rec.PvarIndex,
			MissionID:      rec.MissionID,
			UpdateDistance: rec.UpdateDistance,
			DrawDistance:   rec.DrawDistance,
			Position:       rec.Position,
			Rotation:       rec.Rotation,
			Scale:          rec.Scale,
			Color:          rec.Color,
			SpawnType:      rec.SpawnType,
			Tail:           tail,
		}
	}
	d.logger.Debug("Decoded mobies", "count", len(mobies))
	return mobies, nil
}

func (d *Decoder) instanceRecords(s format.GameplaySection) ([]instanceRecord, error) {
	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() {
		return nil, err
	}
	recs, err := binfile.ReadRecords[instanceRecord](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(s, err)
	}
	return recs, nil
}

// Ties decodes the tie instances. Model references are left unresolved.
func (d *Decoder) Ties() ([]level.Tie, error) {
	recs, err := d.instanceRecords(format.GameplayTies)
	if err != nil || recs == nil {
		return nil, err
	}
	ties := make([]level.Tie, len(recs))
	for i, r := range recs {
		ties[i] = level.Tie{
			Model:      level.ModelRef{ID: r.ModelID},
			UID:        r.UID,
			LightIndex: r.LightIndex,
			Color:      r.Color,
			Transform:  r.Transform,
		}
	}
	d.logger.Debug("Decoded ties", "count", len(ties))
	return ties, nil
}

// Shrubs decodes the shrub instances. Model references are left unresolved.
func (d *Decoder) Shrubs() ([]level.Shrub, error) {
	recs, err := d.instanceRecords(format.GameplayShrubs)
	if err != nil || recs == nil {
		return nil, err
	}
	shrubs := make([]level.Shrub, len(recs))
	for i, r := range recs {
		shrubs[i] = level.Shrub{
			Model:      level.ModelRef{ID: r.ModelID},
			UID:        r.UID,
			LightIndex: r.LightIndex,
			Color:      r.Color,
			Transform:  r.Transform,
		}
	}
	d.logger.Debug("Decoded shrubs", "count", len(shrubs))
	return shrubs, nil
}

// Lights decodes the light records.
func (d *Decoder) Lights() ([]level.Light, error) {
	desc, err := d.descriptor(format.GameplayLights)
	if err != nil || !desc.Present() {
		return nil, err
	}
	recs, err := binfile.ReadRecords[lightRecord](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.GameplayLights, err)
	}
	lights := make([]level.Light, len(recs))
	for i, r := range recs {
		lights[i] = level.Light{
			Position:  r.Position,
			Color:     r.Color,
			Direction: r.Direction,
			Tail:      append([]byte(nil), r.Tail[:]...),
		}
	}
	return lights, nil
}

// Splines decodes every spline through the offset table.
func (d *Decoder) Splines() ([]level.Spline, error) {
	desc, err := d.descriptor(format.GameplaySplines)
	if err != nil || !desc.Present() {
		return nil, err
	}
	offsets, err := binfile.ReadRecords[uint32](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.GameplaySplines, err)
	}

	splines := make([]level.Spline, len(offsets))
	for i, off := range offsets {
		where := describe(format.GameplaySplines, i)
		n, err := d.src.Int32(int64(off))
		if err != nil {
			return nil, format.Wrap(where, err)
		}
		if n < 0 {
			return nil, format.Wrap(where, format.Corruptf("negative vertex count %d", n))
		}
		reserved, err := d.src.ReadAt(int64(off)+4, splineReservedSize)
		if err != nil {
			return nil, format.Wrap(where, err)
		}
		verts, err := binfile.ReadRecords[mgl32.Vec4](d.src, int64(off)+4+splineReservedSize, int(n))
		if err != nil {
			return nil, format.Wrap(where, err)
		}
		splines[i] = level.Spline{Reserved: reserved, Vertices: verts}
	}
	return splines, nil
}

// SpawnPoints decodes the spawn point matrices.
func (d *Decoder) SpawnPoints() ([]level.SpawnPoint, error) {
	desc, err := d.descriptor(format.GameplaySpawnPoints)
	if err != nil || !desc.Present() {
		return nil, err
	}
	points, err := binfile.ReadRecords[level.SpawnPoint](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.GameplaySpawnPoints, err)
	}
	return points, nil
}

// Cameras decodes the scripted camera placements.
func (d *Decoder) Cameras() ([]level.GameCamera, error) {
	desc, err := d.descriptor(format.GameplayCameras)
	if err != nil || !desc.Present() {
		return nil, err
	}
	recs, err := binfile.ReadRecords[cameraRecord](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.GameplayCameras, err)
	}
	cams := make([]level.GameCamera, len(recs))
	for i, r := range recs {
		cams[i] = level.GameCamera{ID: r.ID, Position: r.Position, Rotation: r.Rotation, Tail: r.Tail}
	}
	return cams, nil
}

// TerrainElements decodes the terrain fragment placements. Fragment
// references are left unresolved.
func (d *Decoder) TerrainElements() ([]level.TerrainElement, error) {
	desc, err := d.descriptor(format.GameplayTerrainElements)
	if err != nil || !desc.Present() {
		return nil, err
	}
	recs, err := binfile.ReadRecords[terrainRecord](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(format.GameplayTerrainElements, err)
	}
	elems := make([]level.TerrainElement, len(recs))
	for i, r := range recs {
		elems[i] = level.TerrainElement{
			Fragment: level.ModelRef{ID: r.FragmentID},
			Chunk:    r.Chunk,
			Tail:     append([]byte(nil), r.Tail[:]...),
		}
	}
	return elems, nil
}
