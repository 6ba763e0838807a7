package gameplay

import (
	"context"

	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/worker"
)

// Result holds everything decoded from one gameplay file.
type Result struct {
	LevelVariables  level.LevelVariables
	Mobies          []level.Moby
	Ties            []level.Tie
	Shrubs          []level.Shrub
	Lights          []level.Light
	Splines         []level.Spline
	SpawnPoints     []level.SpawnPoint
	Cameras         []level.GameCamera
	TerrainElements []level.TerrainElement
	Localization    []level.LocalizationTable
	Pvars           []level.OpaqueBlob
	TypedRecords    map[format.TypeTag]level.TypedRecordList
	Type50s         []level.IDPair
	Type5Cs         []level.IDPair
	UnknownBlobs    map[string]level.OpaqueBlob
	TieData         level.OpaqueBlob
	ShrubData       level.OpaqueBlob
	IDTables        level.IDTables
	Occlusion       level.OcclusionData
}

// Apply copies the result into l.
func (r *Result) Apply(l *level.Level) {
	l.LevelVariables = r.LevelVariables
	l.Mobies = r.Mobies
	l.Ties = r.Ties
	l.Shrubs = r.Shrubs
	l.Lights = r.Lights
	l.Splines = r.Splines
	l.SpawnPoints = r.SpawnPoints
	l.Cameras = r.Cameras
	l.TerrainElements = r.TerrainElements
	l.Localization = r.Localization
	l.Pvars = r.Pvars
	l.TypedRecords = r.TypedRecords
	l.Type50s = r.Type50s
	l.Type5Cs = r.Type5Cs
	l.UnknownBlobs = r.UnknownBlobs
	l.TieData = r.TieData
	l.ShrubData = r.ShrubData
	l.IDTables = r.IDTables
	l.Occlusion = r.Occlusion
}

// DecodeAll decodes the whole file in two batches. The first batch holds
// every section whose size is in its own descriptor; the second holds the
// sections sized by instance counts from the first.
func (d *Decoder) DecodeAll(ctx context.Context) (*Result, error) {
	if _, err := d.Layout(); err != nil {
		return nil, err
	}

	res := &Result{}
	typed := make([]level.TypedRecordList, len(format.FixedTypeTags))
	unknown := make([]level.OpaqueBlob, len(format.UnknownTags))

	first := []worker.Task{
		{Name: "level variables", Run: func(context.Context) (err error) {
			res.LevelVariables, err = d.LevelVariables()
			return err
		}},
		{Name: "mobies", Run: func(context.Context) (err error) {
			res.Mobies, err = d.Mobies()
			return err
		}},
		{Name: "ties", Run: func(context.Context) (err error) {
			res.Ties, err = d.Ties()
			return err
		}},
		{Name: "shrubs", Run: func(context.Context) (err error) {
			res.Shrubs, err = d.Shrubs()
			return err
		}},
		{Name: "lights", Run: func(context.Context) (err error) {
			res.Lights, err = d.Lights()
			return err
		}},
		{Name: "splines", Run: func(context.Context) (err error) {
			res.Splines, err = d.Splines()
			return err
		}},
		{Name: "spawn points", Run: func(context.Context) (err error) {
			res.SpawnPoints, err = d.SpawnPoints()
			return err
		}},
		{Name: "cameras", Run: func(context.Context) (err error) {
			res.Cameras, err = d.Cameras()
			return err
		}},
		{Name: "terrain elements", Run: func(context.Context) (err error) {
			res.TerrainElements, err = d.TerrainElements()
			return err
		}},
		{Name: "localization", Run: func(context.Context) (err error) {
			res.Localization, err = d.LocalizationTables()
			return err
		}},
		{Name: "type50", Run: func(context.Context) (err error) {
			res.Type50s, err = d.Pairs(format.Type50)
			return err
		}},
		{Name: "type5C", Run: func(context.Context) (err error) {
			res.Type5Cs, err = d.Pairs(format.Type5C)
			return err
		}},
		{Name: "id tables", Run: func(context.Context) (err error) {
			res.IDTables, err = d.IDTables()
			return err
		}},
		{Name: "occlusion", Run: func(context.Context) (err error) {
			res.Occlusion, err = d.OcclusionData()
			return err
		}},
	}
	for i, tag := range format.FixedTypeTags {
		first = append(first, worker.Task{Name: string(tag), Run: func(context.Context) (err error) {
			typed[i], err = d.TypedRecords(tag)
			return err
		}})
	}
	for i, tag := range format.UnknownTags {
		first = append(first, worker.Task{Name: tag, Run: func(context.Context) (err error) {
			unknown[i], err = d.UnknownBlob(tag)
			return err
		}})
	}

	pool := worker.NewManager(d.logger, d.cfg.sequential, 0)
	if err := pool.Run(ctx, first); err != nil {
		return nil, err
	}

	second := []worker.Task{
		{Name: "pvars", Run: func(context.Context) (err error) {
			res.Pvars, err = d.BehaviorVariables(res.Mobies)
			return err
		}},
		{Name: "tie data", Run: func(context.Context) (err error) {
			res.TieData, err = d.InstanceData(level.CategoryTie, len(res.Ties))
			return err
		}},
		{Name: "shrub data", Run: func(context.Context) (err error) {
			res.ShrubData, err = d.InstanceData(level.CategoryShrub, len(res.Shrubs))
			return err
		}},
	}
	if err := pool.Run(ctx, second); err != nil {
		return nil, err
	}

	res.TypedRecords = make(map[format.TypeTag]level.TypedRecordList, len(typed))
	for i, tag := range format.FixedTypeTags {
		res.TypedRecords[tag] = typed[i]
	}
	res.UnknownBlobs = make(map[string]level.OpaqueBlob, len(unknown))
	for i, tag := range format.UnknownTags {
		res.UnknownBlobs[tag] = unknown[i]
	}

	d.logger.Debug("Decoded gameplay file",
		"path", d.src.Path(),
		"variant", d.variant,
		"mobies", len(res.Mobies),
		"ties", len(res.Ties),
		"shrubs", len(res.Shrubs),
		"pvars", len(res.Pvars))
	return res, nil
}
