package engine

import (
	"context"

	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
	"github.com/rcforge/levelcore/internal/worker"
)

// Result holds everything decoded from one engine file. Each task of
// DecodeAll writes its own field.
type Result struct {
	Variant            format.GameVariant
	Models             map[level.Category][]*level.StaticModel
	Textures           []*level.Texture
	UiElements         []level.UiElement
	PlayerAnimations   []level.Animation
	TextureConfigMenus []int32
	Blobs              map[format.EngineSection]level.OpaqueBlob
}

// Apply copies the result into l.
func (r *Result) Apply(l *level.Level) {
	l.Variant = r.Variant
	for _, c := range level.Categories {
		l.SetModels(c, r.Models[c])
	}
	l.Textures = r.Textures
	l.UiElements = r.UiElements
	l.PlayerAnimations = r.PlayerAnimations
	l.TextureConfigMenus = r.TextureConfigMenus
	l.RenderDef = r.Blobs[format.EngineRenderDef]
	l.CollisionBytes = r.Blobs[format.EngineCollisionBytes]
	l.Billboard = r.Blobs[format.EngineBillboard]
	l.SoundConfig = r.Blobs[format.EngineSoundConfig]
	l.LightConfig = r.Blobs[format.EngineLightConfig]
	l.TerrainBytes = r.Blobs[format.EngineTerrainBytes]
}

// DecodeAll decodes every section of the file. Independent sections run
// concurrently unless the decoder was built with Sequential; the first
// failure is returned once all running tasks have finished.
func (d *Decoder) DecodeAll(ctx context.Context) (*Result, error) {
	variant, err := d.DetectGameVariant()
	if err != nil {
		return nil, err
	}

	res := &Result{Variant: variant}
	models := make([][]*level.StaticModel, len(level.Categories))
	blobs := make([]level.OpaqueBlob, len(BlobSections))

	var tasks []worker.Task
	for i, c := range level.Categories {
		tasks = append(tasks, worker.Task{Name: string(c) + " models", Run: func(context.Context) (err error) {
			models[i], err = d.StaticModels(c)
			return err
		}})
	}
	tasks = append(tasks,
		worker.Task{Name: "textures", Run: func(context.Context) (err error) {
			res.Textures, err = d.Textures()
			return err
		}},
		worker.Task{Name: "ui elements", Run: func(context.Context) (err error) {
			res.UiElements, err = d.UiElements()
			return err
		}},
		worker.Task{Name: "player animations", Run: func(context.Context) (err error) {
			res.PlayerAnimations, err = d.PlayerAnimations()
			return err
		}},
		worker.Task{Name: "texture config menu", Run: func(context.Context) (err error) {
			res.TextureConfigMenus, err = d.TextureConfigMenus()
			return err
		}},
	)
	for i, s := range BlobSections {
		tasks = append(tasks, worker.Task{Name: s.String(), Run: func(context.Context) (err error) {
			blobs[i], err = d.OpaqueBlob(s)
			return err
		}})
	}

	if err := worker.NewManager(d.logger, d.cfg.sequential, 0).Run(ctx, tasks); err != nil {
		return nil, err
	}

	res.Models = make(map[level.Category][]*level.StaticModel, len(level.Categories))
	for i, c := range level.Categories {
		res.Models[c] = models[i]
	}
	res.Blobs = make(map[format.EngineSection]level.OpaqueBlob, len(BlobSections))
	for i, s := range BlobSections {
		res.Blobs[s] = blobs[i]
	}

	d.logger.Debug("Decoded engine file",
		"path", d.src.Path(),
		"variant", variant,
		"textures", len(res.Textures),
		"sequential", d.cfg.sequential)
	return res, nil
}
