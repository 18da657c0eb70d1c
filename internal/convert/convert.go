// Package convert runs the conversion pipeline: weld, skin, bone merge and
// bake. Unit failures are reported as diagnostics and degrade the output;
// only cancellation and broken output invariants fail a conversion.
package convert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenebake/internal/anim"
	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/internal/geometry"
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/internal/skeleton"
	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// Mode selects how animations are grouped for baking.
type Mode string

// Bake modes.
const (
	// ModePerAnimation bakes each top-level animation with its nested groups pooled.
	ModePerAnimation Mode = "per_animation"
	// ModePooled pools every animation into one clip, optionally split by labels.
	ModePooled Mode = "pooled"
)

// Options configure a conversion.
type Options struct {
	// Workers bounds parallel chunk building; 0 uses GOMAXPROCS.
	Workers int
	Bake    anim.Options
	Mode    Mode
	Labels  []anim.Label
}

// DefaultOptions returns per-animation baking with default tolerances.
func DefaultOptions() Options {
	return Options{Bake: anim.DefaultOptions(), Mode: ModePerAnimation}
}

// skinBinding is one instance's resolved skin.
type skinBinding struct {
	bones     []skeleton.Bone
	influence *geometry.Influences
	bindShape math.Mat4
}

// Convert turns a linked scene into a renderer-ready document.
func Convert(ctx context.Context, s *scene.Scene, opts Options, sink *diag.Sink) (*model.Document, error) {
	if sink == nil {
		sink = diag.Nop()
	}
	doc := &model.Document{Name: s.Name, Materials: convertMaterials(s, sink)}

	var (
		jobs    []geometry.Job
		jobSkin []int
		sets    [][]skeleton.Bone
	)
	for k := range s.Instances {
		inst := &s.Instances[k]
		isink := sink.With(zap.String("instance", instanceName(inst, k)))

		if inst.Morph != "" {
			isink.Warn(diag.UnsupportedFeature, "morph controller ignored, converting base geometry",
				zap.String("morph", inst.Morph))
		}

		geomID := inst.Geometry
		var skin *scene.Skin
		if inst.Skin != "" {
			var ok bool
			if skin, ok = s.Skin(inst.Skin); !ok {
				isink.Warn(diag.MissingReference, "skin not found, using static mesh", zap.String("skin", inst.Skin))
			} else if geomID == "" {
				geomID = skin.Geometry
			}
		}

		g, ok := s.Geometry(geomID)
		if !ok {
			isink.Warn(diag.MissingReference, "geometry not found, instance skipped", zap.String("geometry", geomID))
			continue
		}

		set := -1
		var binding *skinBinding
		if skin != nil {
			b, err := bindSkin(s, inst, skin, isink)
			if err != nil {
				isink.Error(skinKind(err), "skin failed, using static mesh", err, zap.String("skin", skin.ID))
			} else {
				binding = b
				set = len(sets)
				sets = append(sets, b.bones)
			}
		}

		world := s.WorldMatrix(inst.Node)
		for p := range g.Primitives {
			jobs = append(jobs, newJob(s, inst, k, g, p, world, binding, isink))
			jobSkin = append(jobSkin, set)
		}
	}

	chunks, err := geometry.BuildChunks(ctx, jobs, opts.Workers, sink)
	if err != nil {
		return nil, err
	}

	bones := mergeBones(chunks, jobSkin, sets, sink)
	doc.Bones = skeleton.ToModel(s, bones)
	for _, c := range chunks {
		if c != nil {
			doc.Chunks = append(doc.Chunks, *c)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc.Animations = bakeAnimations(s, bones, opts, sink)

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("converted document: %w", err)
	}
	sink.Info("conversion finished",
		zap.Int("chunks", len(doc.Chunks)),
		zap.Int("bones", len(doc.Bones)),
		zap.Int("animations", len(doc.Animations)),
		zap.Int("diagnostics", sink.Total()))
	return doc, nil
}
