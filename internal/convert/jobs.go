package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/internal/geometry"
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

func instanceName(inst *scene.Instance, k int) string {
	switch {
	case inst.Name != "":
		return inst.Name
	case inst.Geometry != "":
		return inst.Geometry
	case inst.Skin != "":
		return inst.Skin
	default:
		return fmt.Sprintf("instance%d", k)
	}
}

// newJob describes primitive p of g as placed by inst.
func newJob(s *scene.Scene, inst *scene.Instance, k int, g *scene.Geometry, p int, world math.Mat4, b *skinBinding, sink *diag.Sink) geometry.Job {
	mesh := g.Name
	if mesh == "" {
		mesh = g.ID
	}
	prim := &g.Primitives[p]
	job := geometry.Job{
		Name:      fmt.Sprintf("%s.%d", instanceName(inst, k), p),
		Mesh:      mesh,
		Geometry:  g,
		Primitive: prim,
		Material:  resolveMaterial(s, inst, prim.Material, sink),
		Transform: world,
	}
	if b != nil {
		job.Skin = b.influence
		bs := b.bindShape
		job.BindShape = &bs
	}
	return job
}

// resolveMaterial maps a primitive's material symbol through the instance
// bindings, falling back to using the symbol as a material ID.
func resolveMaterial(s *scene.Scene, inst *scene.Instance, symbol string, sink *diag.Sink) int {
	if symbol == "" {
		return model.NoMaterial
	}
	id, ok := inst.Materials[symbol]
	if !ok {
		id = symbol
	}
	if idx := s.MaterialIndex(id); idx >= 0 {
		return idx
	}
	sink.Warn(diag.MissingReference, "material not found", zap.String("symbol", symbol), zap.String("material", id))
	return model.NoMaterial
}

// convertMaterials passes materials through by name.
func convertMaterials(s *scene.Scene, sink *diag.Sink) []model.Material {
	out := make([]model.Material, len(s.Materials))
	for i, m := range s.Materials {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		out[i] = model.Material{Name: name}
		if m.Profile != "" && m.Profile != scene.ProfileCommon {
			sink.Warn(diag.UnsupportedFeature, "material profile not supported, keeping name only",
				zap.String("material", name), zap.String("profile", m.Profile))
			continue
		}
		out[i].Diffuse = m.Diffuse
		out[i].Texture = m.Texture
	}
	return out
}
