package convert

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/internal/geometry"
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/internal/skeleton"
	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

func skinKind(err error) diag.Kind {
	switch {
	case errors.Is(err, skeleton.ErrJointNotFound):
		return diag.MissingReference
	default:
		return diag.InconsistentData
	}
}

// skeletonRoots returns the instance's valid skeleton roots, reporting the
// invalid ones. An empty result means the scene roots.
func skeletonRoots(s *scene.Scene, inst *scene.Instance, sink *diag.Sink) []int {
	roots := make([]int, 0, len(inst.Skeletons))
	for _, r := range inst.Skeletons {
		if r < 0 || r >= len(s.Nodes) {
			sink.Warn(diag.MissingReference, "skeleton root not found", zap.Int("node", r))
			continue
		}
		roots = append(roots, r)
	}
	return roots
}

// bindSkin resolves an instance's skin into bones and per-vertex influences.
func bindSkin(s *scene.Scene, inst *scene.Instance, skin *scene.Skin, sink *diag.Sink) (*skinBinding, error) {
	if inst.Geometry != "" && skin.Geometry != "" && skin.Geometry != inst.Geometry {
		return nil, fmt.Errorf("skin binds %q, instance uses %q: %w", skin.Geometry, inst.Geometry, geometry.ErrSkinVertexCount)
	}

	roots := skeletonRoots(s, inst, sink)
	bones, err := skeleton.CreateSkinBones(s, skin.Joints, roots, skin.InvBindMatrices)
	if err != nil {
		return nil, err
	}
	bones = skeleton.FindBoneParents(s, bones, roots)

	in, err := geometry.BindInfluences(skin.VCount, skin.V, skin.Weights, len(skin.Joints))
	if err != nil {
		return nil, err
	}
	if in.TooMany > 0 {
		sink.Tally(diag.InconsistentData, in.TooMany-1)
		sink.Warn(diag.InconsistentData, "vertices with more than 4 influences, extra influences dropped",
			zap.Int("vertices", in.TooMany))
	}
	if in.InvalidTotal > 0 {
		sink.Tally(diag.DegenerateData, in.InvalidTotal-1)
		sink.Warn(diag.DegenerateData, "vertices with zero or huge total weight left unnormalized",
			zap.Int("vertices", in.InvalidTotal))
	}

	bindShape := math.Identity()
	if skin.BindShapeMatrix != ([16]float32{}) {
		bindShape = math.FromRowMajor(skin.BindShapeMatrix)
	}

	sink.Debug("skin bound",
		zap.String("skin", skin.ID),
		zap.Int("joints", len(skin.Joints)),
		zap.Int("bones", len(bones)),
		zap.Int("vertices", in.VertexCount()))
	return &skinBinding{bones: bones, influence: in, bindShape: bindShape}, nil
}

// mergeBones merges every skin's bones into one array and rewrites the bone
// indices of skinned chunks. A chunk whose indices cannot be rewritten loses
// its skin; if the merge itself fails every chunk does.
func mergeBones(chunks []*model.GeometryChunk, jobSkin []int, sets [][]skeleton.Bone, sink *diag.Sink) []skeleton.Bone {
	if len(sets) == 0 {
		return nil
	}
	merged, maps, err := skeleton.Merge(sets)
	if err != nil {
		sink.Error(diag.InconsistentData, "bone merge failed, using static meshes", err)
		for _, c := range chunks {
			if c != nil {
				c.DropSkin()
			}
		}
		return nil
	}
	for i, c := range chunks {
		if c == nil || !c.Skinned() {
			continue
		}
		if err := skeleton.RemapBoneIndices(c.BoneIndices, maps[jobSkin[i]]); err != nil {
			sink.Error(diag.InconsistentData, "bone remap failed, using static mesh", err, zap.String("chunk", c.Name))
			c.DropSkin()
		}
	}
	sink.Debug("bones merged", zap.Int("sets", len(sets)), zap.Int("bones", len(merged)))
	return merged
}
