package skeleton

import (
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// RestMatrix returns a bone's rest transform relative to its parent bone. A
// bone's parent is always its node's scene parent, so this is the node's local
// matrix; root bones take the node's full world matrix.
func RestMatrix(s *scene.Scene, b *Bone) math.Mat4 {
	if b.Parent < 0 {
		return s.WorldMatrix(b.Node)
	}
	return s.Nodes[b.Node].LocalMatrix()
}

// ToModel converts a merged bone array into output bones with rest TRS.
func ToModel(s *scene.Scene, bones []Bone) []model.Bone {
	out := make([]model.Bone, len(bones))
	for i := range bones {
		b := &bones[i]
		t, r, sc := RestMatrix(s, b).Decompose()
		out[i] = model.Bone{
			Name:        s.Nodes[b.Node].DisplayName(),
			Parent:      b.Parent,
			InverseBind: b.InvBind,
			Position:    t,
			Rotation:    r,
			Scale:       sc,
		}
	}
	return out
}
