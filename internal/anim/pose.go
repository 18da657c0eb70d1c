// Package anim samples animation channels against a pose arena and bakes them
// into fixed-rate per-bone tracks.
package anim

import (
	"github.com/Faultbox/scenebake/internal/skeleton"
	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// Pose is a mutable copy of every node's transform op values, stored in one
// flat arena next to a rest snapshot. Channels write into it; Reset restores
// the rest pose with a single copy.
type Pose struct {
	scene   *scene.Scene
	offsets [][]int
	values  []float32
	rest    []float32
}

// NewPose snapshots the scene's transform values as the rest pose.
func NewPose(s *scene.Scene) *Pose {
	p := &Pose{scene: s, offsets: make([][]int, len(s.Nodes))}
	for i := range s.Nodes {
		ops := s.Nodes[i].Transforms
		p.offsets[i] = make([]int, len(ops))
		for j := range ops {
			p.offsets[i][j] = len(p.rest)
			p.rest = append(p.rest, ops[j].Values...)
		}
	}
	p.values = make([]float32, len(p.rest))
	copy(p.values, p.rest)
	return p
}

// Reset restores every transform to its rest value.
func (p *Pose) Reset() {
	copy(p.values, p.rest)
}

// Values returns the live value slice of one transform op.
func (p *Pose) Values(node, op int) []float32 {
	off := p.offsets[node][op]
	n := len(p.scene.Nodes[node].Transforms[op].Values)
	return p.values[off : off+n]
}

// Local composes a node's current transform stack.
func (p *Pose) Local(node int) math.Mat4 {
	m := math.Identity()
	for j, op := range p.scene.Nodes[node].Transforms {
		m = m.Mul(scene.MatrixOf(op.Kind, p.Values(node, j)))
	}
	return m
}

// World returns a node's current world matrix.
func (p *Pose) World(node int) math.Mat4 {
	m := math.Identity()
	for n := node; n >= 0; n = p.scene.Nodes[n].Parent {
		m = p.Local(n).Mul(m)
	}
	return m
}

// BoneMatrix returns a bone's current transform relative to its parent bone,
// matching skeleton.RestMatrix for the rest pose.
func (p *Pose) BoneMatrix(b *skeleton.Bone) math.Mat4 {
	if b.Parent < 0 {
		return p.World(b.Node)
	}
	return p.Local(b.Node)
}
