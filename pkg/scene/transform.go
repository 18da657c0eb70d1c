package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenebake/pkg/math"
)

// OpKind is the kind of a transform op.
type OpKind string

// Transform op kinds.
const (
	OpMatrix    OpKind = "matrix"
	OpRotate    OpKind = "rotate"
	OpTranslate OpKind = "translate"
	OpScale     OpKind = "scale"
)

// Size returns the number of floats an op of this kind holds, or 0 for unknown kinds.
func (k OpKind) Size() int {
	switch k {
	case OpMatrix:
		return 16
	case OpRotate:
		return 4
	case OpTranslate, OpScale:
		return 3
	default:
		return 0
	}
}

// TransformOp is one element of a node's transform stack.
//
//	matrix:    16 floats, row-major
//	rotate:    axis x, y, z and angle in degrees
//	translate: x, y, z
//	scale:     x, y, z
type TransformOp struct {
	Kind   OpKind    `yaml:"kind"`
	SID    string    `yaml:"sid"`
	Values []float32 `yaml:"values"`
}

// MatrixOf returns the column-major matrix of an op of the given kind holding values.
// Short value slices yield the identity.
func MatrixOf(kind OpKind, v []float32) math.Mat4 {
	if len(v) < kind.Size() || kind.Size() == 0 {
		return math.Identity()
	}
	switch kind {
	case OpMatrix:
		var rm [16]float32
		copy(rm[:], v)
		return math.FromRowMajor(rm)
	case OpRotate:
		return math.RotateAxis([3]float32{v[0], v[1], v[2]}, v[3]*math32.Pi/180)
	case OpTranslate:
		return math.Translate(v[0], v[1], v[2])
	case OpScale:
		return math.Scale(v[0], v[1], v[2])
	}
	return math.Identity()
}

// Matrix returns the op's matrix.
func (op *TransformOp) Matrix() math.Mat4 {
	return MatrixOf(op.Kind, op.Values)
}

// LocalMatrix composes the node's transform stack in order.
func (n *Node) LocalMatrix() math.Mat4 {
	m := math.Identity()
	for i := range n.Transforms {
		m = m.Mul(n.Transforms[i].Matrix())
	}
	return m
}

// OpIndex returns the index of the transform op with the given SID, or -1.
func (n *Node) OpIndex(sid string) int {
	for i := range n.Transforms {
		if n.Transforms[i].SID == sid {
			return i
		}
	}
	return -1
}

// WorldMatrix returns the rest-pose world matrix of node i.
func (s *Scene) WorldMatrix(i int) math.Mat4 {
	m := math.Identity()
	for n := i; n >= 0; n = s.Nodes[n].Parent {
		m = s.Nodes[n].LocalMatrix().Mul(m)
	}
	return m
}
