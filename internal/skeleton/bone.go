// Package skeleton builds bone arrays from skins, completes their parent
// chains, and merges the bone sets of several meshes into one array.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// Bone graph errors.
var (
	ErrJointNotFound     = errors.New("joint not found")
	ErrJointCount        = errors.New("joint and inverse bind matrix counts differ")
	ErrBoneNotFound      = errors.New("bone not found in merged set")
	ErrBoneIndexOverflow = errors.New("bone index does not fit in a byte")
)

// MaxBoneIndex is the largest bone index a chunk can store.
const MaxBoneIndex = 255

// Bone references a scene node by index. Parent indexes the same bone slice
// and is -1 for roots.
type Bone struct {
	Node           int
	Parent         int
	InvBind        math.Mat4
	AttachedToSkin bool
	Index          int
}

// SameBone reports whether a and b are the same node bound with a
// bit-identical inverse bind matrix.
func SameBone(a, b *Bone) bool {
	if a.Node != b.Node {
		return false
	}
	for i := range a.InvBind {
		if math32.Float32bits(a.InvBind[i]) != math32.Float32bits(b.InvBind[i]) {
			return false
		}
	}
	return true
}

// FindBoneNode resolves a scoped joint path by searching below each skeleton
// root in order. The first match wins. With no roots, the scene roots are used.
func FindBoneNode(s *scene.Scene, joint string, roots []int) (int, error) {
	if len(roots) == 0 {
		roots = s.Roots()
	}
	for _, r := range roots {
		if n := s.FindScoped(r, joint); n >= 0 {
			return n, nil
		}
	}
	return -1, fmt.Errorf("%q: %w", joint, ErrJointNotFound)
}

// CreateSkinBones creates one bone per joint, in joint order. Inverse bind
// matrices are row-major and are stored column-major. Any unresolved joint
// fails the whole skin.
func CreateSkinBones(s *scene.Scene, joints []string, roots []int, invBind [][16]float32) ([]Bone, error) {
	if len(joints) != len(invBind) {
		return nil, fmt.Errorf("%d joints, %d matrices: %w", len(joints), len(invBind), ErrJointCount)
	}
	bones := make([]Bone, 0, len(joints))
	for i, joint := range joints {
		node, err := FindBoneNode(s, joint, roots)
		if err != nil {
			return nil, err
		}
		bones = append(bones, Bone{
			Node:           node,
			Parent:         -1,
			InvBind:        math.FromRowMajor(invBind[i]),
			AttachedToSkin: true,
			Index:          i,
		})
	}
	return bones, nil
}

// FindBoneParents links every bone to the bone of its node's parent, creating
// bones for ancestors that have none. The walk stops at skeleton root nodes,
// or at scene roots when roots is empty. Created bones are not attached to the
// skin and use the inverse of their node's rest world matrix.
func FindBoneParents(s *scene.Scene, bones []Bone, roots []int) []Bone {
	stop := make(map[int]bool, len(roots))
	for _, r := range roots {
		stop[r] = true
	}
	for i := 0; i < len(bones); i++ {
		node := bones[i].Node
		parent := s.Nodes[node].Parent
		if stop[node] || parent < 0 {
			bones[i].Parent = -1
			continue
		}
		p := boneOfNode(bones, parent)
		if p < 0 {
			p = len(bones)
			bones = append(bones, Bone{
				Node:    parent,
				Parent:  -1,
				InvBind: s.WorldMatrix(parent).Inverse(),
				Index:   p,
			})
		}
		bones[i].Parent = p
	}
	return bones
}

func boneOfNode(bones []Bone, node int) int {
	for i := range bones {
		if bones[i].Node == node {
			return i
		}
	}
	return -1
}

// AppendBone merges src[i] into dest and returns its index there. A bone
// matching an existing one is reused with AttachedToSkin OR-combined;
// otherwise its parent is appended first, so parents always precede children.
func AppendBone(dest, src []Bone, i int) ([]Bone, int) {
	for j := range dest {
		if SameBone(&dest[j], &src[i]) {
			dest[j].AttachedToSkin = dest[j].AttachedToSkin || src[i].AttachedToSkin
			return dest, j
		}
	}
	parent := -1
	if src[i].Parent >= 0 {
		dest, parent = AppendBone(dest, src, src[i].Parent)
	}
	b := src[i]
	b.Parent = parent
	b.Index = len(dest)
	return append(dest, b), b.Index
}

// AppendBones merges every bone of src into dest.
func AppendBones(dest, src []Bone) []Bone {
	for i := range src {
		dest, _ = AppendBone(dest, src, i)
	}
	return dest
}

// BoneIndexMap maps every bone of oldBones to the index of its match in newBones.
func BoneIndexMap(oldBones, newBones []Bone) ([]int, error) {
	mapping := make([]int, len(oldBones))
	for i := range oldBones {
		mapping[i] = -1
		for j := range newBones {
			if SameBone(&oldBones[i], &newBones[j]) {
				mapping[i] = j
				break
			}
		}
		if mapping[i] < 0 {
			return nil, fmt.Errorf("bone %d (node %d): %w", i, oldBones[i].Node, ErrBoneNotFound)
		}
	}
	return mapping, nil
}

// RemapBoneIndices rewrites indices through mapping. Either every index is
// rewritten or, on error, none is.
func RemapBoneIndices(indices []uint8, mapping []int) error {
	for i, v := range indices {
		if int(v) >= len(mapping) {
			return fmt.Errorf("slot %d index %d of %d: %w", i, v, len(mapping), ErrBoneNotFound)
		}
		if mapping[v] > MaxBoneIndex {
			return fmt.Errorf("slot %d maps to %d: %w", i, mapping[v], ErrBoneIndexOverflow)
		}
	}
	for i, v := range indices {
		indices[i] = uint8(mapping[v])
	}
	return nil
}

// Merge merges bone sets pairwise into one array. It returns the merged array
// and, per set, the mapping from the set's bone indices to merged indices.
func Merge(sets [][]Bone) ([]Bone, [][]int, error) {
	var merged []Bone
	for _, set := range sets {
		merged = AppendBones(merged, set)
	}
	maps := make([][]int, len(sets))
	for k, set := range sets {
		m, err := BoneIndexMap(set, merged)
		if err != nil {
			return nil, nil, fmt.Errorf("bone set %d: %w", k, err)
		}
		maps[k] = m
	}
	for i := range merged {
		merged[i].Index = i
	}
	return merged, maps, nil
}
