// Package model holds the renderer-ready document produced by the converter:
// welded geometry chunks, one merged bone array and baked animations.
package model

import (
	"github.com/Faultbox/scenebake/pkg/math"
)

// Per-vertex component widths.
const (
	PositionWidth  = 3
	NormalWidth    = 3
	TexCoordWidth  = 2
	InfluenceWidth = 4
)

// NoMaterial marks a chunk without a resolved material.
const NoMaterial = -1

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// GeometryChunk is one triangle list with a unified per-vertex index buffer.
// All vertex arrays are vertex-major.
type GeometryChunk struct {
	Name          string
	Mesh          string
	VertexCount   int
	TriangleCount int
	Indices       []uint32

	Positions []float32
	Normals   []float32
	TexCoords []float32

	// Optional skin data, InfluenceWidth entries per vertex. BoneIndices index
	// the document's merged bone array.
	BoneIndices []uint8
	BoneWeights []float32
	// Bind-shape matrix of the source skin, kept separate from the bones'
	// inverse-bind matrices.
	BindShape *math.Mat4

	Material int
	Bounds   Bounds
	// Rest-pose world matrix of the node the geometry is instanced on.
	Transform math.Mat4
}

// Skinned reports whether the chunk carries bone influences.
func (c *GeometryChunk) Skinned() bool {
	return c.BoneIndices != nil
}

// DropSkin degrades the chunk to a static mesh.
func (c *GeometryChunk) DropSkin() {
	c.BoneIndices = nil
	c.BoneWeights = nil
	c.BindShape = nil
}

// Bone is one entry of the merged bone array. Parent is -1 for roots and always
// smaller than the bone's own index otherwise.
type Bone struct {
	Name        string
	Parent      int
	InverseBind math.Mat4

	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// Track holds one bone's baked samples. Each channel is nil when it was pruned,
// meaning the bone keeps its rest value for that channel.
type Track struct {
	// Relative to the parent bone.
	Position []math.Vec3
	Rotation []math.Quat
	Scale    []math.Vec3

	// Relative to the bone's own rest pose.
	RestPosition []math.Vec3
	RestRotation []math.Quat
	RestScale    []math.Vec3
}

// Empty reports whether every channel was pruned.
func (t *Track) Empty() bool {
	return t.Position == nil && t.Rotation == nil && t.Scale == nil
}

// AnimationData is one baked, fixed-rate animation with a track per bone.
type AnimationData struct {
	Name          string
	FPS           float32
	KeyframeCount int
	Start         float32
	Duration      float32
	Tracks        []Track
}

// Time returns the timestamp of keyframe i. The last keyframe lands exactly on
// Start + Duration.
func (a *AnimationData) Time(i int) float32 {
	if i >= a.KeyframeCount-1 {
		return a.Start + a.Duration
	}
	return a.Start + a.Duration*float32(i)/float32(a.KeyframeCount-1)
}

// Material is a pass-through material description.
type Material struct {
	Name    string
	Diffuse [4]float32
	Texture string
}

// Document is the complete converter output.
type Document struct {
	Name       string
	Chunks     []GeometryChunk
	Bones      []Bone
	Animations []AnimationData
	Materials  []Material
}
