package convert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/scenebake/internal/anim"
	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/pkg/scene"
)

const rigYAML = `
name: rig
nodes:
  - {id: Armature, children: [1]}
  - id: A
    sid: A
    children: [2]
    transforms: [{kind: translate, sid: location, values: [0, 1, 0]}]
  - id: B
    sid: B
    children: [3]
    transforms: [{kind: translate, sid: location, values: [0, 1, 0]}]
  - id: C
    sid: C
    children: [4]
    transforms:
      - {kind: translate, sid: location, values: [0, 1, 0]}
      - {kind: rotate, sid: rotZ, values: [0, 0, 1, 0]}
  - id: D
    sid: D
    transforms: [{kind: translate, sid: location, values: [0, 1, 0]}]
  - {id: MeshNode}
geometries:
  - id: tri
    sources:
      - {id: pos, stride: 3, data: [0, 0, 0, 1, 0, 0, 0, 1, 0]}
    primitives:
      - kind: triangles
        material: red
        count: 1
        inputs: [{semantic: VERTEX, source: pos, offset: 0}]
        p: [0, 1, 2]
  - id: bad
    sources:
      - {id: pos, stride: 3, data: [0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0]}
    primitives:
      - kind: polygons
        inputs: [{semantic: VERTEX, source: pos, offset: 0}]
        vcount: [4]
        p: [0, 1, 3, 2]
skins:
  - id: skin1
    geometry: tri
    joints: [A, B, C]
    inv_bind_matrices:
      - [1, 0, 0, 0, 0, 1, 0, -1, 0, 0, 1, 0, 0, 0, 0, 1]
      - [1, 0, 0, 0, 0, 1, 0, -2, 0, 0, 1, 0, 0, 0, 0, 1]
      - [1, 0, 0, 0, 0, 1, 0, -3, 0, 0, 1, 0, 0, 0, 0, 1]
    weights: [1]
    vcount: [1, 1, 1]
    v: [0, 0, 1, 0, 2, 0]
  - id: skin2
    geometry: tri
    joints: [B, C, D]
    inv_bind_matrices:
      - [1, 0, 0, 0, 0, 1, 0, -2, 0, 0, 1, 0, 0, 0, 0, 1]
      - [1, 0, 0, 0, 0, 1, 0, -3, 0, 0, 1, 0, 0, 0, 0, 1]
      - [1, 0, 0, 0, 0, 1, 0, -4, 0, 0, 1, 0, 0, 0, 0, 1]
    weights: [1]
    vcount: [1, 1, 1]
    v: [0, 0, 1, 0, 2, 0]
  - id: skin3
    geometry: tri
    joints: [A, Missing]
    inv_bind_matrices:
      - [1, 0, 0, 0, 0, 1, 0, -1, 0, 0, 1, 0, 0, 0, 0, 1]
      - [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
    weights: [1]
    vcount: [1, 1, 1]
    v: [0, 0, 0, 0, 0, 0]
instances:
  - {name: body1, node: 5, skin: skin1, skeletons: [1]}
  - {name: body2, node: 5, skin: skin2, skeletons: [2]}
  - {name: broken, node: 5, skin: skin3, skeletons: [1]}
  - {name: prop, node: 5, geometry: tri, morph: squash, materials: {red: fancy}}
  - {name: junk, node: 5, geometry: bad}
materials:
  - {id: red, name: Red, profile: common, diffuse: [1, 0, 0, 1]}
  - {id: fancy, name: Fancy, profile: glsl}
animations:
  - id: walk
    channels:
      - target: {node: 3, sid: rotZ, member: ANGLE}
        sampler: {input: [0, 1], output: [0, 90]}
  - id: idle
    channels:
      - target: {node: 9, sid: location}
        sampler: {input: [0, 1], output: [0, 0, 0, 1, 1, 1]}
`

func loadRig(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Parse([]byte(rigYAML))
	require.NoError(t, err)
	return s
}

func TestConvert(t *testing.T) {
	s := loadRig(t)
	sink := diag.Nop()

	doc, err := Convert(context.Background(), s, DefaultOptions(), sink)
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	require.Len(t, doc.Chunks, 4)
	names := make([]string, len(doc.Chunks))
	for i, c := range doc.Chunks {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"body1.0", "body2.0", "broken.0", "prop.0"}, names)

	require.Len(t, doc.Bones, 4)
	for i, name := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, name, doc.Bones[i].Name)
		assert.Equal(t, i-1, doc.Bones[i].Parent)
	}

	body1, body2 := doc.Chunks[0], doc.Chunks[1]
	require.True(t, body1.Skinned())
	require.True(t, body2.Skinned())
	assert.Equal(t, []uint8{0, 1, 2}, slot0(body1.BoneIndices))
	assert.Equal(t, []uint8{1, 2, 3}, slot0(body2.BoneIndices))
	assert.False(t, doc.Chunks[2].Skinned(), "unresolved joint degrades to a static mesh")

	assert.Equal(t, 0, body1.Material)
	assert.Equal(t, 1, doc.Chunks[3].Material)
	assert.Equal(t, "Red", doc.Materials[0].Name)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, doc.Materials[0].Diffuse)
	assert.Equal(t, "Fancy", doc.Materials[1].Name)

	require.Len(t, doc.Animations, 1)
	walk := doc.Animations[0]
	assert.Equal(t, "walk", walk.Name)
	assert.True(t, walk.Tracks[0].Empty())
	assert.True(t, walk.Tracks[1].Empty())
	assert.NotNil(t, walk.Tracks[2].Rotation)
	assert.Nil(t, walk.Tracks[2].Position)
	assert.True(t, walk.Tracks[3].Empty())

	assert.Equal(t, map[diag.Kind]int{
		diag.MissingReference:   2,
		diag.UnsupportedFeature: 3,
		diag.DegenerateData:     1,
	}, sink.Counts())
}

func slot0(indices []uint8) []uint8 {
	var out []uint8
	for i := 0; i < len(indices); i += 4 {
		out = append(out, indices[i])
	}
	return out
}

func TestConvertPooledLabels(t *testing.T) {
	s := loadRig(t)
	opts := DefaultOptions()
	opts.Mode = ModePooled
	opts.Labels = []anim.Label{
		{Name: "first", Begin: 0, End: 0.5, FPS: 4},
		{Name: "second", Begin: 0.5, End: 1, FPS: 4},
	}

	doc, err := Convert(context.Background(), s, opts, nil)
	require.NoError(t, err)
	require.Len(t, doc.Animations, 2)
	assert.Equal(t, "first", doc.Animations[0].Name)
	assert.Equal(t, 3, doc.Animations[0].KeyframeCount)
	assert.Equal(t, "second", doc.Animations[1].Name)
}

func TestConvertPooled(t *testing.T) {
	s := loadRig(t)
	opts := DefaultOptions()
	opts.Mode = ModePooled

	doc, err := Convert(context.Background(), s, opts, nil)
	require.NoError(t, err)
	require.Len(t, doc.Animations, 1)
	assert.Equal(t, "rig", doc.Animations[0].Name)
}

func TestConvertWithoutSkinsSkipsAnimations(t *testing.T) {
	s := loadRig(t)
	s.Instances = s.Instances[3:4]

	core, logs := observer.New(zapcore.InfoLevel)
	doc, err := Convert(context.Background(), s, DefaultOptions(), diag.New(zap.New(core)))
	require.NoError(t, err)
	assert.Empty(t, doc.Bones)
	assert.Empty(t, doc.Animations)
	assert.Equal(t, 1, logs.FilterMessage("scene has animations but no bones, nothing to bake").Len())

	morph := logs.FilterMessage("morph controller ignored, converting base geometry").All()
	require.Len(t, morph, 1)
	assert.Equal(t, "prop", morph[0].ContextMap()["instance"])
}

func TestConvertMissingGeometry(t *testing.T) {
	s := loadRig(t)
	s.Instances = []scene.Instance{{Name: "ghost", Node: 5, Geometry: "nothing"}}

	sink := diag.Nop()
	doc, err := Convert(context.Background(), s, DefaultOptions(), sink)
	require.NoError(t, err)
	assert.Empty(t, doc.Chunks)
	assert.Equal(t, 1, sink.Count(diag.MissingReference))
}

func TestConvertCancelled(t *testing.T) {
	s := loadRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Convert(ctx, s, DefaultOptions(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
