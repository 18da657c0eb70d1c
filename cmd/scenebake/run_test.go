package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/scenebake/internal/config"
	"github.com/Faultbox/scenebake/internal/convert"
	"github.com/Faultbox/scenebake/internal/export"
)

const armYAML = `
name: arm
nodes:
  - id: Shoulder
    sid: Shoulder
    children: [1]
  - id: Elbow
    sid: Elbow
    transforms:
      - {kind: translate, sid: location, values: [0, 1, 0]}
      - {kind: rotate, sid: rotZ, values: [0, 0, 1, 0]}
  - {id: MeshNode}
geometries:
  - id: tri
    sources:
      - {id: pos, stride: 3, data: [0, 0, 0, 1, 0, 0, 0, 2, 0]}
    primitives:
      - kind: triangles
        count: 1
        inputs: [{semantic: VERTEX, source: pos, offset: 0}]
        p: [0, 1, 2]
skins:
  - id: armSkin
    geometry: tri
    joints: [Shoulder, Elbow]
    inv_bind_matrices:
      - [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
      - [1, 0, 0, 0, 0, 1, 0, -1, 0, 0, 1, 0, 0, 0, 0, 1]
    weights: [1]
    vcount: [1, 1, 1]
    v: [0, 0, 0, 0, 1, 0]
instances:
  - {name: arm, node: 2, skin: armSkin, skeletons: [0]}
animations:
  - id: bend
    channels:
      - target: {node: 1, sid: rotZ, member: ANGLE}
        sampler: {input: [0, 1], output: [0, 90]}
`

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(armYAML), 0644))
	return path
}

func TestConvertOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Geometry.Workers = 3
	cfg.Bake.FPS = 30
	cfg.Bake.Prune = false
	cfg.Bake.Mode = config.ModePooled
	cfg.Bake.Labels = []config.LabelConfig{{Name: "a", Begin: 0, End: 1, FPS: 12}}

	opts := convertOptions(cfg)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, convert.ModePooled, opts.Mode)
	assert.Equal(t, float32(30), opts.Bake.FPS)
	assert.False(t, opts.Bake.Prune)
	assert.Equal(t, float32(0.05), opts.Bake.Tolerance.Rotation)
	assert.Equal(t, 64, opts.Bake.MaxIterations)
	require.Len(t, opts.Labels, 1)
	assert.Equal(t, "a", opts.Labels[0].Name)
	assert.Equal(t, float32(12), opts.Labels[0].FPS)
}

func TestBinaryOutput(t *testing.T) {
	cfg := config.Default()
	assert.True(t, binaryOutput(cfg, "out.glb"))
	assert.False(t, binaryOutput(cfg, "out.GLTF"))
	assert.True(t, binaryOutput(cfg, "out.bin"))

	cfg.Output.Format = config.FormatGLTF
	assert.False(t, binaryOutput(cfg, "out"))
	assert.True(t, binaryOutput(cfg, "out.glb"))
}

func TestConvertFile(t *testing.T) {
	in := writeScene(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "arm.glb")

	cfg := config.Default()
	cfg.Bake.FPS = 10
	cfg.Output.Manifest = filepath.Join(dir, "arm.manifest.yaml")

	res, err := convertFile(context.Background(), cfg, in, out, zap.NewNop())
	require.NoError(t, err)

	doc := res.doc
	assert.Equal(t, "arm", doc.Name)
	require.Len(t, doc.Chunks, 1)
	assert.True(t, doc.Chunks[0].Skinned())
	require.Len(t, doc.Bones, 2)
	require.Len(t, doc.Animations, 1)
	assert.Equal(t, 11, doc.Animations[0].KeyframeCount)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	data, err := os.ReadFile(cfg.Output.Manifest)
	require.NoError(t, err)
	var m export.Manifest
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.Equal(t, "arm", m.Name)
	require.Len(t, m.Animations, 1)
	assert.Equal(t, []string{"Elbow"}, m.Animations[0].Tracks)
}

func TestConvertFileMissingInput(t *testing.T) {
	_, err := convertFile(context.Background(), config.Default(),
		filepath.Join(t.TempDir(), "missing.yaml"), "", zap.NewNop())
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	res, err := convertFile(context.Background(), config.Default(), writeScene(t), "", zap.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, res))
	assert.Contains(t, buf.String(), "name: arm")
	assert.Contains(t, buf.String(), "Shoulder")
}

func TestCountsByNameEmpty(t *testing.T) {
	res, err := convertFile(context.Background(), config.Default(), writeScene(t), "", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, res.counts)
}
