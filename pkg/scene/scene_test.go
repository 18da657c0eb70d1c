package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/scenebake/pkg/math"
)

const sampleYAML = `
name: rig
nodes:
  - id: root
    name: Armature
    children: [1]
    transforms:
      - kind: translate
        sid: location
        values: [0, 1, 0]
  - id: hip
    sid: Hip
    children: [2]
    transforms:
      - kind: rotate
        sid: rotationZ
        values: [0, 0, 1, 90]
  - id: spine
    sid: Spine
    name: spine_name
geometries:
  - id: mesh
    sources:
      - id: pos
        stride: 3
        data: [0, 0, 0, 1, 0, 0, 0, 1, 0]
    primitives:
      - kind: triangles
        count: 1
        inputs:
          - {semantic: VERTEX, source: pos, offset: 0}
          - {semantic: TEXCOORD, source: uv1, offset: 1, set: 1}
          - {semantic: TEXCOORD, source: uv0, offset: 2, set: 0}
        p: [0, 0, 0, 1, 1, 1, 2, 2, 2]
instances:
  - node: 0
    geometry: mesh
animations:
  - id: walk
    channels:
      - target: {node: 1, sid: rotationZ, member: ANGLE}
        sampler:
          input: [0, 1]
          output: [0, 90]
    children:
      - id: walk_child
        channels:
          - target: {node: 0, sid: location}
            sampler:
              input: [0, 1]
              output: [0, 0, 0, 1, 1, 1]
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(s.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(s.Nodes))
	}
	if s.Nodes[0].Parent != -1 || s.Nodes[1].Parent != 0 || s.Nodes[2].Parent != 1 {
		t.Errorf("unexpected parents: %d %d %d", s.Nodes[0].Parent, s.Nodes[1].Parent, s.Nodes[2].Parent)
	}
	if roots := s.Roots(); len(roots) != 1 || roots[0] != 0 {
		t.Errorf("expected roots [0], got %v", roots)
	}

	g, ok := s.Geometry("mesh")
	if !ok {
		t.Fatal("geometry 'mesh' not found")
	}
	prim := &g.Primitives[0]
	if prim.Stride() != 3 {
		t.Errorf("expected stride 3, got %d", prim.Stride())
	}
	if in, ok := prim.Input(SemanticTexCoord); !ok || in.Source != "uv0" {
		t.Errorf("expected lowest TEXCOORD set uv0, got %+v", in)
	}
	if src, ok := g.Source("pos"); !ok || src.Count() != 3 {
		t.Errorf("expected 3 positions, got %+v", src)
	}

	if pooled := s.Animations[0].Pool(); len(pooled) != 2 {
		t.Errorf("expected 2 pooled channels, got %d", len(pooled))
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Name != "rig" {
		t.Errorf("expected name 'rig', got %q", s.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error loading missing file")
	}
}

func TestLinkErrors(t *testing.T) {
	tests := []struct {
		name    string
		scene   Scene
		wantErr error
	}{
		{
			name:    "child out of range",
			scene:   Scene{Nodes: []Node{{Children: []int{5}}}},
			wantErr: ErrInvalidNodeIndex,
		},
		{
			name:    "self child",
			scene:   Scene{Nodes: []Node{{Children: []int{0}}}},
			wantErr: ErrInvalidNodeIndex,
		},
		{
			name:    "two parents",
			scene:   Scene{Nodes: []Node{{Children: []int{2}}, {Children: []int{2}}, {}}},
			wantErr: ErrMultipleParents,
		},
		{
			name:    "cycle",
			scene:   Scene{Nodes: []Node{{Children: []int{1}}, {Children: []int{0}}}},
			wantErr: ErrNodeCycle,
		},
		{
			name: "bad transform",
			scene: Scene{Nodes: []Node{{Transforms: []TransformOp{
				{Kind: OpTranslate, Values: []float32{1, 2}},
			}}}},
			wantErr: ErrInvalidTransform,
		},
		{
			name:    "instance node out of range",
			scene:   Scene{Nodes: []Node{{}}, Instances: []Instance{{Node: 3}}},
			wantErr: ErrInvalidNodeIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Link()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFindScoped(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		name string
		root int
		path string
		want int
	}{
		{"sid match", 0, "Spine", 2},
		{"id match", 0, "hip", 1},
		{"name match", 0, "spine_name", 2},
		{"root itself", 0, "Armature", 0},
		{"nested path", 0, "Hip/Spine", 2},
		{"not below root", 2, "Hip", -1},
		{"unknown", 0, "Tail", -1},
		{"empty path", 0, "", -1},
		{"bad root", 9, "Hip", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.FindScoped(tt.root, tt.path); got != tt.want {
				t.Errorf("FindScoped(%d, %q) = %d, want %d", tt.root, tt.path, got, tt.want)
			}
		})
	}
}

func TestWorldMatrix(t *testing.T) {
	s, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Spine sits at the origin of Hip, which is rotated 90 degrees about Z and
	// translated by (0, 1, 0): a point on +X of Spine lands on (0, 2, 0).
	p := s.WorldMatrix(2).TransformPoint([3]float32{1, 0, 0})
	want := [3]float32{0, 2, 0}
	for i := range p {
		if d := p[i] - want[i]; d > 0.0001 || d < -0.0001 {
			t.Errorf("world point: got %v, want %v", p, want)
			break
		}
	}

	if !s.Nodes[2].LocalMatrix().IsIdentity() {
		t.Error("node without transforms should have identity local matrix")
	}
	if s.Nodes[1].OpIndex("rotationZ") != 0 || s.Nodes[1].OpIndex("nope") != -1 {
		t.Error("OpIndex lookup failed")
	}
}

func TestMatrixOf(t *testing.T) {
	m := MatrixOf(OpMatrix, []float32{
		1, 0, 0, 3,
		0, 1, 0, 4,
		0, 0, 1, 5,
		0, 0, 0, 1,
	})
	if m != math.Translate(3, 4, 5) {
		t.Errorf("matrix op: got %v", m)
	}
	if got := MatrixOf(OpScale, []float32{2}); !got.IsIdentity() {
		t.Error("short value slice should give identity")
	}
	if OpKind("skew").Size() != 0 {
		t.Error("unknown op kind should have size 0")
	}
}
