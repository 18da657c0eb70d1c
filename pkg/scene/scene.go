// Package scene holds the already-resolved scene document consumed by the converter:
// a node arena with transform stacks, geometries, skins, geometry instances,
// animations and materials.
package scene

// Scene is the root of a resolved scene document.
type Scene struct {
	Name       string      `yaml:"name"`
	Nodes      []Node      `yaml:"nodes"`
	Geometries []Geometry  `yaml:"geometries"`
	Skins      []Skin      `yaml:"skins"`
	Instances  []Instance  `yaml:"instances"`
	Animations []Animation `yaml:"animations"`
	Materials  []Material  `yaml:"materials"`
}

// Node is a scene-graph node. Children indices are authoritative; Parent is
// derived by Link and is -1 for roots.
type Node struct {
	ID         string        `yaml:"id"`
	SID        string        `yaml:"sid"`
	Name       string        `yaml:"name"`
	Children   []int         `yaml:"children"`
	Transforms []TransformOp `yaml:"transforms"`

	Parent int `yaml:"-"`
}

// DisplayName returns the first non-empty of name, SID and ID.
func (n *Node) DisplayName() string {
	switch {
	case n.Name != "":
		return n.Name
	case n.SID != "":
		return n.SID
	default:
		return n.ID
	}
}

// Source is a flat float array with a per-element stride.
type Source struct {
	ID     string    `yaml:"id"`
	Stride int       `yaml:"stride"`
	Data   []float32 `yaml:"data"`
}

// Count returns the number of elements in the source.
func (s *Source) Count() int {
	if s.Stride <= 0 {
		return 0
	}
	return len(s.Data) / s.Stride
}

// Input binds one per-corner index channel of a primitive to a source.
type Input struct {
	Semantic string `yaml:"semantic"`
	Source   string `yaml:"source"`
	Offset   int    `yaml:"offset"`
	Set      int    `yaml:"set"`
}

// Primitive kinds.
const (
	PrimitiveTriangles = "triangles"
	PrimitivePolylist  = "polylist"
	PrimitivePolygons  = "polygons"
	PrimitiveLines     = "lines"
)

// Input semantics understood by the converter.
const (
	SemanticVertex   = "VERTEX"
	SemanticPosition = "POSITION"
	SemanticNormal   = "NORMAL"
	SemanticTexCoord = "TEXCOORD"
)

// Primitive is one list of polygons sharing a material. P holds, for every
// corner, one index per input channel (stride = max offset + 1).
type Primitive struct {
	Kind     string  `yaml:"kind"`
	Material string  `yaml:"material"`
	Count    int     `yaml:"count"`
	Inputs   []Input `yaml:"inputs"`
	VCount   []int   `yaml:"vcount"`
	P        []int   `yaml:"p"`
}

// Stride returns the number of indices per corner.
func (p *Primitive) Stride() int {
	stride := 0
	for _, in := range p.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	return stride
}

// Input returns the input with the given semantic and the lowest set.
func (p *Primitive) Input(semantic string) (Input, bool) {
	var best Input
	found := false
	for _, in := range p.Inputs {
		if in.Semantic != semantic {
			continue
		}
		if !found || in.Set < best.Set {
			best = in
			found = true
		}
	}
	return best, found
}

// Geometry is a mesh: sources plus primitives indexing into them.
type Geometry struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Sources    []Source    `yaml:"sources"`
	Primitives []Primitive `yaml:"primitives"`
}

// Source looks up a source by ID.
func (g *Geometry) Source(id string) (*Source, bool) {
	for i := range g.Sources {
		if g.Sources[i].ID == id {
			return &g.Sources[i], true
		}
	}
	return nil, false
}

// Skin binds a geometry's vertices to joints. Matrices are row-major. An all-zero
// bind-shape matrix means identity.
type Skin struct {
	ID              string        `yaml:"id"`
	Geometry        string        `yaml:"geometry"`
	BindShapeMatrix [16]float32   `yaml:"bind_shape_matrix"`
	Joints          []string      `yaml:"joints"`
	InvBindMatrices [][16]float32 `yaml:"inv_bind_matrices"`
	Weights         []float32     `yaml:"weights"`
	VCount          []int         `yaml:"vcount"`
	V               []int         `yaml:"v"`
}

// Instance places a geometry (optionally skinned or morphed) at a node.
type Instance struct {
	Name      string            `yaml:"name"`
	Node      int               `yaml:"node"`
	Geometry  string            `yaml:"geometry"`
	Skin      string            `yaml:"skin"`
	Morph     string            `yaml:"morph"`
	Skeletons []int             `yaml:"skeletons"`
	Materials map[string]string `yaml:"materials"`
}

// Material profiles.
const (
	ProfileCommon = "common"
)

// Material is passed through to the output unchanged.
type Material struct {
	ID      string     `yaml:"id"`
	Name    string     `yaml:"name"`
	Profile string     `yaml:"profile"`
	Diffuse [4]float32 `yaml:"diffuse"`
	Texture string     `yaml:"texture"`
}

// Animation is a (possibly nested) group of channels.
type Animation struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Channels []Channel   `yaml:"channels"`
	Children []Animation `yaml:"children"`
}

// DisplayName returns the name, falling back to the ID.
func (a *Animation) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Pool returns every channel of the animation and its nested groups, depth first.
func (a *Animation) Pool() []Channel {
	channels := append([]Channel(nil), a.Channels...)
	for i := range a.Children {
		channels = append(channels, a.Children[i].Pool()...)
	}
	return channels
}

// Target addresses an animatable value: the transform op with the given SID on
// a node, optionally narrowed by a member selector (X, Y, Z, ANGLE, (r)(c), (i)).
type Target struct {
	Node   int    `yaml:"node"`
	SID    string `yaml:"sid"`
	Member string `yaml:"member"`
	Morph  bool   `yaml:"morph"`
}

// Sampler holds keyframe data. Tangents are (time, value) pairs per component
// per key.
type Sampler struct {
	Input         []float32 `yaml:"input"`
	Output        []float32 `yaml:"output"`
	InTangent     []float32 `yaml:"in_tangent"`
	OutTangent    []float32 `yaml:"out_tangent"`
	Interpolation []string  `yaml:"interpolation"`
}

// Channel connects a sampler to a target.
type Channel struct {
	Name    string  `yaml:"name"`
	Target  Target  `yaml:"target"`
	Sampler Sampler `yaml:"sampler"`
}
