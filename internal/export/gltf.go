// Package export writes converted documents as glTF 2.0 (binary or JSON) and
// as a YAML manifest.
package export

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/pkg/math"
)

// Generator is written to the glTF asset header.
const Generator = "scenebake"

// WriteGLTF builds a glTF document from doc and saves it to path, as GLB when
// binary is set. JSON output embeds its buffers as data URIs.
func WriteGLTF(doc *model.Document, path string, binary bool) error {
	g := Build(doc)
	var err error
	if binary {
		err = gltf.SaveBinary(g, path)
	} else {
		for _, b := range g.Buffers {
			b.EmbeddedResource()
		}
		err = gltf.Save(g, path)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Build converts doc into a glTF document. Bones become nodes 0..n-1 sharing
// one skin; each chunk becomes a mesh with its own node. Skinned chunk
// vertices are pre-multiplied by the chunk's bind-shape matrix.
func Build(doc *model.Document) *gltf.Document {
	g := gltf.NewDocument()
	g.Asset.Generator = Generator
	if doc.Name != "" {
		g.Scenes[0].Name = doc.Name
	}

	for _, m := range doc.Materials {
		mat := &gltf.Material{Name: m.Name}
		if m.Diffuse != ([4]float32{}) {
			c := m.Diffuse
			mat.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{BaseColorFactor: &c}
		}
		g.Materials = append(g.Materials, mat)
	}

	skin := addBones(g, doc.Bones)
	for i := range doc.Chunks {
		addChunk(g, &doc.Chunks[i], skin)
	}
	for i := range doc.Animations {
		addAnimation(g, &doc.Animations[i])
	}
	return g
}

func addBones(g *gltf.Document, bones []model.Bone) *uint32 {
	if len(bones) == 0 {
		return nil
	}
	joints := make([]uint32, len(bones))
	inv := make([][4][4]float32, len(bones))
	for i, b := range bones {
		g.Nodes = append(g.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: b.Position.Array(),
			Rotation:    b.Rotation.Array(),
			Scale:       b.Scale.Array(),
		})
		joints[i] = uint32(i)
		inv[i] = b.InverseBind.Columns()
	}
	for i, b := range bones {
		if b.Parent < 0 {
			g.Scenes[0].Nodes = append(g.Scenes[0].Nodes, uint32(i))
			continue
		}
		parent := g.Nodes[b.Parent]
		parent.Children = append(parent.Children, uint32(i))
	}

	g.Skins = append(g.Skins, &gltf.Skin{
		Joints:              joints,
		InverseBindMatrices: gltf.Index(addMatrices(g, inv)),
		Skeleton:            gltf.Index(0),
	})
	return gltf.Index(uint32(len(g.Skins) - 1))
}

// addMatrices writes a MAT4 accessor by writing the columns as VEC4 and
// regrouping them.
func addMatrices(g *gltf.Document, mats [][4][4]float32) uint32 {
	cols := make([][4]float32, 0, len(mats)*4)
	for _, m := range mats {
		cols = append(cols, m[0], m[1], m[2], m[3])
	}
	acc := modeler.WriteTangent(g, cols)
	g.Accessors[acc].Type = gltf.AccessorMat4
	g.Accessors[acc].Count /= 4
	g.BufferViews[*g.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func addChunk(g *gltf.Document, c *model.GeometryChunk, skin *uint32) {
	skinned := c.Skinned() && skin != nil
	bindShape := math.Identity()
	if skinned && c.BindShape != nil {
		bindShape = *c.BindShape
	}

	positions := make([][3]float32, c.VertexCount)
	for v := range positions {
		p := [3]float32{c.Positions[v*3], c.Positions[v*3+1], c.Positions[v*3+2]}
		positions[v] = bindShape.TransformPoint(p)
	}
	attrs := map[string]uint32{"POSITION": modeler.WritePosition(g, positions)}

	if len(c.Normals) > 0 {
		normals := make([][3]float32, c.VertexCount)
		for v := range normals {
			n := math.Vec3{X: c.Normals[v*3], Y: c.Normals[v*3+1], Z: c.Normals[v*3+2]}
			d := bindShape.TransformDirection(n.Array())
			normals[v] = math.Vec3{X: d[0], Y: d[1], Z: d[2]}.Normalize().Array()
		}
		attrs["NORMAL"] = modeler.WriteNormal(g, normals)
	}
	if len(c.TexCoords) > 0 {
		uvs := make([][2]float32, c.VertexCount)
		for v := range uvs {
			uvs[v] = [2]float32{c.TexCoords[v*2], c.TexCoords[v*2+1]}
		}
		attrs["TEXCOORD_0"] = modeler.WriteTextureCoord(g, uvs)
	}
	if skinned {
		joints := make([][4]uint8, c.VertexCount)
		weights := make([][4]float32, c.VertexCount)
		for v := range joints {
			copy(joints[v][:], c.BoneIndices[v*4:v*4+4])
			copy(weights[v][:], c.BoneWeights[v*4:v*4+4])
		}
		attrs["JOINTS_0"] = modeler.WriteJoints(g, joints)
		attrs["WEIGHTS_0"] = modeler.WriteWeights(g, weights)
	}

	prim := &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(modeler.WriteIndices(g, c.Indices)),
	}
	if c.Material >= 0 && c.Material < len(g.Materials) {
		prim.Material = gltf.Index(uint32(c.Material))
	}
	g.Meshes = append(g.Meshes, &gltf.Mesh{Name: c.Name, Primitives: []*gltf.Primitive{prim}})

	node := &gltf.Node{
		Name: c.Name,
		Mesh: gltf.Index(uint32(len(g.Meshes) - 1)),
	}
	if skinned {
		node.Skin = skin
	} else if !c.Transform.IsIdentity() {
		node.Matrix = c.Transform
	}
	g.Nodes = append(g.Nodes, node)
	g.Scenes[0].Nodes = append(g.Scenes[0].Nodes, uint32(len(g.Nodes)-1))
}

// addAnimation writes one LINEAR sampler per retained track channel. Key
// times start at zero.
func addAnimation(g *gltf.Document, a *model.AnimationData) {
	keys := make([]float32, a.KeyframeCount)
	for i := range keys {
		keys[i] = a.Time(i) - a.Start
	}
	var keysAcc *uint32
	anim := &gltf.Animation{Name: a.Name}

	sample := func(node int, path gltf.TRSProperty, output uint32) {
		if keysAcc == nil {
			keysAcc = gltf.Index(modeler.WriteAccessor(g, gltf.TargetArrayBuffer, keys))
		}
		anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
			Input:         keysAcc,
			Output:        gltf.Index(output),
			Interpolation: gltf.InterpolationLinear,
		})
		anim.Channels = append(anim.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(uint32(node)),
				Path: path,
			},
		})
	}

	for bi := range a.Tracks {
		tr := &a.Tracks[bi]
		if tr.Position != nil {
			sample(bi, gltf.TRSTranslation, modeler.WritePosition(g, vec3s(tr.Position)))
		}
		if tr.Rotation != nil {
			rot := make([][4]float32, len(tr.Rotation))
			for i, q := range tr.Rotation {
				rot[i] = q.Normalize().Array()
			}
			sample(bi, gltf.TRSRotation, modeler.WriteTangent(g, rot))
		}
		if tr.Scale != nil {
			sample(bi, gltf.TRSScale, modeler.WriteAccessor(g, gltf.TargetArrayBuffer, vec3s(tr.Scale)))
		}
	}
	if len(anim.Channels) > 0 {
		g.Animations = append(g.Animations, anim)
	}
}

func vec3s(v []math.Vec3) [][3]float32 {
	out := make([][3]float32, len(v))
	for i := range v {
		out[i] = v[i].Array()
	}
	return out
}
