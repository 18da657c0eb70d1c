package model

import (
	"errors"
	"fmt"
)

// Document invariant errors.
var (
	ErrInvalidChunk     = errors.New("invalid geometry chunk")
	ErrInvalidBone      = errors.New("invalid bone")
	ErrInvalidAnimation = errors.New("invalid animation")
)

// Validate checks the per-chunk invariants: every per-vertex array has
// VertexCount*width entries and every index is in [0, VertexCount).
func (c *GeometryChunk) Validate() error {
	if len(c.Indices) != c.TriangleCount*3 {
		return fmt.Errorf("%w: %s: %d indices for %d triangles", ErrInvalidChunk, c.Name, len(c.Indices), c.TriangleCount)
	}
	for _, idx := range c.Indices {
		if int(idx) >= c.VertexCount {
			return fmt.Errorf("%w: %s: index %d >= vertex count %d", ErrInvalidChunk, c.Name, idx, c.VertexCount)
		}
	}

	arrays := []struct {
		name     string
		n, width int
		optional bool
	}{
		{"positions", len(c.Positions), PositionWidth, false},
		{"normals", len(c.Normals), NormalWidth, true},
		{"texcoords", len(c.TexCoords), TexCoordWidth, true},
		{"bone indices", len(c.BoneIndices), InfluenceWidth, true},
		{"bone weights", len(c.BoneWeights), InfluenceWidth, c.BoneIndices == nil},
	}
	for _, a := range arrays {
		if a.optional && a.n == 0 {
			continue
		}
		if a.n != c.VertexCount*a.width {
			return fmt.Errorf("%w: %s: %s has %d entries, want %d", ErrInvalidChunk, c.Name, a.name, a.n, c.VertexCount*a.width)
		}
	}
	return nil
}

// Validate checks the whole document: chunk invariants, bone parent closure,
// bone index ranges and animation shapes.
func (d *Document) Validate() error {
	for i, b := range d.Bones {
		if b.Parent < -1 || b.Parent >= i {
			return fmt.Errorf("%w: %s (%d): parent %d", ErrInvalidBone, b.Name, i, b.Parent)
		}
	}

	for i := range d.Chunks {
		c := &d.Chunks[i]
		if err := c.Validate(); err != nil {
			return err
		}
		for _, bi := range c.BoneIndices {
			if int(bi) >= len(d.Bones) {
				return fmt.Errorf("%w: %s: bone index %d >= bone count %d", ErrInvalidChunk, c.Name, bi, len(d.Bones))
			}
		}
	}

	for i := range d.Animations {
		if err := d.Animations[i].Validate(len(d.Bones)); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the keyframe count and that every retained track channel has
// one sample per keyframe.
func (a *AnimationData) Validate(boneCount int) error {
	if a.KeyframeCount < 2 {
		return fmt.Errorf("%w: %s: %d keyframes", ErrInvalidAnimation, a.Name, a.KeyframeCount)
	}
	if len(a.Tracks) != boneCount {
		return fmt.Errorf("%w: %s: %d tracks for %d bones", ErrInvalidAnimation, a.Name, len(a.Tracks), boneCount)
	}
	for i := range a.Tracks {
		t := &a.Tracks[i]
		lengths := []int{
			len(t.Position), len(t.Rotation), len(t.Scale),
			len(t.RestPosition), len(t.RestRotation), len(t.RestScale),
		}
		for _, n := range lengths {
			if n != 0 && n != a.KeyframeCount {
				return fmt.Errorf("%w: %s: track %d has %d samples, want %d", ErrInvalidAnimation, a.Name, i, n, a.KeyframeCount)
			}
		}
	}
	return nil
}
