package export

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/scenebake/internal/model"
)

// Manifest summarizes a converted document.
type Manifest struct {
	Name        string             `yaml:"name"`
	Chunks      []ChunkSummary     `yaml:"chunks"`
	Bones       []BoneSummary      `yaml:"bones"`
	Animations  []AnimationSummary `yaml:"animations"`
	Materials   []string           `yaml:"materials,omitempty"`
	Diagnostics map[string]int     `yaml:"diagnostics,omitempty"`
}

// ChunkSummary describes one geometry chunk.
type ChunkSummary struct {
	Name      string     `yaml:"name"`
	Mesh      string     `yaml:"mesh"`
	Vertices  int        `yaml:"vertices"`
	Triangles int        `yaml:"triangles"`
	Skinned   bool       `yaml:"skinned"`
	Material  int        `yaml:"material"`
	Min       [3]float32 `yaml:"min,flow"`
	Max       [3]float32 `yaml:"max,flow"`
}

// BoneSummary describes one bone.
type BoneSummary struct {
	Name   string `yaml:"name"`
	Parent int    `yaml:"parent"`
}

// AnimationSummary describes one baked animation and which bones kept tracks.
type AnimationSummary struct {
	Name      string   `yaml:"name"`
	FPS       float32  `yaml:"fps"`
	Keyframes int      `yaml:"keyframes"`
	Duration  float32  `yaml:"duration"`
	Tracks    []string `yaml:"tracks,flow"`
}

// Summarize builds the manifest of doc. counts, if non-nil, is recorded as the
// diagnostic tally keyed by category name.
func Summarize(doc *model.Document, counts map[string]int) *Manifest {
	m := &Manifest{Name: doc.Name, Diagnostics: counts}
	for i := range doc.Chunks {
		c := &doc.Chunks[i]
		m.Chunks = append(m.Chunks, ChunkSummary{
			Name:      c.Name,
			Mesh:      c.Mesh,
			Vertices:  c.VertexCount,
			Triangles: c.TriangleCount,
			Skinned:   c.Skinned(),
			Material:  c.Material,
			Min:       c.Bounds.Min,
			Max:       c.Bounds.Max,
		})
	}
	for _, b := range doc.Bones {
		m.Bones = append(m.Bones, BoneSummary{Name: b.Name, Parent: b.Parent})
	}
	for i := range doc.Animations {
		a := &doc.Animations[i]
		s := AnimationSummary{Name: a.Name, FPS: a.FPS, Keyframes: a.KeyframeCount, Duration: a.Duration}
		for bi := range a.Tracks {
			if !a.Tracks[bi].Empty() && bi < len(doc.Bones) {
				s.Tracks = append(s.Tracks, doc.Bones[bi].Name)
			}
		}
		m.Animations = append(m.Animations, s)
	}
	for _, mat := range doc.Materials {
		m.Materials = append(m.Materials, mat.Name)
	}
	return m
}

// WriteManifest writes the YAML manifest of doc to path.
func WriteManifest(doc *model.Document, counts map[string]int, path string) error {
	data, err := yaml.Marshal(Summarize(doc, counts))
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
