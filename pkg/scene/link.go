package scene

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scene document errors.
var (
	ErrInvalidNodeIndex = errors.New("invalid node index")
	ErrMultipleParents  = errors.New("node has more than one parent")
	ErrNodeCycle        = errors.New("node hierarchy contains a cycle")
	ErrInvalidTransform = errors.New("invalid transform op")
)

// Load reads and links a YAML scene document.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and links a YAML scene document.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := s.Link(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Link derives parent indices from child lists and validates the node arena.
func (s *Scene) Link() error {
	for i := range s.Nodes {
		s.Nodes[i].Parent = -1
	}

	for i := range s.Nodes {
		node := &s.Nodes[i]
		for _, c := range node.Children {
			if c < 0 || c >= len(s.Nodes) || c == i {
				return fmt.Errorf("node %d child %d: %w", i, c, ErrInvalidNodeIndex)
			}
			if s.Nodes[c].Parent != -1 {
				return fmt.Errorf("node %d: %w", c, ErrMultipleParents)
			}
			s.Nodes[c].Parent = i
		}

		for j, op := range node.Transforms {
			if op.Kind.Size() == 0 || len(op.Values) != op.Kind.Size() {
				return fmt.Errorf("node %d op %d (%s, %d values): %w", i, j, op.Kind, len(op.Values), ErrInvalidTransform)
			}
		}
	}

	// A chain longer than the arena can only come from a cycle
	for i := range s.Nodes {
		steps := 0
		for n := s.Nodes[i].Parent; n >= 0; n = s.Nodes[n].Parent {
			steps++
			if steps > len(s.Nodes) {
				return fmt.Errorf("node %d: %w", i, ErrNodeCycle)
			}
		}
	}

	for i, inst := range s.Instances {
		if inst.Node < 0 || inst.Node >= len(s.Nodes) {
			return fmt.Errorf("instance %d node %d: %w", i, inst.Node, ErrInvalidNodeIndex)
		}
	}
	return nil
}

// Roots returns the indices of nodes without a parent.
func (s *Scene) Roots() []int {
	var roots []int
	for i := range s.Nodes {
		if s.Nodes[i].Parent < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// Geometry looks up a geometry by ID.
func (s *Scene) Geometry(id string) (*Geometry, bool) {
	for i := range s.Geometries {
		if s.Geometries[i].ID == id {
			return &s.Geometries[i], true
		}
	}
	return nil, false
}

// Skin looks up a skin by ID.
func (s *Scene) Skin(id string) (*Skin, bool) {
	for i := range s.Skins {
		if s.Skins[i].ID == id {
			return &s.Skins[i], true
		}
	}
	return nil, false
}

// MaterialIndex returns the index of the material with the given ID, or -1.
func (s *Scene) MaterialIndex(id string) int {
	for i := range s.Materials {
		if s.Materials[i].ID == id {
			return i
		}
	}
	return -1
}
