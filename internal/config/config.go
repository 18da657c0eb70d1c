// Package config handles converter configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Bake modes.
const (
	ModePerAnimation = "per_animation"
	ModePooled       = "pooled"
)

// Output formats.
const (
	FormatGLB  = "glb"
	FormatGLTF = "gltf"
)

var ErrInvalid = errors.New("invalid config")

// Config holds all converter settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Geometry GeometryConfig `yaml:"geometry" toml:"geometry"`
	Bake     BakeConfig     `yaml:"bake" toml:"bake"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// GeometryConfig holds chunk building settings.
type GeometryConfig struct {
	Workers int `yaml:"workers" toml:"workers"` // 0 = GOMAXPROCS
}

// ToleranceConfig holds per-channel pruning tolerances.
type ToleranceConfig struct {
	Position float32 `yaml:"position" toml:"position"`
	Rotation float32 `yaml:"rotation" toml:"rotation"`
	Scale    float32 `yaml:"scale" toml:"scale"`
}

// LabelConfig names a time window of the pooled timeline.
type LabelConfig struct {
	Name  string  `yaml:"name" toml:"name"`
	Begin float32 `yaml:"begin" toml:"begin"`
	End   float32 `yaml:"end" toml:"end"`
	FPS   float32 `yaml:"fps" toml:"fps"`
}

// BakeConfig holds animation baking settings.
type BakeConfig struct {
	FPS                    float32         `yaml:"fps" toml:"fps"` // 0 = mean channel rate
	Prune                  bool            `yaml:"prune" toml:"prune"`
	Tolerance              ToleranceConfig `yaml:"tolerance" toml:"tolerance"`
	Mode                   string          `yaml:"mode" toml:"mode"`
	Labels                 []LabelConfig   `yaml:"labels" toml:"labels"`
	MaxBisectionIterations int             `yaml:"max_bisection_iterations" toml:"max_bisection_iterations"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Format   string `yaml:"format" toml:"format"`
	Manifest string `yaml:"manifest" toml:"manifest"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Bake: BakeConfig{
			Prune: true,
			Tolerance: ToleranceConfig{
				Position: 1e-4,
				Rotation: 0.05,
				Scale:    0.5,
			},
			Mode:                   ModePerAnimation,
			MaxBisectionIterations: 64,
		},
		Output: OutputConfig{
			Format: FormatGLB,
		},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Geometry.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Geometry.Workers)
	}
	b := c.Bake
	if b.FPS < 0 {
		return fmt.Errorf("%w: fps %g", ErrInvalid, b.FPS)
	}
	if b.Tolerance.Position < 0 || b.Tolerance.Rotation < 0 || b.Tolerance.Scale < 0 {
		return fmt.Errorf("%w: negative tolerance", ErrInvalid)
	}
	if b.MaxBisectionIterations < 0 {
		return fmt.Errorf("%w: max_bisection_iterations %d", ErrInvalid, b.MaxBisectionIterations)
	}
	switch b.Mode {
	case ModePerAnimation, ModePooled:
	default:
		return fmt.Errorf("%w: bake mode %q", ErrInvalid, b.Mode)
	}
	for _, l := range b.Labels {
		if l.Name == "" {
			return fmt.Errorf("%w: unnamed label", ErrInvalid)
		}
		if l.End <= l.Begin {
			return fmt.Errorf("%w: label %q ends before it begins", ErrInvalid, l.Name)
		}
		if l.FPS < 0 {
			return fmt.Errorf("%w: label %q fps %g", ErrInvalid, l.Name, l.FPS)
		}
	}
	switch c.Output.Format {
	case FormatGLB, FormatGLTF:
	default:
		return fmt.Errorf("%w: output format %q", ErrInvalid, c.Output.Format)
	}
	return nil
}
