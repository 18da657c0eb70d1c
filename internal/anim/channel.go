package anim

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// Animation errors.
var (
	ErrMorphTarget     = errors.New("morph target animation is not supported")
	ErrTargetNotFound  = errors.New("animation target not found")
	ErrInvalidMember   = errors.New("invalid target member")
	ErrNoKeys          = errors.New("channel has no keyframes")
	ErrNotIncreasing   = errors.New("keyframe times are not strictly increasing")
	ErrOutputLength    = errors.New("output length does not match keyframes")
	ErrTangentLength   = errors.New("tangent length does not match keyframes")
	ErrNoConvergence   = errors.New("curve inversion did not converge")
	ErrDegenerateRange = errors.New("animation window is empty")
	ErrNoChannels      = errors.New("no channels to bake")
)

// KindOf classifies an animation error for diagnostics.
func KindOf(err error) diag.Kind {
	switch {
	case errors.Is(err, ErrMorphTarget):
		return diag.UnsupportedFeature
	case errors.Is(err, ErrTargetNotFound), errors.Is(err, ErrInvalidMember):
		return diag.MissingReference
	case errors.Is(err, ErrDegenerateRange), errors.Is(err, ErrNoChannels):
		return diag.DegenerateData
	default:
		return diag.InconsistentData
	}
}

// Interpolation is a per-segment interpolation mode.
type Interpolation int

// Interpolation modes. Cardinal, BSpline and Unknown evaluate as Step.
const (
	Step Interpolation = iota
	Linear
	Bezier
	Hermite
	Cardinal
	BSpline
	Unknown
)

// ParseInterpolation maps an interpolation tag to a mode.
func ParseInterpolation(tag string) Interpolation {
	switch strings.ToUpper(tag) {
	case "STEP":
		return Step
	case "LINEAR", "":
		return Linear
	case "BEZIER":
		return Bezier
	case "HERMITE":
		return Hermite
	case "CARDINAL":
		return Cardinal
	case "BSPLINE":
		return BSpline
	default:
		return Unknown
	}
}

func (m Interpolation) String() string {
	return [...]string{"STEP", "LINEAR", "BEZIER", "HERMITE", "CARDINAL", "BSPLINE", "UNKNOWN"}[m]
}

// Channel is a compiled animation channel. Output holds Target.Count values per
// key; tangents hold a (time, value) pair per value per key.
type Channel struct {
	Name          string
	Target        Target
	Input         []float32
	Output        []float32
	InTangent     []float32
	OutTangent    []float32
	Interpolation []Interpolation
}

// NewChannel resolves a channel's target and validates its sampler. Missing
// interpolation tags mean LINEAR; a single tag applies to every key.
func NewChannel(s *scene.Scene, src *scene.Channel) (*Channel, error) {
	target, err := ResolveTarget(s, src.Target)
	if err != nil {
		return nil, err
	}
	smp := &src.Sampler
	n := len(smp.Input)
	if n == 0 {
		return nil, ErrNoKeys
	}
	for i := 1; i < n; i++ {
		if smp.Input[i] <= smp.Input[i-1] {
			return nil, fmt.Errorf("key %d at %g: %w", i, smp.Input[i], ErrNotIncreasing)
		}
	}
	if len(smp.Output) != n*target.Count {
		return nil, fmt.Errorf("%d values for %d keys of %d: %w", len(smp.Output), n, target.Count, ErrOutputLength)
	}
	for _, tan := range [][]float32{smp.InTangent, smp.OutTangent} {
		if len(tan) != 0 && len(tan) != n*target.Count*2 {
			return nil, fmt.Errorf("%d tangent values for %d keys of %d: %w", len(tan), n, target.Count, ErrTangentLength)
		}
	}

	c := &Channel{
		Name:          src.Name,
		Target:        target,
		Input:         smp.Input,
		Output:        smp.Output,
		InTangent:     nonEmpty(smp.InTangent),
		OutTangent:    nonEmpty(smp.OutTangent),
		Interpolation: make([]Interpolation, n),
	}
	switch len(smp.Interpolation) {
	case 0:
		for i := range c.Interpolation {
			c.Interpolation[i] = Linear
		}
	case 1:
		mode := ParseInterpolation(smp.Interpolation[0])
		for i := range c.Interpolation {
			c.Interpolation[i] = mode
		}
	case n:
		for i, tag := range smp.Interpolation {
			c.Interpolation[i] = ParseInterpolation(tag)
		}
	default:
		return nil, fmt.Errorf("%d interpolation tags for %d keys: %w", len(smp.Interpolation), n, ErrOutputLength)
	}
	return c, nil
}

// Start returns the time of the first key.
func (c *Channel) Start() float32 { return c.Input[0] }

// End returns the time of the last key.
func (c *Channel) End() float32 { return c.Input[len(c.Input)-1] }

// HasFallback reports whether any segment uses a mode evaluated as Step.
func (c *Channel) HasFallback() bool {
	for _, m := range c.Interpolation[:max(len(c.Interpolation)-1, 0)] {
		if m >= Cardinal {
			return true
		}
	}
	return false
}

// FindInputIndices returns the consecutive keys bracketing t. Times outside
// the key range clamp to the first or last bracket and report clamped.
func (c *Channel) FindInputIndices(t float32) (i0, i1 int, clamped bool) {
	n := len(c.Input)
	if n == 1 {
		return 0, 0, t != c.Input[0]
	}
	clamped = t < c.Input[0] || t > c.Input[n-1]
	j := sort.Search(n, func(i int) bool { return c.Input[i] > t })
	i1 = min(max(j, 1), n-1)
	return i1 - 1, i1, clamped
}

// nonEmpty maps an empty tangent list to nil so that absent and empty
// tangents mean the same thing.
func nonEmpty(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	return v
}
