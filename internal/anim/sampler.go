package anim

import (
	"fmt"
	"math"
)

// DefaultMaxIterations caps the bisection used to invert curve time.
const DefaultMaxIterations = 64

// Evaluate writes the channel's Target.Count values at time t into out. All
// components share the bracket and mode of the left key. Bezier and Hermite
// segments invert the time curve by bisection, failing with ErrNoConvergence
// after maxIter steps; without tangents they evaluate as Linear.
func (c *Channel) Evaluate(t float32, out []float32, maxIter int) (clamped bool, err error) {
	count := c.Target.Count
	i0, i1, clamped := c.FindInputIndices(t)
	if i0 == i1 {
		copy(out[:count], c.Output[i0*count:(i0+1)*count])
		return clamped, nil
	}

	t0, t1 := c.Input[i0], c.Input[i1]
	t = min(max(t, t0), t1)
	left := c.Output[i0*count : (i0+1)*count]
	right := c.Output[i1*count : (i1+1)*count]

	mode := c.Interpolation[i0]
	if (mode == Bezier || mode == Hermite) && (len(c.InTangent) == 0 || len(c.OutTangent) == 0) {
		mode = Linear
	}

	switch mode {
	case Linear:
		s := (t - t0) / (t1 - t0)
		for k := 0; k < count; k++ {
			out[k] = left[k] + (right[k]-left[k])*s
		}
	case Bezier, Hermite:
		curve := bezier
		if mode == Hermite {
			curve = hermite
		}
		for k := 0; k < count; k++ {
			outT, outV := c.tangent(c.OutTangent, i0, k)
			inT, inV := c.tangent(c.InTangent, i1, k)
			s, err := invert(curve, float64(t0), outT, inT, float64(t1), float64(t), maxIter)
			if err != nil {
				return clamped, fmt.Errorf("%s at %g: %w", c.Name, t, err)
			}
			out[k] = float32(curve(float64(left[k]), outV, inV, float64(right[k]), s))
		}
	default:
		copy(out[:count], left)
	}
	return clamped, nil
}

func (c *Channel) tangent(tan []float32, key, k int) (float64, float64) {
	i := (key*c.Target.Count + k) * 2
	return float64(tan[i]), float64(tan[i+1])
}

type curveFunc func(p0, c0, c1, p1, s float64) float64

// bezier evaluates a cubic Bezier with absolute control points c0 and c1.
func bezier(p0, c0, c1, p1, s float64) float64 {
	u := 1 - s
	return u*u*u*p0 + 3*u*u*s*c0 + 3*u*s*s*c1 + s*s*s*p1
}

// hermite evaluates a cubic Hermite curve with out tangent m0 and in tangent m1.
func hermite(p0, m0, m1, p1, s float64) float64 {
	s2 := s * s
	s3 := s2 * s
	return (2*s3-3*s2+1)*p0 + (s3-2*s2+s)*m0 + (-2*s3+3*s2)*p1 + (s3-s2)*m1
}

// invert finds s in [0,1] with curve(t0, c0, c1, t1, s) == t. Exact key times
// map to the segment ends without iterating.
func invert(curve curveFunc, t0, c0, c1, t1, t float64, maxIter int) (float64, error) {
	switch {
	case t <= t0:
		return 0, nil
	case t >= t1:
		return 1, nil
	}
	tol := 1e-6 * max(1, t1-t0)
	lo, hi := 0.0, 1.0
	for i := 0; i < maxIter; i++ {
		s := (lo + hi) / 2
		v := curve(t0, c0, c1, t1, s)
		if math.Abs(v-t) <= tol {
			return s, nil
		}
		if v < t {
			lo = s
		} else {
			hi = s
		}
	}
	return 0, fmt.Errorf("after %d iterations: %w", maxIter, ErrNoConvergence)
}

// Apply evaluates c at t and writes the result into its target slot of p.
// buf must hold at least Target.Count values. On error p is left unchanged.
func (c *Channel) Apply(p *Pose, t float32, buf []float32, maxIter int) (clamped bool, err error) {
	clamped, err = c.Evaluate(t, buf, maxIter)
	if err != nil {
		return clamped, err
	}
	dst := p.Values(c.Target.Node, c.Target.Op)
	copy(dst[c.Target.Offset:c.Target.Offset+c.Target.Count], buf[:c.Target.Count])
	return clamped, nil
}
