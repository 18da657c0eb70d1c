package geometry

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenebake/internal/model"
)

// MaxJoints is the largest joint list a skin may reference with byte-sized
// bone indices.
const MaxJoints = 256

// Total weights outside this range are left unnormalized and flagged.
const (
	MinTotalWeight = 1e-6
	MaxTotalWeight = 1e6
)

// Skin errors.
var (
	ErrInvalidInfluence = errors.New("invalid influence")
	ErrTooManyJoints    = errors.New("too many joints")
	ErrSkinVertexCount  = errors.New("skin vertex count does not match positions")
)

// Influences holds capped bone influences per source vertex, model.InfluenceWidth
// slots each. Unused slots have joint 0 and weight 0.
type Influences struct {
	Joints  []uint8
	Weights []float32

	// Vertices that listed more than model.InfluenceWidth influences.
	TooMany int
	// Vertices whose kept weights summed outside [MinTotalWeight, MaxTotalWeight].
	InvalidTotal int
}

// VertexCount returns the number of source vertices covered.
func (in *Influences) VertexCount() int {
	return len(in.Weights) / model.InfluenceWidth
}

// BindInfluences extracts per-vertex influences from variable-length lists.
// vcount holds the influence count of each vertex and v the interleaved
// (joint, weight index) pairs. The first model.InfluenceWidth influences in list
// order are kept; the rest are dropped. Kept weights are rescaled to sum to 1
// when their total lies in [MinTotalWeight, MaxTotalWeight].
func BindInfluences(vcount, v []int, weights []float32, jointCount int) (*Influences, error) {
	if jointCount > MaxJoints {
		return nil, fmt.Errorf("%d joints: %w", jointCount, ErrTooManyJoints)
	}

	total := 0
	for i, n := range vcount {
		if n < 0 {
			return nil, fmt.Errorf("vertex %d count %d: %w", i, n, ErrInvalidInfluence)
		}
		total += n
	}
	if len(v) != total*2 {
		return nil, fmt.Errorf("%d pairs for %d influences: %w", len(v)/2, total, ErrInvalidInfluence)
	}

	const width = model.InfluenceWidth
	in := &Influences{
		Joints:  make([]uint8, len(vcount)*width),
		Weights: make([]float32, len(vcount)*width),
	}

	pos := 0
	for vert, n := range vcount {
		if n > width {
			in.TooMany++
		}
		kept := min(n, width)

		var sum float32
		for k := 0; k < kept; k++ {
			joint, wi := v[(pos+k)*2], v[(pos+k)*2+1]
			if joint < 0 || joint >= jointCount {
				return nil, fmt.Errorf("vertex %d joint %d of %d: %w", vert, joint, jointCount, ErrInvalidInfluence)
			}
			if wi < 0 || wi >= len(weights) {
				return nil, fmt.Errorf("vertex %d weight index %d of %d: %w", vert, wi, len(weights), ErrInvalidInfluence)
			}
			in.Joints[vert*width+k] = uint8(joint)
			in.Weights[vert*width+k] = weights[wi]
			sum += weights[wi]
		}
		pos += n

		if sum < MinTotalWeight || sum > MaxTotalWeight {
			in.InvalidTotal++
			continue
		}
		for k := 0; k < kept; k++ {
			in.Weights[vert*width+k] /= sum
		}
	}
	return in, nil
}

// ScatterInfluences moves influences from source-vertex order into the chunk's
// compact vertex order, using the same position-channel mapping as the
// positions so skin and position data stay aligned.
func ScatterInfluences(in *Influences, corners []int, stride, posOffset int, compact []int, vertexCount int) ([]uint8, []float32, error) {
	const width = model.InfluenceWidth
	joints := make([]uint8, vertexCount*width)
	weights := make([]float32, vertexCount*width)
	if err := ReIndex(in.Joints, corners, stride, posOffset, width, joints, compact, width, 0, width); err != nil {
		return nil, nil, fmt.Errorf("bone indices: %w", err)
	}
	if err := ReIndex(in.Weights, corners, stride, posOffset, width, weights, compact, width, 0, width); err != nil {
		return nil, nil, fmt.Errorf("bone weights: %w", err)
	}
	return joints, weights, nil
}
