// Package geometry welds per-corner multi-channel index streams into unified
// per-vertex buffers and binds skin influences into the same vertex order.
package geometry

import (
	"errors"
	"fmt"
)

// Geometry errors.
var (
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrInvalidStride        = errors.New("invalid stride")
	ErrUnsupportedPrimitive = errors.New("unsupported primitive")
	ErrMissingPosition      = errors.New("missing position input")
	ErrMissingSource        = errors.New("missing source")
	ErrCornerCount          = errors.New("corner count mismatch")
)

// CompactIndices welds corners into vertices. Corners are tuples of stride
// channel indices; vertex identity is the value at channel offset only. Compact
// indices are assigned in order of first occurrence, so a corner reuses the
// index of the earliest corner with the same key.
func CompactIndices(corners []int, stride, offset int) ([]int, int) {
	if stride <= 0 || offset < 0 || offset >= stride {
		return nil, 0
	}
	n := len(corners) / stride
	compact := make([]int, n)
	seen := make(map[int]int, n)
	next := 0
	for c := 0; c < n; c++ {
		key := corners[c*stride+offset]
		idx, ok := seen[key]
		if !ok {
			idx = next
			seen[key] = idx
			next++
		}
		compact[c] = idx
	}
	return compact, next
}

// ReIndex copies one attribute channel from source order into compact vertex
// order. For every corner, min(srcDim, destDim) components are read from
// src[corners[corner*stride+channelOffset]*srcDim:] and written to
// dest[compact[corner]*destStride+destOffset:]. When several corners share a
// compact vertex the last corner wins.
func ReIndex[T any](
	src []T, corners []int, stride, channelOffset, srcDim int,
	dest []T, compact []int, destStride, destOffset, destDim int,
) error {
	if stride <= 0 || channelOffset < 0 || channelOffset >= stride {
		return fmt.Errorf("channel offset %d, stride %d: %w", channelOffset, stride, ErrInvalidStride)
	}
	if srcDim <= 0 || destDim <= 0 || destOffset < 0 || destOffset+destDim > destStride {
		return fmt.Errorf("dims %d->%d at %d/%d: %w", srcDim, destDim, destOffset, destStride, ErrInvalidStride)
	}
	width := min(srcDim, destDim)
	for c, v := range compact {
		if c*stride+channelOffset >= len(corners) {
			return fmt.Errorf("corner %d: %w", c, ErrCornerCount)
		}
		s := corners[c*stride+channelOffset]
		if s < 0 || (s+1)*srcDim > len(src) {
			return fmt.Errorf("corner %d source index %d of %d: %w", c, s, len(src)/srcDim, ErrIndexOutOfRange)
		}
		d := v*destStride + destOffset
		if v < 0 || d+width > len(dest) {
			return fmt.Errorf("corner %d vertex %d: %w", c, v, ErrIndexOutOfRange)
		}
		copy(dest[d:d+width], src[s*srcDim:s*srcDim+width])
	}
	return nil
}
