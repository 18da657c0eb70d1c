package geometry

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// Job describes one primitive to turn into a chunk.
type Job struct {
	Name      string
	Mesh      string
	Geometry  *scene.Geometry
	Primitive *scene.Primitive
	Material  int
	Transform math.Mat4

	// Optional skin, bound per source vertex of the geometry's position source.
	Skin      *Influences
	BindShape *math.Mat4
}

// KindOf classifies a chunk error for diagnostics.
func KindOf(err error) diag.Kind {
	switch {
	case errors.Is(err, ErrUnsupportedPrimitive):
		return diag.UnsupportedFeature
	case errors.Is(err, ErrMissingSource), errors.Is(err, ErrMissingPosition):
		return diag.MissingReference
	default:
		return diag.InconsistentData
	}
}

// triangleCount returns the number of triangles in a primitive, rejecting
// anything that is not already triangulated.
func triangleCount(p *scene.Primitive, stride int) (int, error) {
	switch p.Kind {
	case scene.PrimitiveTriangles:
		if p.Count > 0 {
			return p.Count, nil
		}
		return len(p.P) / (3 * stride), nil
	case scene.PrimitivePolylist:
		for i, n := range p.VCount {
			if n != 3 {
				return 0, fmt.Errorf("polylist polygon %d has %d corners: %w", i, n, ErrUnsupportedPrimitive)
			}
		}
		return len(p.VCount), nil
	default:
		return 0, fmt.Errorf("%q: %w", p.Kind, ErrUnsupportedPrimitive)
	}
}

// BuildChunk welds one triangle primitive into a chunk. Optional attributes
// whose source is missing are skipped with a diagnostic; skin data that cannot
// be scattered degrades the chunk to a static mesh.
func BuildChunk(job Job, sink *diag.Sink) (*model.GeometryChunk, error) {
	prim := job.Primitive
	stride := prim.Stride()

	posIn, ok := prim.Input(scene.SemanticVertex)
	if !ok {
		posIn, ok = prim.Input(scene.SemanticPosition)
	}
	if !ok || stride == 0 {
		return nil, ErrMissingPosition
	}
	posSrc, ok := job.Geometry.Source(posIn.Source)
	if !ok {
		return nil, fmt.Errorf("position %q: %w", posIn.Source, ErrMissingSource)
	}

	tris, err := triangleCount(prim, stride)
	if err != nil {
		return nil, err
	}
	corners := tris * 3
	if len(prim.P) != corners*stride {
		return nil, fmt.Errorf("%d indices for %d corners of stride %d: %w", len(prim.P), corners, stride, ErrCornerCount)
	}

	compact, vertexCount := CompactIndices(prim.P, stride, posIn.Offset)
	chunk := &model.GeometryChunk{
		Name:          job.Name,
		Mesh:          job.Mesh,
		VertexCount:   vertexCount,
		TriangleCount: tris,
		Indices:       make([]uint32, len(compact)),
		Positions:     make([]float32, vertexCount*model.PositionWidth),
		Material:      job.Material,
		Transform:     job.Transform,
	}
	for i, v := range compact {
		chunk.Indices[i] = uint32(v)
	}

	if err := ReIndex(posSrc.Data, prim.P, stride, posIn.Offset, posSrc.Stride,
		chunk.Positions, compact, model.PositionWidth, 0, model.PositionWidth); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	chunk.Normals, err = reIndexOptional(job.Geometry, prim, scene.SemanticNormal, model.NormalWidth, compact, vertexCount, sink)
	if err != nil {
		return nil, fmt.Errorf("normals: %w", err)
	}
	chunk.TexCoords, err = reIndexOptional(job.Geometry, prim, scene.SemanticTexCoord, model.TexCoordWidth, compact, vertexCount, sink)
	if err != nil {
		return nil, fmt.Errorf("texcoords: %w", err)
	}

	chunk.Bounds = computeBounds(chunk.Positions)

	if job.Skin != nil {
		bindSkin(chunk, job, posSrc, posIn.Offset, compact, sink)
	}
	return chunk, nil
}

func reIndexOptional(g *scene.Geometry, prim *scene.Primitive, semantic string, width int, compact []int, vertexCount int, sink *diag.Sink) ([]float32, error) {
	in, ok := prim.Input(semantic)
	if !ok {
		return nil, nil
	}
	src, ok := g.Source(in.Source)
	if !ok {
		sink.Warn(diag.MissingReference, "attribute source not found, skipping",
			zap.String("semantic", semantic), zap.String("source", in.Source))
		return nil, nil
	}
	dest := make([]float32, vertexCount*width)
	if err := ReIndex(src.Data, prim.P, prim.Stride(), in.Offset, src.Stride, dest, compact, width, 0, width); err != nil {
		return nil, err
	}
	return dest, nil
}

func bindSkin(chunk *model.GeometryChunk, job Job, posSrc *scene.Source, posOffset int, compact []int, sink *diag.Sink) {
	if job.Skin.VertexCount() != posSrc.Count() {
		sink.Warn(diag.InconsistentData, "skin does not cover position source, using static mesh",
			zap.Int("skinVertices", job.Skin.VertexCount()), zap.Int("positions", posSrc.Count()),
			zap.Error(ErrSkinVertexCount))
		return
	}
	joints, weights, err := ScatterInfluences(job.Skin, job.Primitive.P, job.Primitive.Stride(), posOffset, compact, chunk.VertexCount)
	if err != nil {
		sink.Warn(diag.InconsistentData, "skin scatter failed, using static mesh", zap.Error(err))
		return
	}
	chunk.BoneIndices = joints
	chunk.BoneWeights = weights
	if job.BindShape != nil {
		bs := *job.BindShape
		chunk.BindShape = &bs
	}
}

func computeBounds(positions []float32) model.Bounds {
	var b model.Bounds
	if len(positions) < model.PositionWidth {
		return b
	}
	lo := math.Vec3{X: positions[0], Y: positions[1], Z: positions[2]}
	hi := lo
	for i := model.PositionWidth; i+2 < len(positions); i += model.PositionWidth {
		p := math.Vec3{X: positions[i], Y: positions[i+1], Z: positions[i+2]}
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	b.Min = lo.Array()
	b.Max = hi.Array()
	return b
}

// BuildChunks builds every job on a bounded worker group. The result has one
// entry per job in job order; dropped chunks are nil and reported to sink.
// Only context cancellation is returned as an error.
func BuildChunks(ctx context.Context, jobs []Job, workers int, sink *diag.Sink) ([]*model.GeometryChunk, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunks := make([]*model.GeometryChunk, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jobs {
		i := i // per-iteration copy; go.mod targets Go 1.21 loop semantics
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := sink.With(zap.String("chunk", jobs[i].Name))
			chunk, err := BuildChunk(jobs[i], s)
			if err != nil {
				s.Error(KindOf(err), "chunk dropped", err)
				return nil
			}
			chunks[i] = chunk
			s.Debug("chunk built",
				zap.Int("vertices", chunk.VertexCount),
				zap.Int("triangles", chunk.TriangleCount),
				zap.Bool("skinned", chunk.Skinned()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}
