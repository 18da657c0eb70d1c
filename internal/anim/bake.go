package anim

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/internal/skeleton"
	"github.com/Faultbox/scenebake/pkg/math"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// Tolerance holds the maximum rest-pose deviation under which a track channel
// is pruned.
type Tolerance struct {
	Position float32 // world units
	Rotation float32 // radians
	Scale    float32 // fraction of rest scale
}

// DefaultTolerance returns the standard pruning tolerances.
func DefaultTolerance() Tolerance {
	return Tolerance{Position: 1e-4, Rotation: 0.05, Scale: 0.5}
}

// Options configure baking.
type Options struct {
	// FPS is the output rate; 0 uses the mean rate of the baked channels.
	FPS           float32
	Prune         bool
	Tolerance     Tolerance
	MaxIterations int
}

// DefaultOptions returns pruning baking at the channels' mean rate.
func DefaultOptions() Options {
	return Options{
		Prune:         true,
		Tolerance:     DefaultTolerance(),
		MaxIterations: DefaultMaxIterations,
	}
}

// Label names a time window of a pooled clip to bake as its own animation.
type Label struct {
	Name  string
	Begin float32
	End   float32
	FPS   float32
}

// Compile builds sampler channels from scene channels. Channels that fail are
// reported to sink and omitted.
func Compile(s *scene.Scene, src []scene.Channel, sink *diag.Sink) []*Channel {
	channels := make([]*Channel, 0, len(src))
	for i := range src {
		name := src[i].Name
		if name == "" {
			name = fmt.Sprintf("channel %d", i)
		}
		c, err := NewChannel(s, &src[i])
		if err != nil {
			sink.Warn(KindOf(err), "channel omitted", zap.String("channel", name), zap.Error(err))
			continue
		}
		c.Name = name
		if c.HasFallback() {
			sink.Warn(diag.UnsupportedFeature, "unsupported interpolation, evaluating as STEP", zap.String("channel", name))
		}
		channels = append(channels, c)
	}
	return channels
}

// Baker resamples channels over a bone hierarchy. It owns a pose arena that
// every sample mutates, so a Baker is not safe for concurrent use.
type Baker struct {
	bones []skeleton.Bone
	pose  *Pose
	opts  Options
	sink  *diag.Sink
}

// NewBaker returns a baker for bones of s.
func NewBaker(s *scene.Scene, bones []skeleton.Bone, opts Options, sink *diag.Sink) *Baker {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Baker{bones: bones, pose: NewPose(s), opts: opts, sink: sink}
}

// TimeRange returns the union of the channels' key ranges.
func TimeRange(channels []*Channel) (start, end float32) {
	if len(channels) == 0 {
		return 0, 0
	}
	start, end = channels[0].Start(), channels[0].End()
	for _, c := range channels[1:] {
		start = min(start, c.Start())
		end = max(end, c.End())
	}
	return start, end
}

// MeanFPS returns the mean of each channel's key count over its time span.
// Single-key channels do not contribute.
func MeanFPS(channels []*Channel) float32 {
	var sum float32
	n := 0
	for _, c := range channels {
		span := c.End() - c.Start()
		if len(c.Input) < 2 || span <= 0 {
			continue
		}
		sum += float32(len(c.Input)) / span
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float32(n)
}

// Bake resamples channels over their union time range.
func (b *Baker) Bake(name string, channels []*Channel) (*model.AnimationData, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoChannels)
	}
	start, end := TimeRange(channels)
	return b.BakeWindow(name, channels, start, end, b.opts.FPS)
}

// BakeLabels bakes one animation per label window of a pooled clip. Labels
// that fail are reported and skipped.
func (b *Baker) BakeLabels(channels []*Channel, labels []Label) []*model.AnimationData {
	var out []*model.AnimationData
	for _, l := range labels {
		fps := l.FPS
		if fps <= 0 {
			fps = b.opts.FPS
		}
		data, err := b.BakeWindow(l.Name, channels, l.Begin, l.End, fps)
		if err != nil {
			b.sink.Error(KindOf(err), "label omitted", err, zap.String("label", l.Name))
			continue
		}
		out = append(out, data)
	}
	return out
}

// BakeWindow resamples channels over [start, end]. fps <= 0 uses MeanFPS. The
// keyframe count is ceil(fps*duration)+1 and fps is adjusted so that both
// window ends are sampled exactly.
func (b *Baker) BakeWindow(name string, channels []*Channel, start, end, fps float32) (*model.AnimationData, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoChannels)
	}
	duration := end - start
	if duration <= 0 {
		return nil, fmt.Errorf("%s [%g, %g]: %w", name, start, end, ErrDegenerateRange)
	}
	if fps <= 0 {
		fps = MeanFPS(channels)
	}
	if fps <= 0 {
		fps = 1 / duration
	}
	keyframes := int(math32.Ceil(fps*duration)) + 1

	data := &model.AnimationData{
		Name:          name,
		FPS:           float32(keyframes-1) / duration,
		KeyframeCount: keyframes,
		Start:         start,
		Duration:      duration,
		Tracks:        make([]model.Track, len(b.bones)),
	}
	for i := range data.Tracks {
		tr := &data.Tracks[i]
		tr.Position = make([]math.Vec3, keyframes)
		tr.Rotation = make([]math.Quat, keyframes)
		tr.Scale = make([]math.Vec3, keyframes)
	}

	sink := b.sink.With(zap.String("animation", name))
	b.sample(data, channels, end, sink)
	b.relativize(data)

	kept := 0
	for i := range data.Tracks {
		if !data.Tracks[i].Empty() {
			kept++
		}
	}
	sink.Debug("animation baked",
		zap.Int("keyframes", keyframes),
		zap.Float32("fps", data.FPS),
		zap.Int("channels", len(channels)),
		zap.Int("tracks", kept))
	return data, nil
}

// sample drives every channel at every keyframe time and records bone
// transforms. The last keyframe is taken exactly at end. The pose is reset to
// rest before and after.
func (b *Baker) sample(data *model.AnimationData, channels []*Channel, end float32, sink *diag.Sink) {
	buf := make([]float32, 16)
	clamped := make([]bool, len(channels))

	b.pose.Reset()
	defer b.pose.Reset()

	for i := 0; i < data.KeyframeCount; i++ {
		t := data.Time(i)
		if i == data.KeyframeCount-1 {
			t = end
		}
		for ci, c := range channels {
			outside, err := c.Apply(b.pose, t, buf, b.opts.MaxIterations)
			if err != nil {
				sink.Warn(diag.InconsistentData, "channel evaluation failed",
					zap.String("channel", c.Name), zap.Float32("time", t), zap.Error(err))
				continue
			}
			if outside && !clamped[ci] {
				clamped[ci] = true
				sink.Debug("time outside channel keys, clamping",
					zap.String("channel", c.Name), zap.Float32("time", t))
			}
		}
		for bi := range b.bones {
			pos, rot, scale := b.pose.BoneMatrix(&b.bones[bi]).Decompose()
			tr := &data.Tracks[bi]
			tr.Position[i] = pos
			tr.Rotation[i] = rot
			tr.Scale[i] = scale
		}
	}
}

// relativize fills the rest-relative channels and prunes channels that never
// leave the rest pose by more than the tolerance.
func (b *Baker) relativize(data *model.AnimationData) {
	tol := b.opts.Tolerance
	for bi := range b.bones {
		restPos, restRot, restScale := b.pose.BoneMatrix(&b.bones[bi]).Decompose()
		invRot := restRot.Inverse()
		tr := &data.Tracks[bi]

		tr.RestPosition = make([]math.Vec3, data.KeyframeCount)
		tr.RestRotation = make([]math.Quat, data.KeyframeCount)
		tr.RestScale = make([]math.Vec3, data.KeyframeCount)

		var maxPos, maxRot, maxScale float32
		for i := 0; i < data.KeyframeCount; i++ {
			dp := tr.Position[i].Sub(restPos)
			dr := tr.Rotation[i].Mul(invRot).Normalize()
			ds := scaleRatio(tr.Scale[i], restScale)
			tr.RestPosition[i] = dp
			tr.RestRotation[i] = dr
			tr.RestScale[i] = ds

			maxPos = max(maxPos, dp.Length())
			maxRot = max(maxRot, dr.Angle())
			maxScale = max(maxScale, math32.Abs(1-ds.X), math32.Abs(1-ds.Y), math32.Abs(1-ds.Z))
		}

		if !b.opts.Prune {
			continue
		}
		if maxPos <= tol.Position {
			tr.Position, tr.RestPosition = nil, nil
		}
		if maxRot <= tol.Rotation {
			tr.Rotation, tr.RestRotation = nil, nil
		}
		if maxScale <= tol.Scale {
			tr.Scale, tr.RestScale = nil, nil
		}
	}
}

// scaleRatio is s relative to rest per axis. An axis whose rest scale is
// (near) zero has no meaningful ratio, so its offset from rest is reported
// around 1 instead.
func scaleRatio(s, rest math.Vec3) math.Vec3 {
	ratio := func(v, r float32) float32 {
		if math32.Abs(r) < 0.0001 {
			return 1 + v - r
		}
		return v / r
	}
	return math.Vec3{X: ratio(s.X, rest.X), Y: ratio(s.Y, rest.Y), Z: ratio(s.Z, rest.Z)}
}
