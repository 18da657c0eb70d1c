package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenebake/internal/anim"
	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/internal/skeleton"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// bakeAnimations bakes the scene's animations over the merged bones according
// to the configured mode. Failed animations are reported and omitted.
func bakeAnimations(s *scene.Scene, bones []skeleton.Bone, opts Options, sink *diag.Sink) []model.AnimationData {
	if len(s.Animations) == 0 {
		return nil
	}
	if len(bones) == 0 {
		sink.Info("scene has animations but no bones, nothing to bake", zap.Int("animations", len(s.Animations)))
		return nil
	}

	baker := anim.NewBaker(s, bones, opts.Bake, sink)
	var out []model.AnimationData
	keep := func(data *model.AnimationData, err error, name string) {
		if err != nil {
			sink.Error(anim.KindOf(err), "animation omitted", err, zap.String("animation", name))
			return
		}
		out = append(out, *data)
	}

	switch opts.Mode {
	case ModePooled:
		var pool []scene.Channel
		for i := range s.Animations {
			pool = append(pool, s.Animations[i].Pool()...)
		}
		channels := anim.Compile(s, pool, sink)
		if len(opts.Labels) > 0 {
			for _, data := range baker.BakeLabels(channels, opts.Labels) {
				out = append(out, *data)
			}
			break
		}
		name := s.Name
		if name == "" {
			name = "default"
		}
		data, err := baker.Bake(name, channels)
		keep(data, err, name)
	default:
		for i := range s.Animations {
			a := &s.Animations[i]
			name := a.DisplayName()
			if name == "" {
				name = fmt.Sprintf("animation%d", i)
			}
			channels := anim.Compile(s, a.Pool(), sink.With(zap.String("animation", name)))
			data, err := baker.Bake(name, channels)
			keep(data, err, name)
		}
	}
	return out
}
