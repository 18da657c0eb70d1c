package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/scenebake/internal/anim"
	"github.com/Faultbox/scenebake/internal/config"
	"github.com/Faultbox/scenebake/internal/convert"
	"github.com/Faultbox/scenebake/internal/diag"
	"github.com/Faultbox/scenebake/internal/export"
	"github.com/Faultbox/scenebake/internal/model"
	"github.com/Faultbox/scenebake/pkg/scene"
)

// result is one finished conversion.
type result struct {
	doc    *model.Document
	counts map[string]int
}

// convertOptions maps the loaded config onto pipeline options.
func convertOptions(cfg *config.Config) convert.Options {
	opts := convert.DefaultOptions()
	opts.Workers = cfg.Geometry.Workers
	opts.Mode = convert.Mode(cfg.Bake.Mode)
	opts.Bake = anim.Options{
		FPS:   cfg.Bake.FPS,
		Prune: cfg.Bake.Prune,
		Tolerance: anim.Tolerance{
			Position: cfg.Bake.Tolerance.Position,
			Rotation: cfg.Bake.Tolerance.Rotation,
			Scale:    cfg.Bake.Tolerance.Scale,
		},
		MaxIterations: cfg.Bake.MaxBisectionIterations,
	}
	for _, l := range cfg.Bake.Labels {
		opts.Labels = append(opts.Labels, anim.Label{Name: l.Name, Begin: l.Begin, End: l.End, FPS: l.FPS})
	}
	return opts
}

// binaryOutput picks GLB or glTF from the output extension, falling back to
// the configured format.
func binaryOutput(cfg *config.Config, out string) bool {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".glb":
		return true
	case ".gltf":
		return false
	}
	return cfg.Output.Format != config.FormatGLTF
}

// convertFile converts in and, when out is non-empty, writes the result and
// the optional manifest.
func convertFile(ctx context.Context, cfg *config.Config, in, out string, log *zap.Logger) (*result, error) {
	s, err := scene.Load(in)
	if err != nil {
		return nil, err
	}

	sink := diag.New(log.With(zap.String("scene", filepath.Base(in))))
	doc, err := convert.Convert(ctx, s, convertOptions(cfg), sink)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	}

	res := &result{doc: doc, counts: countsByName(sink)}

	if out != "" {
		if err := export.WriteGLTF(doc, out, binaryOutput(cfg, out)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", out, err)
		}
		if cfg.Output.Manifest != "" {
			if err := export.WriteManifest(doc, res.counts, cfg.Output.Manifest); err != nil {
				return nil, err
			}
		}
		log.Info("wrote output",
			zap.String("path", out),
			zap.Int("chunks", len(doc.Chunks)),
			zap.Int("bones", len(doc.Bones)),
			zap.Int("animations", len(doc.Animations)),
			zap.Any("diagnostics", res.counts))
	}
	return res, nil
}

// countsByName keys the sink tally by category name.
func countsByName(sink *diag.Sink) map[string]int {
	counts := sink.Counts()
	if len(counts) == 0 {
		return nil
	}
	named := make(map[string]int, len(counts))
	for k, n := range counts {
		named[k.String()] = n
	}
	return named
}

func printSummary(w io.Writer, res *result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(export.Summarize(res.doc, res.counts)); err != nil {
		return err
	}
	return enc.Close()
}
