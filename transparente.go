package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/danloi2/transparente/internal/config"
	"github.com/danloi2/transparente/pipeline"
)

// processDir 扫描目录并批量处理，返回失败的图片数
func processDir(ctx context.Context, log zerolog.Logger, cfg config.Config, inputDir string) int {
	inputs, err := pipeline.ListInputs(inputDir, cfg.Runtime.Extensions)
	if err != nil {
		log.Error().Err(err).Str("dir", inputDir).Msg("input directory not readable")
		return 1
	}
	if len(inputs) == 0 {
		log.Info().Str("dir", inputDir).Msg("no image files found")
		return 0
	}

	log.Info().Int("images", len(inputs)).
		Str("output", cfg.Output.Dir).
		Str("tracer", cfg.Tracer.Kind).
		Msg("processing")

	p := pipeline.New(cfg,
		pipeline.NewMatter(cfg.Matting, log),
		pipeline.NewTracer(cfg.Tracer),
		log)
	reports := p.Batch(ctx, inputs)

	failed := 0
	written, skipped := 0, 0
	for _, r := range reports {
		if r.Err != nil || r.Failed() > 0 {
			failed++
		}
		for _, a := range r.Artifacts {
			switch a.Status {
			case pipeline.StatusWritten:
				written++
			case pipeline.StatusSkipped:
				skipped++
			}
		}
	}
	log.Info().Int("images", len(reports)).
		Int("failed", failed).
		Int("written", written).
		Int("skipped", skipped).
		Msg("all image processing complete")
	return failed
}
