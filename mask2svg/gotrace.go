package mask2svg

import (
	"bytes"
	"context"
	"image"

	"github.com/gotranspile/gotrace"

	"github.com/danloi2/transparente/svg2path"
	tptypes "github.com/danloi2/transparente/type"
)

// Gotrace 进程内描摹器，使用 gotrace（potrace 的 Go 移植）
type Gotrace struct{}

func (Gotrace) Trace(ctx context.Context, mask *tptypes.BinaryMask, p TraceParams) ([]tptypes.VectorPath, error) {
	if mask.Empty() {
		return nil, nil
	}
	type result struct {
		paths []tptypes.VectorPath
		err   error
	}
	done := make(chan result, 1)
	go func() {
		svgStr, err := traceGrayToSVG(mask.Gray(), p)
		if err != nil {
			done <- result{err: &tptypes.TraceError{Err: err}}
			return
		}
		paths, err := svg2path.Parse(svgStr)
		done <- result{paths: paths, err: err}
	}()

	select {
	case r := <-done:
		return r.paths, r.err
	case <-ctx.Done():
		return nil, &tptypes.TraceError{Err: ctx.Err()}
	}
}

// traceGrayToSVG 核心：使用 gotrace 将 image.Gray 转 SVG 字符串
func traceGrayToSVG(mask *image.Gray, p TraceParams) (string, error) {
	bm := gotrace.BitmapFromGray(mask, nil)

	params := *gotrace.DefaultConfig()
	params.TurdSize = p.TurdSize
	params.AlphaMax = p.AlphaMax
	params.OptTolerance = p.OptTolerance
	params.OptiCurve = !p.LongCurve

	paths, err := gotrace.Trace(bm, &params)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	sz := mask.Bounds().Size()
	if err := gotrace.Render("svg", nil, &buf, paths, sz.X, sz.Y); err != nil {
		return "", err
	}

	return buf.String(), nil
}
