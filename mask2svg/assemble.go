package mask2svg

import (
	"context"
	"fmt"
	"time"

	tptypes "github.com/danloi2/transparente/type"
)

// DefaultTraceTimeout 单次描摹调用的超时
const DefaultTraceTimeout = 60 * time.Second

// Input 一个待描摹的掩码及其填充色
type Input struct {
	Mask   *tptypes.BinaryMask
	Fill   string
	Params TraceParams
}

type AssembleOptions struct {
	// 单次描摹超时，0 表示 DefaultTraceTimeout
	Timeout    time.Duration
	Desc       string
	Background string
}

// Assemble 按顺序描摹每个输入并叠放，第一个在最下面
func Assemble(ctx context.Context, tr Tracer, inputs []Input, w, h int, opt AssembleOptions) (*tptypes.VectorDocument, error) {
	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = DefaultTraceTimeout
	}

	doc := tptypes.NewVectorDocument(w, h)
	doc.Desc = opt.Desc
	doc.Background = opt.Background

	for z, in := range inputs {
		if in.Mask == nil || in.Mask.Empty() {
			continue
		}
		if in.Mask.Width() != w || in.Mask.Height() != h {
			return nil, fmt.Errorf("layer %d: mask is %dx%d, document is %dx%d",
				z, in.Mask.Width(), in.Mask.Height(), w, h)
		}

		paths, err := traceOne(ctx, tr, in, timeout)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", z, in.Fill, err)
		}
		for _, p := range paths {
			if err := doc.Append(tptypes.VectorLayer{Path: p, Fill: in.Fill, Z: z}); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

func traceOne(ctx context.Context, tr Tracer, in Input, timeout time.Duration) ([]tptypes.VectorPath, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return tr.Trace(tctx, in.Mask, in.Params)
}
