package mask2svg

import (
	"context"

	tptypes "github.com/danloi2/transparente/type"
)

// TraceParams 描摹参数，对应 potrace 的命令行选项
type TraceParams struct {
	// --flat
	Flat bool
	// 小于该像素数的斑点丢弃
	TurdSize int
	// 拐角阈值，0.0 尖锐到 1.3 平滑
	AlphaMax float64
	// 曲线优化容差
	OptTolerance float64
	// --longcurve，关闭曲线优化
	LongCurve bool
}

func DefaultTraceParams() TraceParams {
	return TraceParams{
		Flat:         true,
		TurdSize:     2,
		AlphaMax:     1.0,
		OptTolerance: 0.2,
	}
}

// Tracer 把二值掩码转换为矢量路径。空掩码返回空切片，不是错误
type Tracer interface {
	Trace(ctx context.Context, mask *tptypes.BinaryMask, p TraceParams) ([]tptypes.VectorPath, error)
}
