package alpha2dots

import (
	"errors"
	"image"
	"math"

	"github.com/danloi2/transparente/raster"
	tptypes "github.com/danloi2/transparente/type"
)

// DotFill 网点颜色
const DotFill = "#000000"

// Options 网点参数
type Options struct {
	// 最大半径（乘 0.8 之前）
	DotSize float64
	// 网格间距，像素
	Spacing int
	// 网屏角度
	Angle float64
}

func DefaultOptions() Options {
	return Options{DotSize: 3, Spacing: 5, Angle: 45}
}

var errSpacing = errors.New("halftone spacing must be positive")

// Generate 在白底合成后的亮度图上按旋转网格取样，越暗的点越大。
// 输出顺序为网格行优先顺序，对同一输入稳定。
func Generate(img *image.NRGBA, opt Options) ([]tptypes.Dot, error) {
	if opt.Spacing <= 0 {
		return nil, errSpacing
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	lum := raster.LuminanceOnWhite(img)

	rad := opt.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	diag := int(math.Ceil(math.Hypot(float64(w), float64(h))))
	cx, cy := float64(w)/2, float64(h)/2

	var dots []tptypes.Dot
	for gy := -diag; gy < diag; gy += opt.Spacing {
		for gx := -diag; gx < diag; gx += opt.Spacing {
			fx, fy := float64(gx), float64(gy)
			// 向零截断
			x := int(fx*cos - fy*sin + cx)
			y := int(fx*sin + fy*cos + cy)
			if x < 0 || y < 0 || x >= w || y >= h {
				continue
			}
			darkness := 1 - lum[y*w+x]/255
			r := opt.DotSize * darkness * 0.8
			if r > 0.5 {
				dots = append(dots, tptypes.Dot{X: x, Y: y, Radius: r})
			}
		}
	}
	return dots, nil
}

// Document 白底网点文档
func Document(dots []tptypes.Dot, w, h int, desc string) (*tptypes.VectorDocument, error) {
	doc := tptypes.NewVectorDocument(w, h)
	doc.Desc = desc
	doc.Background = "white"
	for i := range dots {
		d := dots[i]
		if err := doc.Append(tptypes.VectorLayer{Circle: &d, Fill: DotFill}); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
