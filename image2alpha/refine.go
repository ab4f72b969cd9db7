package image2alpha

import (
	"image"
	"image/color"
	"math"

	"github.com/danloi2/transparente/raster"
)

// RefineOptions 透明通道精修参数
type RefineOptions struct {
	// 抠图残留的边缘颜色
	HaloColor color.RGBA
	// 每个通道与 HaloColor 的最大差值
	Tolerance int
	// 白边像素 RGB 的缩放系数
	DespillStrength float64
	// 小于 MinAlpha 的 alpha 置 0
	MinAlpha uint8
	// 闭运算方形边长，<= 1 跳过
	FeatherSize int
	// alpha 高斯模糊 sigma，<= 0 跳过
	BlurSigma float64
}

func DefaultRefineOptions() RefineOptions {
	return RefineOptions{
		HaloColor:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Tolerance:       15,
		DespillStrength: 0.6,
		MinAlpha:        8,
		FeatherSize:     2,
		BlurSigma:       1,
	}
}

// Refine 去白边、去细小透明噪点、模糊并羽化透明通道。
// 每张图只能调用一次，重复调用会继续模糊
func Refine(img *image.NRGBA, opt RefineOptions) *image.NRGBA {
	out := raster.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()

	removeHalo(out, opt)
	suppressTinyAlpha(out, opt.MinAlpha)

	alpha := raster.AlphaPlane(out)
	if opt.BlurSigma > 0 {
		alpha = raster.GaussianBlur(alpha, w, h, opt.BlurSigma)
	}
	if opt.FeatherSize > 1 {
		alpha = raster.Close(alpha, w, h, opt.FeatherSize)
	}
	raster.SetAlphaPlane(out, alpha)
	return out
}

// RefineBytes 解码抠图结果后精修
func RefineBytes(data []byte, opt RefineOptions) (*image.NRGBA, error) {
	img, err := raster.Decode(data)
	if err != nil {
		return nil, err
	}
	return Refine(img, opt), nil
}

func removeHalo(img *image.NRGBA, opt RefineOptions) {
	hc := [3]int{int(opt.HaloColor.R), int(opt.HaloColor.G), int(opt.HaloColor.B)}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4]
		if p[3] == 0 {
			continue
		}
		if absInt(int(p[0])-hc[0]) > opt.Tolerance ||
			absInt(int(p[1])-hc[1]) > opt.Tolerance ||
			absInt(int(p[2])-hc[2]) > opt.Tolerance {
			continue
		}
		p[3] = 0
		for c := 0; c < 3; c++ {
			p[c] = despill(p[c], opt.DespillStrength)
		}
	}
}

func despill(v uint8, strength float64) uint8 {
	f := math.Round(float64(v) * strength)
	return uint8(max(0, min(255, f)))
}

func suppressTinyAlpha(img *image.NRGBA, minAlpha uint8) {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] < minAlpha {
			img.Pix[i] = 0
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
