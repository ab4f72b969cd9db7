package alpha2tone

import (
	"errors"
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/danloi2/transparente/raster"
	tptypes "github.com/danloi2/transparente/type"
)

// Options 灰度分层参数
type Options struct {
	NumTones      int
	ContrastBoost float64
	SmoothEdges   bool
	SmoothSigma   float64
	// 色调高于 MaxTone 的色带视为背景
	MaxTone int
	// 像素少于 MinPixels 的色带视为噪点
	MinPixels int
}

func DefaultOptions() Options {
	return Options{
		NumTones:      8,
		ContrastBoost: 1.2,
		SmoothEdges:   true,
		SmoothSigma:   0.8,
		MaxTone:       245,
		MinPixels:     50,
	}
}

// Intervals 把 [0,255] 等分成 n 个半开区间
func Intervals(n int) []tptypes.ToneBand {
	bands := make([]tptypes.ToneBand, n)
	step := 255.0 / float64(n)
	for i := range n {
		lo := step * float64(i)
		hi := step * float64(i+1)
		if i == n-1 {
			hi = 255
		}
		bands[i] = tptypes.ToneBand{
			Index: i,
			Min:   lo,
			Max:   hi,
			Tone:  int((lo + hi) / 2),
		}
	}
	return bands
}

// Composite 白底合成、转灰度、提升对比度、可选高斯平滑
func Composite(img *image.NRGBA, opt Options) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	lum := raster.LuminanceOnWhite(img)
	if opt.ContrastBoost != 1.0 {
		for i, v := range lum {
			lum[i] = float64(raster.Clamp8(128 + (v-128)*opt.ContrastBoost))
		}
	}
	if opt.SmoothEdges && opt.SmoothSigma > 0 {
		lum = raster.GaussianBlur(lum, w, h, opt.SmoothSigma)
		for i, v := range lum {
			lum[i] = float64(raster.Clamp8(v))
		}
	}
	return lum
}

// Decompose 把图片分解成灰度色带，按色调从浅到深排序（浅的先画）
func Decompose(img *image.NRGBA, opt Options) ([]tptypes.ToneBand, error) {
	if opt.NumTones <= 0 {
		return nil, errors.New("alpha2tone: NumTones must be positive")
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	lum := Composite(img, opt)
	bands := Intervals(opt.NumTones)
	for i := range bands {
		bands[i].Mask = tptypes.NewBinaryMask(w, h)
	}

	step := 255.0 / float64(opt.NumTones)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lum[y*w+x]
			i := int(math.Floor(v / step))
			if i >= opt.NumTones {
				continue
			}
			// 浮点边界修正
			for i > 0 && v < bands[i].Min {
				i--
			}
			for i < opt.NumTones-1 && v >= bands[i].Max {
				i++
			}
			if !bands[i].Contains(v) {
				continue
			}
			bands[i].Mask.Set(x, y, true)
			bands[i].Count++
		}
	}

	kept := bands[:0]
	for _, b := range bands {
		if b.Tone > opt.MaxTone || b.Count < opt.MinPixels {
			continue
		}
		kept = append(kept, b)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Tone > kept[j].Tone })
	return kept, nil
}

// Layers 生成描摹输入：先最小值滤波再最大值滤波去噪
func Layers(bands []tptypes.ToneBand) []tptypes.FilledMask {
	out := make([]tptypes.FilledMask, 0, len(bands))
	for _, b := range bands {
		g := raster.MaxFilter(raster.MinFilter(b.Mask.Gray(), 1), 1)
		out = append(out, tptypes.FilledMask{
			Mask: tptypes.MaskFromGray(g),
			Fill: ToneHex(b.Tone),
		})
	}
	return out
}

// ToneHex 灰度值转 #rrggbb
func ToneHex(tone int) string {
	v := float64(max(0, min(255, tone))) / 255
	return colorful.Color{R: v, G: v, B: v}.Hex()
}
