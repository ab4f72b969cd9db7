package alpha2tone

import (
	"image"

	"github.com/danloi2/transparente/raster"
	tptypes "github.com/danloi2/transparente/type"
)

// DefaultLineartThreshold 线稿亮度阈值
const DefaultLineartThreshold = 140

// Lineart 白底合成后按阈值二值化：比阈值暗的像素为线稿
func Lineart(img *image.NRGBA, threshold int) tptypes.FilledMask {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	lum := raster.LuminanceOnWhite(img)
	mask := tptypes.NewBinaryMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if lum[y*w+x] < float64(threshold) {
				mask.Set(x, y, true)
			}
		}
	}
	return tptypes.FilledMask{Mask: mask, Fill: "#000000"}
}
