// Package raster 各阶段共用的像素工具：解码、白底合成、亮度、
// 高斯模糊以及描摹前清理掩码用的形态学滤波。
//
// 所有函数都返回新缓冲区，不修改输入。
package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	tptypes "github.com/danloi2/transparente/type"
)

// Decode 解码任意已注册格式为 NRGBA
func Decode(data []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, tptypes.Decodef("%v", err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA 转为原点在 (0, 0) 的 NRGBA
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return Clone(n)
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func Clone(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	if img.Stride == out.Stride {
		copy(out.Pix, img.Pix)
		return out
	}
	draw.Draw(out, out.Rect, img, img.Rect.Min, draw.Src)
	return out
}

// EncodePNG 写 PNG，保留透明通道
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}

// Luma ITU-R 601 整数亮度
func Luma(r, g, b uint8) uint8 {
	return uint8((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}

// LuminanceOnWhite 白底合成后的亮度平面，取值 [0,255]，行优先
func LuminanceOnWhite(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			a := int(p[3])
			r := over(p[0], a)
			g := over(p[1], a)
			b := over(p[2], a)
			out[y*w+x] = float64(Luma(r, g, b))
		}
	}
	return out
}

func over(c uint8, a int) uint8 {
	return uint8((int(c)*a + 255*(255-a) + 127) / 255)
}

// Luminance 忽略 alpha 的亮度平面
func Luminance(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(Luma(row[x*4], row[x*4+1], row[x*4+2]))
		}
	}
	return out
}

// AlphaPlane 取出 alpha 通道
func AlphaPlane(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(row[x*4+3])
		}
	}
	return out
}

// SetAlphaPlane 写回 alpha 通道，四舍五入并截断
func SetAlphaPlane(img *image.NRGBA, plane []float64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			row[x*4+3] = Clamp8(plane[y*w+x])
		}
	}
}

// Clamp8 四舍五入并截断到 [0,255]
func Clamp8(v float64) uint8 {
	v += 0.5
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// PlaneToGray 浮点平面转 8 位灰度图
func PlaneToGray(plane []float64, w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Pix[y*g.Stride+x] = Clamp8(plane[y*w+x])
		}
	}
	return g
}

// GrayToPlane 灰度图转浮点平面
func GrayToPlane(g *image.Gray) []float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(g.Pix[y*g.Stride+x])
		}
	}
	return out
}

// Solid 纯色图
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}
