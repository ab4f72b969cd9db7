package tptypes

import (
	"image"
	"image/color"
)

// BinaryMask 二值掩码：黑=填充，白=空
type BinaryMask struct {
	gray *image.Gray
}

// NewBinaryMask 全空掩码
func NewBinaryMask(w, h int) *BinaryMask {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return &BinaryMask{gray: g}
}

// MaskFromGray 灰度图按 128 二值化为掩码
func MaskFromGray(g *image.Gray) *BinaryMask {
	b := g.Bounds()
	m := NewBinaryMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if g.GrayAt(b.Min.X+x, b.Min.Y+y).Y < 128 {
				m.gray.Pix[y*m.gray.Stride+x] = 0
			}
		}
	}
	return m
}

func (m *BinaryMask) Width() int  { return m.gray.Rect.Dx() }
func (m *BinaryMask) Height() int { return m.gray.Rect.Dy() }

// Filled (x, y) 是否填充，越界视为空
func (m *BinaryMask) Filled(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width() || y >= m.Height() {
		return false
	}
	return m.gray.Pix[y*m.gray.Stride+x] == 0
}

// Set 设置或清除 (x, y)，越界忽略
func (m *BinaryMask) Set(x, y int, filled bool) {
	if x < 0 || y < 0 || x >= m.Width() || y >= m.Height() {
		return
	}
	v := uint8(255)
	if filled {
		v = 0
	}
	m.gray.Pix[y*m.gray.Stride+x] = v
}

// Count 填充像素数
func (m *BinaryMask) Count() int {
	n := 0
	for _, v := range m.gray.Pix {
		if v == 0 {
			n++
		}
	}
	return n
}

// Empty 是否没有填充像素
func (m *BinaryMask) Empty() bool {
	for _, v := range m.gray.Pix {
		if v == 0 {
			return false
		}
	}
	return true
}

// Gray 底层灰度图（黑=填充），供描摹和滤波使用
func (m *BinaryMask) Gray() *image.Gray { return m.gray }

// RGB 8 位颜色
type RGB struct {
	R, G, B int
}

// Sum R+G+B，用于判断近白色
func (c RGB) Sum() int { return c.R + c.G + c.B }

func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}

// ColorCluster 颜色聚类结果：质心、像素数和成员掩码
type ColorCluster struct {
	Color RGB
	Count int
	Mask  *BinaryMask
}

// ToneBand 灰度分段：[Min, Max) 区间
type ToneBand struct {
	Index int
	Min   float64
	Max   float64
	Tone  int
	Count int
	Mask  *BinaryMask
}

// Contains 亮度是否落在半开区间内
func (b ToneBand) Contains(v float64) bool {
	return v >= b.Min && v < b.Max
}

// Dot 半色调圆点
type Dot struct {
	X, Y   int
	Radius float64
}

// FilledMask 待描摹的掩码和它的填充色
type FilledMask struct {
	Mask *BinaryMask
	Fill string
}
