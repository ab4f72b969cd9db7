package raster

import (
	"image"
	"math"
)

// gaussianKernel 归一化一维高斯核，半径 ceil(4*sigma)
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(4 * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect101 镜像到 [0,n)，不重复边缘像素
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// GaussianBlur 可分离高斯模糊，sigma <= 0 返回副本
func GaussianBlur(plane []float64, w, h int, sigma float64) []float64 {
	out := make([]float64, len(plane))
	if sigma <= 0 || w == 0 || h == 0 {
		copy(out, plane)
		return out
	}
	k := gaussianKernel(sigma)
	r := len(k) / 2
	tmp := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		row := plane[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			s := 0.0
			for i, kv := range k {
				s += kv * row[reflect101(x+i-r, w)]
			}
			tmp[y*w+x] = s
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for i, kv := range k {
				s += kv * tmp[reflect101(y+i-r, h)*w+x]
			}
			out[y*w+x] = s
		}
	}
	return out
}

// BlurGray 对灰度图做高斯模糊
func BlurGray(g *image.Gray, sigma float64) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	return PlaneToGray(GaussianBlur(GrayToPlane(g), w, h, sigma), w, h)
}

// window 结构元素的偏移范围 [lo, hi]，偶数边长锚点在 size/2
func window(size int) (int, int) {
	lo := -(size / 2)
	return lo, lo + size - 1
}

// Dilate 方形邻域取最大值，越界像素忽略
func Dilate(plane []float64, w, h, size int) []float64 {
	lo, hi := window(size)
	return rankFilter(plane, w, h, lo, hi, math.Max, math.Inf(-1))
}

// Erode 反射方形邻域取最小值，Erode(Dilate(p)) 即闭运算
func Erode(plane []float64, w, h, size int) []float64 {
	lo, hi := window(size)
	return rankFilter(plane, w, h, -hi, -lo, math.Min, math.Inf(1))
}

// Close 先膨胀后腐蚀
func Close(plane []float64, w, h, size int) []float64 {
	if size <= 1 {
		out := make([]float64, len(plane))
		copy(out, plane)
		return out
	}
	return Erode(Dilate(plane, w, h, size), w, h, size)
}

// rankFilter 可分离：先按行再按列
func rankFilter(plane []float64, w, h, lo, hi int, pick func(a, b float64) float64, init float64) []float64 {
	tmp := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := init
			for o := lo; o <= hi; o++ {
				if xx := x + o; xx >= 0 && xx < w {
					v = pick(v, plane[y*w+xx])
				}
			}
			tmp[y*w+x] = v
		}
	}
	out := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := init
			for o := lo; o <= hi; o++ {
				if yy := y + o; yy >= 0 && yy < h {
					v = pick(v, tmp[yy*w+x])
				}
			}
			out[y*w+x] = v
		}
	}
	return out
}

// MinFilter (2*radius+1) 方形邻域最小值滤波
func MinFilter(g *image.Gray, radius int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	return PlaneToGray(Erode(GrayToPlane(g), w, h, 2*radius+1), w, h)
}

// MaxFilter 最大值滤波
func MaxFilter(g *image.Gray, radius int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	return PlaneToGray(Dilate(GrayToPlane(g), w, h, 2*radius+1), w, h)
}
