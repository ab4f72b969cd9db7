package alpha2color

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/stat"

	"github.com/danloi2/transparente/raster"
	tptypes "github.com/danloi2/transparente/type"
)

// Options 颜色聚类参数
type Options struct {
	NumColors int
	// alpha 大于该值的像素参与聚类
	VisibilityAlpha uint8
	// 每像素 RGB 标准差均值低于该值视为黑白图
	SaturationThreshold float64
	// R+G+B 超过 WhiteSum 的簇视为背景
	WhiteSum int
	// 描摹前掩码的高斯 sigma，<= 0 跳过
	BlurRadius    float64
	Seed          uint64
	MaxIterations int
	// 训练最多按固定步长取 MaxSamples 个像素，之后所有可见像素都会分配
	MaxSamples int
}

func DefaultOptions() Options {
	return Options{
		NumColors:           32,
		VisibilityAlpha:     20,
		SaturationThreshold: 15,
		WhiteSum:            740,
		BlurRadius:          1,
		Seed:                42,
		MaxIterations:       50,
		MaxSamples:          20000,
	}
}

// Result 聚类结果。Monochrome 时只有一个黑色簇
type Result struct {
	Monochrome bool
	Threshold  float64
	Clusters   []tptypes.ColorCluster
}

type pixel struct {
	x, y    int
	r, g, b uint8
}

// Decompose 把可见像素聚成颜色簇，按像素数从多到少排序
func Decompose(img *image.NRGBA, opt Options) (Result, error) {
	if opt.NumColors <= 0 {
		return Result{}, fmt.Errorf("alpha2color: NumColors must be positive")
	}
	visible := visiblePixels(img, opt.VisibilityAlpha)
	if len(visible) == 0 {
		return Result{}, fmt.Errorf("%w: no pixel with alpha > %d", tptypes.ErrDegenerateInput, opt.VisibilityAlpha)
	}
	if isMonochrome(visible, opt.SaturationThreshold) {
		return monochrome(img, visible), nil
	}
	return cluster(img, visible, opt), nil
}

func visiblePixels(img *image.NRGBA, threshold uint8) []pixel {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	var out []pixel
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			if p[3] > threshold {
				out = append(out, pixel{x: x, y: y, r: p[0], g: p[1], b: p[2]})
			}
		}
	}
	return out
}

// isMonochrome 可见像素 RGB 三通道标准差的均值低于阈值即视为黑白图
func isMonochrome(px []pixel, threshold float64) bool {
	if len(px) == 0 {
		return true
	}
	stds := make([]float64, len(px))
	ch := make([]float64, 3)
	for i, p := range px {
		ch[0], ch[1], ch[2] = float64(p.r), float64(p.g), float64(p.b)
		stds[i] = stat.PopStdDev(ch, nil)
	}
	return stat.Mean(stds, nil) < threshold
}

// monochrome 以可见像素亮度中位数为阈值，暗的一半为黑色图层
func monochrome(img *image.NRGBA, visible []pixel) Result {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	lum := raster.Luminance(img)
	vals := make([]float64, len(visible))
	for i, p := range visible {
		vals[i] = lum[p.y*w+p.x]
	}
	threshold := median(vals)

	mask := tptypes.NewBinaryMask(w, h)
	count := 0
	for _, p := range visible {
		if lum[p.y*w+p.x] < threshold {
			mask.Set(p.x, p.y, true)
			count++
		}
	}
	return Result{
		Monochrome: true,
		Threshold:  threshold,
		Clusters:   []tptypes.ColorCluster{{Color: tptypes.RGB{}, Count: count, Mask: mask}},
	}
}

// median 偶数个时取中间两个的平均值
func median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	sort.Float64s(vals)
	if n%2 == 0 {
		return (vals[n/2-1] + vals[n/2]) / 2
	}
	return vals[n/2]
}

func cluster(img *image.NRGBA, visible []pixel, opt Options) Result {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	k := min(opt.NumColors, len(visible))
	cc := train(sample(visible, opt.MaxSamples), k, opt)

	// 每个可见像素归到最近的质心
	labels := make([]int, len(visible))
	memo := make(map[[3]uint8]int)
	counts := make([]int, len(cc))
	for i, p := range visible {
		key := [3]uint8{p.r, p.g, p.b}
		ci, ok := memo[key]
		if !ok {
			ci = cc.Nearest(clusters.Coordinates{float64(p.r), float64(p.g), float64(p.b)})
			memo[key] = ci
		}
		labels[i] = ci
		counts[ci]++
	}

	order := make([]int, len(cc))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })

	out := make([]tptypes.ColorCluster, 0, len(cc))
	slot := make([]int, len(cc))
	for _, ci := range order {
		if counts[ci] == 0 {
			slot[ci] = -1
			continue
		}
		slot[ci] = len(out)
		out = append(out, tptypes.ColorCluster{
			Color: roundCenter(cc[ci].Center),
			Count: counts[ci],
			Mask:  tptypes.NewBinaryMask(w, h),
		})
	}
	for i, p := range visible {
		if s := slot[labels[i]]; s >= 0 {
			out[s].Mask.Set(p.x, p.y, true)
		}
	}
	return Result{Clusters: out}
}

func sample(visible []pixel, maxSamples int) clusters.Observations {
	step := 1
	if maxSamples > 0 && len(visible) > maxSamples {
		step = (len(visible) + maxSamples - 1) / maxSamples
	}
	obs := make(clusters.Observations, 0, len(visible)/step+1)
	for i := 0; i < len(visible); i += step {
		p := visible[i]
		obs = append(obs, clusters.Coordinates{float64(p.r), float64(p.g), float64(p.b)})
	}
	return obs
}

// train 确定性 k-means：中位切分播种，不足的用固定种子随机补齐
func train(obs clusters.Observations, k int, opt Options) clusters.Clusters {
	k = min(k, len(obs))
	seeds := medianCut(obs, k)
	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
	for len(seeds) < k {
		p := obs[rng.IntN(len(obs))].Coordinates()
		seeds = append(seeds, slices.Clone(p))
	}

	cc := make(clusters.Clusters, len(seeds))
	for i, s := range seeds {
		cc[i] = clusters.Cluster{Center: s}
	}

	assign := make([]int, len(obs))
	for i := range assign {
		assign[i] = -1
	}
	for it := 0; it < max(1, opt.MaxIterations); it++ {
		changes := 0
		cc.Reset()
		for i, o := range obs {
			ci := cc.Nearest(o)
			cc[ci].Append(o)
			if assign[i] != ci {
				assign[i] = ci
				changes++
			}
		}
		if changes == 0 {
			break
		}
		cc.Recenter()
	}
	return cc
}

func roundCenter(c clusters.Coordinates) tptypes.RGB {
	ch := func(v float64) int { return int(max(0, min(255, math.Round(v)))) }
	return tptypes.RGB{R: ch(c[0]), G: ch(c[1]), B: ch(c[2])}
}

// Layers 生成描摹输入：过滤近白色簇，闭运算补洞，再可选高斯平滑
func Layers(res Result, opt Options) []tptypes.FilledMask {
	out := make([]tptypes.FilledMask, 0, len(res.Clusters))
	for _, c := range res.Clusters {
		if !res.Monochrome && c.Color.Sum() > opt.WhiteSum {
			continue
		}
		g := c.Mask.Gray()
		if !res.Monochrome {
			g = raster.MaxFilter(raster.MinFilter(g, 1), 1)
		}
		if opt.BlurRadius > 0 {
			g = raster.BlurGray(g, opt.BlurRadius)
		}
		out = append(out, tptypes.FilledMask{Mask: tptypes.MaskFromGray(g), Fill: hexOf(c.Color)})
	}
	return out
}

func hexOf(c tptypes.RGB) string {
	col, _ := colorful.MakeColor(c.RGBA())
	return col.Hex()
}
