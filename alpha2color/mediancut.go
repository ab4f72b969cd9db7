package alpha2color

import (
	"slices"

	"github.com/muesli/clusters"
)

// box 中位切分的颜色盒子
type box struct {
	points     clusters.Observations
	rMin, rMax float64
	gMin, gMax float64
	bMin, bMax float64
}

// 计算盒子范围
func (b *box) calcRange() {
	if len(b.points) == 0 {
		return
	}
	b.rMin, b.rMax = 255, 0
	b.gMin, b.gMax = 255, 0
	b.bMin, b.bMax = 255, 0
	for _, o := range b.points {
		p := o.Coordinates()
		b.rMin, b.rMax = min(b.rMin, p[0]), max(b.rMax, p[0])
		b.gMin, b.gMax = min(b.gMin, p[1]), max(b.gMax, p[1])
		b.bMin, b.bMax = min(b.bMin, p[2]), max(b.bMax, p[2])
	}
}

// widest 范围最大的通道及其范围
func (b *box) widest() (int, float64) {
	r, g, bl := b.rMax-b.rMin, b.gMax-b.gMin, b.bMax-b.bMin
	switch {
	case r >= g && r >= bl:
		return 0, r
	case g >= r && g >= bl:
		return 1, g
	default:
		return 2, bl
	}
}

// medianCut 中位切分，得到最多 k 个确定性的初始质心
func medianCut(points clusters.Observations, k int) []clusters.Coordinates {
	initial := &box{points: slices.Clone(points)}
	initial.calcRange()
	boxes := []*box{initial}

	// 不断分割范围最大的盒子
	for len(boxes) < k {
		splitIdx := -1
		maxRange := 0.0
		for i, b := range boxes {
			if len(b.points) < 2 {
				continue
			}
			if _, r := b.widest(); r > maxRange {
				maxRange = r
				splitIdx = i
			}
		}
		if splitIdx < 0 {
			break
		}
		target := boxes[splitIdx]
		ch, _ := target.widest()
		slices.SortStableFunc(target.points, func(a, b clusters.Observation) int {
			pa, pb := a.Coordinates()[ch], b.Coordinates()[ch]
			switch {
			case pa < pb:
				return -1
			case pa > pb:
				return 1
			}
			return 0
		})

		// 分成两半
		mid := len(target.points) / 2
		b1 := &box{points: target.points[:mid:mid]}
		b2 := &box{points: target.points[mid:]}
		b1.calcRange()
		b2.calcRange()
		boxes = slices.Replace(boxes, splitIdx, splitIdx+1, b1, b2)
	}

	// 计算每个盒子的平均颜色
	seeds := make([]clusters.Coordinates, 0, len(boxes))
	for _, b := range boxes {
		if len(b.points) == 0 {
			continue
		}
		c, err := b.points.Center()
		if err != nil {
			continue
		}
		seeds = append(seeds, c)
	}
	return seeds
}
