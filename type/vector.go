package tptypes

import (
	"errors"
	"fmt"
)

// VectorPath 描摹器输出的路径数据和可选变换，原样透传
type VectorPath struct {
	Data      string
	Transform string
}

// VectorLayer 单个矢量图层：路径或圆点，加填充色
type VectorLayer struct {
	Path   VectorPath
	Circle *Dot
	Fill   string
	Z      int
}

// VectorDocument 最终矢量文档，图层按顺序渲染（先画的在下面）
type VectorDocument struct {
	Width      int
	Height     int
	Desc       string
	Background string
	Layers     []VectorLayer

	finalized bool
}

var errFinalized = errors.New("vector document already finalized")

func NewVectorDocument(w, h int) *VectorDocument {
	return &VectorDocument{Width: w, Height: h}
}

// ViewBox 返回 "0 0 width height"
func (d *VectorDocument) ViewBox() string {
	return fmt.Sprintf("0 0 %d %d", d.Width, d.Height)
}

// Append 在最上层追加图层
func (d *VectorDocument) Append(l VectorLayer) error {
	if d.finalized {
		return errFinalized
	}
	d.Layers = append(d.Layers, l)
	return nil
}

// Finalize 冻结图层列表，编码时调用
func (d *VectorDocument) Finalize() { d.finalized = true }

func (d *VectorDocument) Finalized() bool { return d.finalized }
