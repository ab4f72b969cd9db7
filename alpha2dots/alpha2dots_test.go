package alpha2dots

import (
	"image"
	"image/color"
	"testing"

	"github.com/danloi2/transparente/internal/testutil/testlog"
	"github.com/danloi2/transparente/raster"
	tptypes "github.com/danloi2/transparente/type"
)

func TestWhiteImageHasNoDots(t *testing.T) {
	testlog.Start(t)
	img := raster.Solid(40, 30, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	dots, err := Generate(img, DefaultOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(dots) != 0 {
		t.Fatalf("expected no dots, got %d", len(dots))
	}
}

func TestTransparentImageHasNoDots(t *testing.T) {
	testlog.Start(t)
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	dots, err := Generate(img, DefaultOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(dots) != 0 {
		t.Fatalf("transparent pixels composite to white, got %d dots", len(dots))
	}
}

func TestBlackImageDots(t *testing.T) {
	testlog.Start(t)
	img := raster.Solid(30, 30, color.NRGBA{A: 255})
	opt := DefaultOptions()
	dots, err := Generate(img, opt)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(dots) == 0 {
		t.Fatalf("expected dots on black")
	}
	for _, d := range dots {
		if d.X < 0 || d.Y < 0 || d.X >= 30 || d.Y >= 30 {
			t.Fatalf("dot outside image: %+v", d)
		}
		if d.Radius != opt.DotSize*0.8 {
			t.Fatalf("full darkness radius %v, want %v", d.Radius, opt.DotSize*0.8)
		}
	}
}

func TestAxisAlignedGrid(t *testing.T) {
	testlog.Start(t)
	img := raster.Solid(10, 10, color.NRGBA{A: 255})
	dots, err := Generate(img, Options{DotSize: 3, Spacing: 5, Angle: 0})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 网格偏移 -15..10 步长 5，加上中心 5 后只有 0 和 5 落在图内
	if len(dots) != 4 {
		t.Fatalf("expected 4 dots, got %d: %+v", len(dots), dots)
	}
	want := [][2]int{{0, 0}, {5, 0}, {0, 5}, {5, 5}}
	for i, d := range dots {
		if d.X != want[i][0] || d.Y != want[i][1] {
			t.Fatalf("dot %d at (%d,%d), want %v", i, d.X, d.Y, want[i])
		}
	}
}

func TestGenerateIsStable(t *testing.T) {
	testlog.Start(t)
	img := image.NewNRGBA(image.Rect(0, 0, 25, 17))
	for y := 0; y < 17; y++ {
		for x := 0; x < 25; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 15), B: 40, A: 255})
		}
	}
	a, _ := Generate(img, DefaultOptions())
	b, _ := Generate(img, DefaultOptions())
	if len(a) != len(b) {
		t.Fatalf("dot counts differ")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("dot %d differs", i)
		}
	}
}

func TestDocument(t *testing.T) {
	testlog.Start(t)
	doc, err := Document([]tptypes.Dot{{X: 1, Y: 2, Radius: 1.5}}, 8, 9, "halftone")
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Background != "white" || len(doc.Layers) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	l := doc.Layers[0]
	if l.Circle == nil || l.Circle.X != 1 || l.Fill != DotFill {
		t.Fatalf("unexpected layer %+v", l)
	}
}

func TestZeroSpacing(t *testing.T) {
	testlog.Start(t)
	if _, err := Generate(raster.Solid(4, 4, color.NRGBA{A: 255}), Options{DotSize: 3}); err == nil {
		t.Fatalf("expected error for zero spacing")
	}
}
