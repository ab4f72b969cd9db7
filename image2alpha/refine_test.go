package image2alpha

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/danloi2/transparente/internal/testutil/testlog"
	"github.com/danloi2/transparente/raster"
	tptypes "github.com/danloi2/transparente/type"
)

// ringImage draws a red square with a near-white ring around it on a
// transparent background.
func ringImage(size, inner, ring int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := max(absInt(x-c), absInt(y-c))
			switch {
			case d < inner:
				img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
			case d < inner+ring:
				img.SetNRGBA(x, y, color.NRGBA{R: 250, G: 248, B: 245, A: 180})
			}
		}
	}
	return img
}

func isRing(x, y, size, inner, ring int) bool {
	c := size / 2
	d := max(absInt(x-c), absInt(y-c))
	return d >= inner && d < inner+ring
}

func TestRefineKeepsDimensions(t *testing.T) {
	testlog.Start(t)
	img := ringImage(41, 8, 6)
	out := Refine(img, DefaultRefineOptions())
	if out.Bounds() != img.Bounds() {
		t.Fatalf("bounds changed: %v -> %v", img.Bounds(), out.Bounds())
	}
}

func TestRefineRemovesHaloRing(t *testing.T) {
	testlog.Start(t)
	const size, inner, ring = 41, 8, 6
	img := ringImage(size, inner, ring)

	opt := DefaultRefineOptions()
	opt.BlurSigma = 0
	opt.FeatherSize = 0
	out := Refine(img, opt)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !isRing(x, y, size, inner, ring) {
				continue
			}
			p := out.NRGBAAt(x, y)
			if p.A != 0 {
				t.Fatalf("ring pixel (%d,%d) kept alpha %d", x, y, p.A)
			}
			if p.R != 150 || p.G != 149 || p.B != 147 {
				t.Fatalf("ring pixel (%d,%d) not despilled: %v", x, y, p)
			}
		}
	}
	if a := out.NRGBAAt(size/2, size/2).A; a != 255 {
		t.Fatalf("shape lost alpha: %d", a)
	}
}

func TestRefineHaloRunsBeforeBlur(t *testing.T) {
	testlog.Start(t)
	const size, inner, ring = 61, 8, 14
	img := ringImage(size, inner, ring)
	out := Refine(img, DefaultRefineOptions())
	c := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := max(absInt(x-c), absInt(y-c))
			// beyond the blur/feather reach of the shape edge
			if d >= inner+6 && d < inner+ring {
				if a := out.NRGBAAt(x, y).A; a != 0 {
					t.Fatalf("halo reappeared at (%d,%d): alpha %d", x, y, a)
				}
			}
		}
	}
}

func TestTinyAlphaSuppression(t *testing.T) {
	testlog.Start(t)
	opt := DefaultRefineOptions()
	opt.BlurSigma = 0
	opt.FeatherSize = 0

	below := raster.Solid(3, 3, color.NRGBA{R: 10, G: 10, B: 10, A: opt.MinAlpha - 1})
	if a := Refine(below, opt).NRGBAAt(1, 1).A; a != 0 {
		t.Fatalf("alpha %d should have been suppressed, got %d", opt.MinAlpha-1, a)
	}
	at := raster.Solid(3, 3, color.NRGBA{R: 10, G: 10, B: 10, A: opt.MinAlpha})
	if a := Refine(at, opt).NRGBAAt(1, 1).A; a != opt.MinAlpha {
		t.Fatalf("alpha %d should be unchanged, got %d", opt.MinAlpha, a)
	}
}

func TestRefineDoesNotMutateInput(t *testing.T) {
	testlog.Start(t)
	img := ringImage(21, 4, 3)
	before := raster.Clone(img)
	Refine(img, DefaultRefineOptions())
	if !bytes.Equal(before.Pix, img.Pix) {
		t.Fatalf("input buffer was modified")
	}
}

func TestRefineBytesDecodeError(t *testing.T) {
	testlog.Start(t)
	_, err := RefineBytes([]byte{0x00, 0x01}, DefaultRefineOptions())
	if !errors.Is(err, tptypes.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestLazyMatterInitialisesOnce(t *testing.T) {
	logger := testlog.Start(t)
	calls := 0
	l := &Lazy{
		Log: logger,
		New: func() (Matter, error) {
			calls++
			return Passthrough{}, nil
		},
	}
	for i := 0; i < 3; i++ {
		out, err := l.Matte(context.Background(), []byte("x"))
		if err != nil || string(out) != "x" {
			t.Fatalf("matte: %q %v", out, err)
		}
	}
	if calls != 1 {
		t.Fatalf("constructor called %d times", calls)
	}
}

func TestLazyMatterUnavailable(t *testing.T) {
	logger := testlog.Start(t)
	l := &Lazy{
		Log: logger,
		New: func() (Matter, error) { return nil, errors.New("model missing") },
	}
	_, err := l.Matte(context.Background(), nil)
	if !errors.Is(err, tptypes.ErrMattingUnavailable) {
		t.Fatalf("expected ErrMattingUnavailable, got %v", err)
	}
}

func TestCommandMatterMissingBinary(t *testing.T) {
	testlog.Start(t)
	c := &Command{Argv: []string{"transparente-no-such-matting-binary"}}
	_, err := c.Matte(context.Background(), []byte("x"))
	if !errors.Is(err, tptypes.ErrMattingUnavailable) {
		t.Fatalf("expected ErrMattingUnavailable, got %v", err)
	}
}
