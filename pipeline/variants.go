package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/danloi2/transparente/alpha2color"
	"github.com/danloi2/transparente/alpha2dots"
	"github.com/danloi2/transparente/alpha2tone"
	"github.com/danloi2/transparente/internal/config"
	"github.com/danloi2/transparente/mask2svg"
	"github.com/danloi2/transparente/raster"
	"github.com/danloi2/transparente/svg2path"
	tptypes "github.com/danloi2/transparente/type"
)

func (p *Pipeline) variantList(stem string, img *image.NRGBA) []variant {
	out := p.cfg.Output
	return []variant{
		{name: "gray", path: p.path(stem, out.Gray), build: func(ctx context.Context) ([]byte, error) {
			return p.gray(ctx, img)
		}},
		{name: "halftone", path: p.path(stem, out.Halftone), build: func(context.Context) ([]byte, error) {
			return p.halftone(img)
		}},
		{name: "lineart", path: p.path(stem, out.Lineart), build: func(ctx context.Context) ([]byte, error) {
			return p.lineart(ctx, img)
		}},
		{name: "color_logo", path: p.path(stem, out.ColorLogo), build: func(ctx context.Context) ([]byte, error) {
			return p.color(ctx, img, p.cfg.ColorLogo, "color logo")
		}},
		{name: "color_illus", path: p.path(stem, out.ColorIllus), build: func(ctx context.Context) ([]byte, error) {
			return p.color(ctx, img, p.cfg.ColorIllus, "color illustration")
		}},
		{name: "thumb", path: p.path(stem, out.Thumb), build: func(context.Context) ([]byte, error) {
			return encodePNG(raster.Thumbnail(img, p.cfg.ThumbWidth))
		}},
	}
}

func (p *Pipeline) gray(ctx context.Context, img *image.NRGBA) ([]byte, error) {
	bands, err := alpha2tone.Decompose(img, p.cfg.Gray.Tones)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("grayscale, %d tones", p.cfg.Gray.Tones.NumTones)
	return p.trace(ctx, img, alpha2tone.Layers(bands), p.cfg.Gray.Trace, desc)
}

func (p *Pipeline) halftone(img *image.NRGBA) ([]byte, error) {
	opt := p.cfg.Halftone
	dots, err := alpha2dots.Generate(img, opt)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	doc, err := alpha2dots.Document(dots, b.Dx(), b.Dy(), fmt.Sprintf("halftone, %g degrees", opt.Angle))
	if err != nil {
		return nil, err
	}
	return p.encodeChecked(doc)
}

func (p *Pipeline) lineart(ctx context.Context, img *image.NRGBA) ([]byte, error) {
	layer := alpha2tone.Lineart(img, p.cfg.Lineart.Threshold)
	return p.trace(ctx, img, []tptypes.FilledMask{layer}, p.cfg.Lineart.Trace, "lineart")
}

func (p *Pipeline) color(ctx context.Context, img *image.NRGBA, cc config.Color, desc string) ([]byte, error) {
	res, err := alpha2color.Decompose(img, cc.Cluster)
	if err != nil {
		return nil, err
	}
	params := cc.Trace
	if res.Monochrome {
		params = cc.MonoTrace
		desc += ", black and white"
	} else {
		desc += fmt.Sprintf(", %d colors", len(res.Clusters))
	}
	return p.trace(ctx, img, alpha2color.Layers(res, cc.Cluster), params, desc)
}

// trace 描摹所有图层并编码为 SVG
func (p *Pipeline) trace(ctx context.Context, img *image.NRGBA, layers []tptypes.FilledMask, params mask2svg.TraceParams, desc string) ([]byte, error) {
	inputs := make([]mask2svg.Input, len(layers))
	for i, l := range layers {
		inputs[i] = mask2svg.Input{Mask: l.Mask, Fill: l.Fill, Params: params}
	}
	b := img.Bounds()
	doc, err := mask2svg.Assemble(ctx, p.tracer, inputs, b.Dx(), b.Dy(), mask2svg.AssembleOptions{
		Timeout: p.cfg.Tracer.Timeout,
		Desc:    desc,
	})
	if err != nil {
		return nil, err
	}
	return p.encodeChecked(doc)
}

// encodeChecked 编码后用独立解析器核对 viewBox。解析器不认识的文档只记录警告
func (p *Pipeline) encodeChecked(doc *tptypes.VectorDocument) ([]byte, error) {
	data, err := mask2svg.EncodeBytes(doc)
	if err != nil {
		return nil, err
	}
	vb, err := svg2path.ReadViewBox(string(data))
	if err != nil {
		p.log.Warn().Err(err).Str("desc", doc.Desc).Msg("viewBox check skipped")
		return data, nil
	}
	if vb != doc.ViewBox() {
		return nil, fmt.Errorf("encoded viewBox %q, want %q", vb, doc.ViewBox())
	}
	return data, nil
}
