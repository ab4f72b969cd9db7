package raster

import (
	"bytes"
	"context"
	"image"
	"os"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/image/draw"

	tptypes "github.com/danloi2/transparente/type"
)

// ReadSource 读取输入图片字节，Go 无法解码的格式（HEIC、AVIF 等）用 ffmpeg 转成 PNG
func ReadSource(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tptypes.IOf("read", path, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return data, nil
	}
	return transcodePNG(ctx, path)
}

func transcodePNG(ctx context.Context, path string) ([]byte, error) {
	var out, stderr bytes.Buffer
	cmd := ffmpeg.Input(path).
		Output("pipe:1", ffmpeg.KwArgs{
			"format":   "image2pipe",
			"vcodec":   "png",
			"frames:v": "1",
		}).
		WithOutput(&out).
		WithErrorOutput(&stderr)
	cmd.Context = ctx

	if err := cmd.Run(); err != nil {
		return nil, tptypes.Decodef("ffmpeg transcode %s: %v: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	if out.Len() == 0 {
		return nil, tptypes.Decodef("ffmpeg transcode %s: empty output", path)
	}
	return out.Bytes(), nil
}

// Thumbnail 按宽度等比缩放（Catmull-Rom），保留透明通道
func Thumbnail(img *image.NRGBA, width int) *image.NRGBA {
	b := img.Bounds()
	if width <= 0 || b.Dx() == 0 {
		return Clone(img)
	}
	height := int(float64(b.Dy()) * float64(width) / float64(b.Dx()))
	if height < 1 {
		height = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
