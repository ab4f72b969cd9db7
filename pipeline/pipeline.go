package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/danloi2/transparente/image2alpha"
	"github.com/danloi2/transparente/internal/config"
	"github.com/danloi2/transparente/mask2svg"
	"github.com/danloi2/transparente/raster"
	tptypes "github.com/danloi2/transparente/type"
)

// ErrDuplicateOutput 多个输入的文件名相同（扩展名不同），输出路径会冲突
var ErrDuplicateOutput = errors.New("inputs share an output stem")

type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ArtifactResult 单个输出文件的处理结果
type ArtifactResult struct {
	Name     string
	Path     string
	Status   Status
	Err      error
	Duration time.Duration
}

// Report 单张图片的处理结果。Err 非空表示 alpha 阶段失败，后续变体未执行
type Report struct {
	Input     string
	Artifacts []ArtifactResult
	Err       error
}

// Failed 失败的产物数
func (r Report) Failed() int {
	n := 0
	for _, a := range r.Artifacts {
		if a.Status == StatusFailed {
			n++
		}
	}
	return n
}

type Pipeline struct {
	cfg    config.Config
	matter image2alpha.Matter
	tracer mask2svg.Tracer
	log    zerolog.Logger
}

func New(cfg config.Config, matter image2alpha.Matter, tracer mask2svg.Tracer, log zerolog.Logger) *Pipeline {
	if matter == nil {
		matter = image2alpha.Passthrough{}
	}
	return &Pipeline{cfg: cfg, matter: matter, tracer: tracer, log: log}
}

// NewTracer 按配置选择描摹器
func NewTracer(cfg config.Tracer) mask2svg.Tracer {
	if cfg.Kind == config.TracerGotrace {
		return mask2svg.Gotrace{}
	}
	return mask2svg.Potrace{Binary: cfg.Binary}
}

// NewMatter 配置了命令则返回延迟启动的抠图命令，否则直接透传
func NewMatter(cfg config.Matting, log zerolog.Logger) image2alpha.Matter {
	if len(cfg.Command) == 0 {
		return image2alpha.Passthrough{}
	}
	argv := append([]string(nil), cfg.Command...)
	return &image2alpha.Lazy{
		Log: log,
		New: func() (image2alpha.Matter, error) {
			bin, err := exec.LookPath(argv[0])
			if err != nil {
				return nil, err
			}
			return &image2alpha.Command{Argv: append([]string{bin}, argv[1:]...)}, nil
		},
	}
}

// Batch 最多同时处理 Runtime.ParallelImages 张图片。
// ctx 取消后不再开始新图片，正在处理的会继续完成。
// 文件名相同的输入都不处理，直接报告 ErrDuplicateOutput
func (p *Pipeline) Batch(ctx context.Context, inputs []string) []Report {
	reports := make([]Report, len(inputs))

	stems := make(map[string]int, len(inputs))
	for _, in := range inputs {
		stems[Stem(in)]++
	}

	var g errgroup.Group
	g.SetLimit(max(1, p.cfg.Runtime.ParallelImages))
	for i, in := range inputs {
		if n := stems[Stem(in)]; n > 1 {
			err := fmt.Errorf("%w: %q used by %d inputs", ErrDuplicateOutput, Stem(in), n)
			p.log.Error().Err(err).Str("input", in).Msg("refusing to process input")
			reports[i] = Report{Input: in, Err: err}
			continue
		}
		if err := ctx.Err(); err != nil {
			reports[i] = Report{Input: in, Err: err}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				reports[i] = Report{Input: in, Err: err}
				return nil
			}
			reports[i] = p.Process(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// Process 处理单张图片的完整流程。ctx 取消不会中断它，描摹调用仍受超时限制
func (p *Pipeline) Process(ctx context.Context, input string) Report {
	ctx = context.WithoutCancel(ctx)
	stem := Stem(input)
	log := p.log.With().Str("image", stem).Logger()
	rep := Report{Input: input}

	if err := os.MkdirAll(p.cfg.Output.Dir, 0o755); err != nil {
		rep.Err = tptypes.IOf("mkdir", p.cfg.Output.Dir, err)
		log.Error().Err(rep.Err).Msg("output directory unavailable")
		return rep
	}

	start := time.Now()
	alphaPath := p.path(stem, p.cfg.Output.Alpha)
	refined, status, err := p.alpha(ctx, input, alphaPath)
	alphaRes := ArtifactResult{Name: "alpha", Path: alphaPath, Status: status, Err: err, Duration: time.Since(start)}
	p.logArtifact(log, alphaRes)
	rep.Artifacts = append(rep.Artifacts, alphaRes)
	if err != nil {
		rep.Err = err
		log.Warn().Msg("skipping vectorization, alpha image was not created")
		return rep
	}

	rep.Artifacts = append(rep.Artifacts, p.variants(ctx, log, stem, refined)...)
	return rep
}

func (p *Pipeline) path(stem, suffix string) string {
	return filepath.Join(p.cfg.Output.Dir, stem+p.cfg.Output.Tag+suffix)
}

// alpha 已存在则直接加载，否则读取、抠图、精修并写入
func (p *Pipeline) alpha(ctx context.Context, input, out string) (*image.NRGBA, Status, error) {
	ok, err := exists(out)
	if err != nil {
		return nil, StatusFailed, err
	}
	if ok {
		data, err := os.ReadFile(out)
		if err != nil {
			return nil, StatusFailed, tptypes.IOf("read", out, err)
		}
		img, err := raster.Decode(data)
		if err != nil {
			return nil, StatusFailed, fmt.Errorf("existing %s: %w", out, err)
		}
		return img, StatusSkipped, nil
	}

	raw, err := raster.ReadSource(ctx, input)
	if err != nil {
		return nil, StatusFailed, err
	}
	matted, err := p.matter.Matte(ctx, raw)
	if err != nil {
		return nil, StatusFailed, err
	}
	refined, err := image2alpha.RefineBytes(matted, p.cfg.Alpha)
	if err != nil {
		return nil, StatusFailed, err
	}
	err = writeAtomic(out, func(w io.Writer) error {
		if err := raster.EncodePNG(w, refined); err != nil {
			return tptypes.IOf("encode", out, err)
		}
		return nil
	})
	if err != nil {
		return nil, StatusFailed, err
	}
	return refined, StatusWritten, nil
}

// variant 一个输出产物：名称、路径和生成函数
type variant struct {
	name  string
	path  string
	build func(ctx context.Context) ([]byte, error)
}

// variants 并发生成各个变体，互不影响；已存在的直接跳过
func (p *Pipeline) variants(ctx context.Context, log zerolog.Logger, stem string, img *image.NRGBA) []ArtifactResult {
	vs := p.variantList(stem, img)
	results := make([]ArtifactResult, len(vs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, max(1, p.cfg.Runtime.ParallelVariants))
	for i, v := range vs {
		wg.Add(1)
		go func(idx int, v variant) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res := p.runVariant(ctx, v)
			p.logArtifact(log, res)
			results[idx] = res
		}(i, v)
	}
	wg.Wait()
	return results
}

func (p *Pipeline) runVariant(ctx context.Context, v variant) (res ArtifactResult) {
	res = ArtifactResult{Name: v.name, Path: v.path}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	ok, err := exists(v.path)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if ok {
		res.Status = StatusSkipped
		return res
	}

	data, err := v.build(ctx)
	if err == nil {
		err = writeBytesAtomic(v.path, data)
	}
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Status = StatusWritten
	return res
}

func (p *Pipeline) logArtifact(log zerolog.Logger, res ArtifactResult) {
	ev := log.Info()
	if res.Status == StatusFailed {
		ev = log.Error().Err(res.Err)
		if te := (*tptypes.TraceError)(nil); errors.As(res.Err, &te) && te.Stderr != "" {
			ev = ev.Str("stderr", te.Stderr)
		}
	}
	ev.Str("artifact", res.Name).
		Str("status", string(res.Status)).
		Str("path", res.Path).
		Dur("took", res.Duration).
		Msg("artifact")
}

// encodePNG 把图片编码为 PNG 字节
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
