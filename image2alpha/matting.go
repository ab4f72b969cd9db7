package image2alpha

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	tptypes "github.com/danloi2/transparente/type"
)

// Matter 背景移除服务：输入原始图片字节，输出带 alpha 的 RGBA 图片字节
type Matter interface {
	Matte(ctx context.Context, raw []byte) ([]byte, error)
}

// Passthrough 不做抠图，直接返回输入（输入本身已经带透明通道）
type Passthrough struct{}

func (Passthrough) Matte(_ context.Context, raw []byte) ([]byte, error) {
	return raw, nil
}

// Command 通过外部进程抠图：原始字节写入 stdin，从 stdout 读取 PNG
type Command struct {
	Argv []string
}

func (c *Command) Matte(ctx context.Context, raw []byte) ([]byte, error) {
	if len(c.Argv) == 0 {
		return nil, fmt.Errorf("%w: empty matting command", tptypes.ErrMattingUnavailable)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Stdin = bytes.NewReader(raw)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", tptypes.ErrMattingUnavailable,
			c.Argv[0], err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: %s produced no output", tptypes.ErrMattingUnavailable, c.Argv[0])
	}
	return stdout.Bytes(), nil
}

// Lazy 第一次使用时才构造抠图服务，之后复用同一个实例
type Lazy struct {
	New func() (Matter, error)
	Log zerolog.Logger

	once  sync.Once
	inner Matter
	err   error
}

func (l *Lazy) Matte(ctx context.Context, raw []byte) ([]byte, error) {
	l.once.Do(func() {
		l.Log.Info().Msg("loading matting service")
		if l.New == nil {
			l.err = fmt.Errorf("%w: no constructor", tptypes.ErrMattingUnavailable)
			return
		}
		l.inner, l.err = l.New()
		if l.err != nil {
			l.Log.Error().Err(l.err).Msg("matting service failed to initialise")
			l.err = fmt.Errorf("%w: %w", tptypes.ErrMattingUnavailable, l.err)
		}
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.inner.Matte(ctx, raw)
}
