package mask2svg

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/image/bmp"

	"github.com/danloi2/transparente/svg2path"
	tptypes "github.com/danloi2/transparente/type"
)

// Potrace 外部 potrace 进程描摹器
type Potrace struct {
	// 默认使用 PATH 中的 potrace
	Binary string
	// 临时目录的父目录，空则用 os.TempDir
	TempDir string
}

func (p Potrace) binary() string {
	if p.Binary == "" {
		return "potrace"
	}
	return p.Binary
}

// Args potrace 命令行参数
func Args(in, out string, tp TraceParams) []string {
	args := []string{in, "-s", "-o", out}
	if tp.Flat {
		args = append(args, "--flat")
	}
	args = append(args,
		"--turdsize", strconv.Itoa(tp.TurdSize),
		"--alphamax", strconv.FormatFloat(tp.AlphaMax, 'f', -1, 64),
		"--opttolerance", strconv.FormatFloat(tp.OptTolerance, 'f', -1, 64),
	)
	if tp.LongCurve {
		args = append(args, "--longcurve")
	}
	return args
}

func (p Potrace) Trace(ctx context.Context, mask *tptypes.BinaryMask, tp TraceParams) ([]tptypes.VectorPath, error) {
	if mask.Empty() {
		return nil, nil
	}

	// 每次调用独立的临时目录，任何退出路径都会清理
	dir, err := os.MkdirTemp(p.TempDir, "potrace-")
	if err != nil {
		return nil, tptypes.IOf("mkdtemp", p.TempDir, err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "mask.bmp")
	out := filepath.Join(dir, "mask.svg")
	if err := writeBMP(in, mask); err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary(), Args(in, out, tp)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var ee *exec.Error
		if errors.As(err, &ee) {
			return nil, &tptypes.TraceError{Err: err}
		}
		return nil, &tptypes.TraceError{Stderr: stderr.String(), Err: err}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, &tptypes.TraceError{Stderr: stderr.String(), Err: err}
	}
	return svg2path.Parse(string(data))
}

func writeBMP(path string, mask *tptypes.BinaryMask) error {
	f, err := os.Create(path)
	if err != nil {
		return tptypes.IOf("create", path, err)
	}
	if err := bmp.Encode(f, mask.Gray()); err != nil {
		f.Close()
		return tptypes.IOf("encode", path, err)
	}
	if err := f.Close(); err != nil {
		return tptypes.IOf("close", path, err)
	}
	return nil
}
