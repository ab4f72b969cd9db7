package pipeline

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	tptypes "github.com/danloi2/transparente/type"
)

// ListInputs 列出目录下扩展名匹配的图片，按文件名排序，忽略临时文件
func ListInputs(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, tptypes.IOf("readdir", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.Contains(name, TempMarker) || strings.Contains(name, ".vtrace_temp.") {
			continue
		}
		if !slices.Contains(exts, strings.ToLower(filepath.Ext(name))) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	slices.Sort(out)
	return out, nil
}

// Stem 去掉目录和扩展名的文件名
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
