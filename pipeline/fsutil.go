package pipeline

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	tptypes "github.com/danloi2/transparente/type"
)

// TempMarker 写入中的临时文件名都带这个标记
const TempMarker = ".temp."

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, tptypes.IOf("stat", path, err)
}

// writeAtomic 先写同目录临时文件再重命名，失败时不留任何文件
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, base+TempMarker+"*")
	if err != nil {
		return tptypes.IOf("create", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return tptypes.IOf("sync", tmp, err)
	}
	if err = f.Close(); err != nil {
		return tptypes.IOf("close", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return tptypes.IOf("rename", path, err)
	}
	return nil
}

func writeBytesAtomic(path string, data []byte) error {
	return writeAtomic(path, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return tptypes.IOf("write", path, err)
		}
		return nil
	})
}
