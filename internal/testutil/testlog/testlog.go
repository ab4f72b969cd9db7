package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/danloi2/transparente/internal/observability"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// Start 返回写到 t.Log 的日志器
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logger := observability.TestLogger(testWriter{t: t})
	logger.Info().Str("test", t.Name()).Msg("start")
	return logger
}
