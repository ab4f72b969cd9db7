package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const EnvLogLevel = "TRANSPARENTE_LOG_LEVEL"

func InitLogger(app string) zerolog.Logger {
	return initLogger(os.Stdout, app, levelFromEnv(zerolog.InfoLevel))
}

// TestLogger 测试用，无颜色无时间戳
func TestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(levelFromEnv(zerolog.DebugLevel))
}

func initLogger(w io.Writer, app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

func levelFromEnv(def zerolog.Level) zerolog.Level {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel)))
	if raw == "" {
		return def
	}
	if raw == "off" || raw == "none" {
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil {
		return def
	}
	return lvl
}
