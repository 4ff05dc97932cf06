package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var consoleTimeFormats = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"unix":        time.UnixDate,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
}

// NewFromConfig builds the service logger. Any output path other than
// stdout or stderr is a file rotated by lumberjack.
func NewFromConfig(cfg config.LoggingConfig) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	out, closer := openOutput(cfg)
	if cfg.Format == "console" || cfg.Format == "pretty" {
		layout, ok := consoleTimeFormats[strings.ToLower(cfg.TimeFormat)]
		if !ok {
			layout = time.RFC3339
		}
		out = zerolog.ConsoleWriter{Out: out, NoColor: closer != nil, TimeFormat: layout}
	}

	logger := NewWithWriter(out, level)
	logger.closer = closer
	return logger, nil
}

func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer) {
	switch cfg.OutputPath {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	file := &lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return file, file
}
