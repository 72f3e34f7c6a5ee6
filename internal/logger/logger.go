package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nhle/mail-agent/internal/model"
)

// defaultMaxSizeMB is used when logging.max_size is empty or unparsable.
const defaultMaxSizeMB = 10

// New builds a zap logger from the logging section of the config. When a
// file is configured, output goes to both the rotated file and stdout.
func New(cfg model.LoggingConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer := zapcore.AddSync(os.Stdout)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}

		writeSyncer = zapcore.NewMultiWriteSyncer(
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    maxSizeMB(cfg.MaxSize),
				MaxBackups: cfg.BackupCount,
			}),
			zapcore.AddSync(os.Stdout),
		)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(core, opts...), nil
}

// parseLevel accepts zap level names in any case, plus "warning".
func parseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	case "critical":
		return zapcore.FatalLevel, nil
	}

	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// maxSizeMB converts a human size such as "10MB" into whole megabytes for
// lumberjack, rounding up.
func maxSizeMB(size string) int {
	if strings.TrimSpace(size) == "" {
		return defaultMaxSizeMB
	}

	b, err := humanize.ParseBytes(size)
	if err != nil || b == 0 {
		return defaultMaxSizeMB
	}

	mb := (b + humanize.MByte - 1) / humanize.MByte
	return int(mb)
}
