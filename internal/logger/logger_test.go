package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/mail-agent/internal/model"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"INFO":    zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"warn":    zapcore.WarnLevel,
		"Error":   zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("chatty")
	assert.Error(t, err)
}

func TestMaxSizeMB(t *testing.T) {
	assert.Equal(t, 10, maxSizeMB("10MB"))
	assert.Equal(t, 1, maxSizeMB("500KB"))
	assert.Equal(t, 1000, maxSizeMB("1GB"))
	assert.Equal(t, 2, maxSizeMB("1.5MiB"))
	assert.Equal(t, defaultMaxSizeMB, maxSizeMB(""))
	assert.Equal(t, defaultMaxSizeMB, maxSizeMB("lots"))
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "agent.log")

	log, err := New(model.LoggingConfig{
		Level:       "info",
		File:        path,
		MaxSize:     "1MB",
		BackupCount: 2,
	})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("email processed", zap.String("uid", "42"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"email processed"`)
	assert.Contains(t, string(data), `"uid":"42"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(model.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
