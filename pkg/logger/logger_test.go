package logger

import (
	"os"
	"path/filepath"
	"testing"
	"tutor_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "release"},
		Log:    config.LogConfig{File: file, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1},
	}

	log := New(cfg)
	log.Debug("hidden")
	log.Info("tutor ready")
	_ = log.Sync()

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"tutor ready"`)
	assert.NotContains(t, string(raw), "hidden")
}

func TestInitLoggerReplacesGlobal(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	InitLogger(&config.Config{Server: config.ServerConfig{Mode: "debug"}})
	assert.NotSame(t, prev, Log)
}
