package logging

import (
	"os"
	"path/filepath"
	"testing"

	"arenasync/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogConfig(t *testing.T, level string) config.LogConfig {
	cfg := config.Default().Log
	cfg.File = filepath.Join(t.TempDir(), "app.log")
	cfg.Level = level
	return cfg
}

func TestInitLoggerWritesFile(t *testing.T) {
	cfg := testLogConfig(t, "info")
	require.NoError(t, InitLogger(cfg))
	t.Cleanup(SyncLogger)

	Log.Named("room").Infow("player connected", "id", "abc")
	Log.Debug("filtered out")
	SyncLogger()

	b, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(b), "player connected")
	assert.Contains(t, string(b), "room")
	assert.NotContains(t, string(b), "filtered out")
}

func TestInitLoggerBadLevel(t *testing.T) {
	assert.Error(t, InitLogger(testLogConfig(t, "loud")))
}
