package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 100.0, c.Room.SpawnX)
	assert.Equal(t, 100.0, c.Room.SpawnY)
	assert.Equal(t, 0.2, c.Client.Smoothing)
	assert.Equal(t, 50*time.Millisecond, c.Client.EmitInterval)
	assert.Equal(t, 100*time.Millisecond, c.Client.AnimationLock)
	assert.Equal(t, 10, c.Log.MaxSizeMB)
	assert.NoError(t, c.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.yaml")
	body := "room:\n  chatMaxLength: 42\nclient:\n  emitInterval: 80ms\nnetsim:\n  delayMinMs: 5\n  delayMaxMs: 20\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, c.Room.ChatMaxLength)
	assert.Equal(t, 80*time.Millisecond, c.Client.EmitInterval)
	assert.Equal(t, 5, c.NetSim.DelayMinMs)
	assert.Equal(t, 20, c.NetSim.DelayMaxMs)
	// 未出现的键保留默认值
	assert.Equal(t, 64, c.Room.SendQueue)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ARENA_ROOM_CHATMAXLENGTH", "7")
	path := filepath.Join(t.TempDir(), "arena.yaml")
	require.NoError(t, os.WriteFile(path, []byte("room:\n  chatMaxLength: 42\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Room.ChatMaxLength)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  smoothing: 1.5\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("netsim:\n  delayMinMs: 30\n  delayMaxMs: 10\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadReconnectPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	for _, body := range []string{
		"client:\n  reconnectAttempts: -1\n",
		"client:\n  reconnectBackoff: 0s\n",
		"client:\n  reconnectBackoff: -1s\n",
	} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path)
		assert.Error(t, err, body)
	}

	require.NoError(t, os.WriteFile(path, []byte("client:\n  reconnectAttempts: 0\n"), 0o644))
	_, err := Load(path)
	assert.NoError(t, err, "zero attempts means fail on first drop")
}
