package kconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerUpdateConfigNotifiesCallbacks(t *testing.T) {
	initial := DefaultConfig()
	manager := NewManager(initial, "")

	var seenOld, seenNew *Config
	manager.OnConfigChange(func(old, new *Config) {
		seenOld, seenNew = old, new
	})

	updated := initial.DeepCopy()
	updated.Pool.Shards = 8
	require.NoError(t, manager.UpdateConfig(updated))

	assert.Equal(t, 4, seenOld.Pool.Shards)
	assert.Equal(t, 8, seenNew.Pool.Shards)
	assert.Equal(t, 8, manager.GetConfig().Pool.Shards)
}

func TestManagerUpdateConfigRejectsInvalid(t *testing.T) {
	manager := NewManager(DefaultConfig(), "")

	bad := DefaultConfig()
	bad.Transport.DialAttempts = 0
	err := manager.UpdateConfig(bad)
	require.Error(t, err)
	assert.Equal(t, 4, manager.GetConfig().Pool.Shards)
}

func TestManagerReloadConfigReadsFileChanges(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "gokio.yaml")
	initial := DefaultConfig()
	require.NoError(t, SaveToFile(initial, configFile))

	loaded, err := LoadConfig(configFile)
	require.NoError(t, err)
	manager := NewManager(loaded, configFile)

	changed := loaded.DeepCopy()
	changed.Pool.Shards = 16
	require.NoError(t, SaveToFile(changed, configFile))

	require.NoError(t, manager.ReloadConfig())
	assert.Equal(t, 16, manager.GetConfig().Pool.Shards)
}

func TestManagerReloadConfigWithoutFileFails(t *testing.T) {
	manager := NewManager(DefaultConfig(), "")
	err := manager.ReloadConfig()
	require.Error(t, err)
}
