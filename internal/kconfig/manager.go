package kconfig

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// ChangeCallback is notified with the old and new configuration after
// a successful UpdateConfig or ReloadConfig.
type ChangeCallback func(old, new *Config)

// Manager holds the process's current configuration and serializes
// reads/updates behind a mutex, notifying registered callbacks outside
// the lock so a slow callback cannot stall a concurrent GetConfig.
type Manager struct {
	mutex      sync.RWMutex
	current    *Config
	configFile string
	callbacks  []ChangeCallback
}

// NewManager wraps an already-loaded configuration.
func NewManager(config *Config, configFile string) *Manager {
	return &Manager{current: config, configFile: configFile}
}

// GetConfig returns the current configuration snapshot.
func (m *Manager) GetConfig() *Config {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// UpdateConfig installs a new configuration and notifies callbacks
// with a deep copy of the superseded one.
func (m *Manager) UpdateConfig(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	m.mutex.Lock()
	old := m.current.DeepCopy()
	m.current = config
	callbacks := make([]ChangeCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mutex.Unlock()

	for _, cb := range callbacks {
		cb(old, config)
	}
	return nil
}

// OnConfigChange registers cb to run after every successful update or
// reload.
func (m *Manager) OnConfigChange(cb ChangeCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// ReloadConfig re-reads configFile from disk and installs the result.
func (m *Manager) ReloadConfig() error {
	if m.configFile == "" {
		return fmt.Errorf("no config file associated with this manager")
	}
	viper.SetConfigFile(m.configFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", m.configFile, err)
	}
	config := DefaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}
	return m.UpdateConfig(config)
}
