// Package kconfig loads and hot-reloads the gokio CLI's configuration
// file with viper, and hands out immutable snapshots to the rest of
// the process.
package kconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jinzhu/copier"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the complete gokio configuration.
type Config struct {
	Pool      PoolConfig      `yaml:"pool" mapstructure:"pool" json:"pool"`
	Transport TransportConfig `yaml:"transport" mapstructure:"transport" json:"transport"`
	Gzip      GzipConfig      `yaml:"gzip" mapstructure:"gzip" json:"gzip"`
	Log       LogConfig       `yaml:"log" mapstructure:"log" json:"log,omitempty"`
}

// PoolConfig tunes the segment pool.
type PoolConfig struct {
	MaxPooledPerShard int `yaml:"max_pooled_per_shard" mapstructure:"max_pooled_per_shard" json:"max_pooled_per_shard"`
	Shards            int `yaml:"shards" mapstructure:"shards" json:"shards"`
}

// TransportConfig tunes the net.Conn adapter's dial retries.
type TransportConfig struct {
	DialAttempts uint   `yaml:"dial_attempts" mapstructure:"dial_attempts" json:"dial_attempts"`
	DialDelayMS  int    `yaml:"dial_delay_ms" mapstructure:"dial_delay_ms" json:"dial_delay_ms"`
	Network      string `yaml:"network" mapstructure:"network" json:"network"`
}

// GzipConfig sets the default gzip.Options used by the CLI's
// gzip pack subcommand.
type GzipConfig struct {
	Level     int  `yaml:"level" mapstructure:"level" json:"level"`
	HeaderCRC bool `yaml:"header_crc" mapstructure:"header_crc" json:"header_crc"`
}

// LogConfig configures slog with rotation, as in DefaultConfig below.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file" json:"file,omitempty"`
	Level      string `yaml:"level" mapstructure:"level" json:"level,omitempty"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size" json:"max_size,omitempty"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age" json:"max_age,omitempty"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups" json:"max_backups,omitempty"`
	Compress   bool   `yaml:"compress" mapstructure:"compress" json:"compress,omitempty"`
}

// DefaultConfig returns the configuration used when no config file is
// present yet.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			MaxPooledPerShard: 64,
			Shards:            4,
		},
		Transport: TransportConfig{
			DialAttempts: 3,
			DialDelayMS:  200,
			Network:      "tcp",
		},
		Gzip: GzipConfig{
			Level: 0,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
		},
	}
}

// DeepCopy returns a deep copy of c using the copier library, so
// callbacks registered with Manager.OnConfigChange can compare an old
// snapshot against a new one without aliasing.
func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}
	copyCfg := &Config{}
	if err := copier.CopyWithOption(copyCfg, c, copier.Option{DeepCopy: true}); err != nil {
		shallow := *c
		return &shallow
	}
	return copyCfg
}

// Validate rejects a configuration that would break the pool or
// transport layer at runtime.
func (c *Config) Validate() error {
	if c.Pool.MaxPooledPerShard <= 0 {
		return fmt.Errorf("pool.max_pooled_per_shard must be greater than 0")
	}
	if c.Pool.Shards <= 0 {
		return fmt.Errorf("pool.shards must be greater than 0")
	}
	if c.Transport.DialAttempts == 0 {
		return fmt.Errorf("transport.dial_attempts must be greater than 0")
	}
	return nil
}

// LoadConfig reads configFile (or ./gokio.yaml if empty), creating a
// default file on first run the way a long-lived service would rather
// than failing outright.
func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()

	var target string
	if configFile != "" {
		viper.SetConfigFile(configFile)
		target = configFile
	} else {
		viper.SetConfigName("gokio")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		target = "gokio.yaml"
	}

	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if err := SaveToFile(config, target); err != nil {
				return nil, fmt.Errorf("creating default config file %s: %w", target, err)
			}
			viper.SetConfigFile(target)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading newly created config file %s: %w", target, err)
			}
		} else {
			return nil, fmt.Errorf("reading config file %s: %w", target, err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// SaveToFile writes config to filename as YAML.
func SaveToFile(config *Config, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", filename, err)
	}
	return nil
}
