// Package klog sets up structured logging via log/slog, with file
// rotation through lumberjack and per-context attribute injection, the
// way a long-running CLI process logs across a request/operation
// lifetime rather than one line at a time.
package klog

import (
	"log/slog"
	"os"
	"strings"
)

type Format string

type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Config configures NewHandler.
type Config struct {
	Level       slog.Leveler
	ReplaceAttr ReplaceAttrFunc
	Hooks       []Hook
	AddSource   bool
	LogPath     string
	MaxSize     int
	MaxAge      int
	MaxBackups  int
	Compress    bool
}

var defaultConfig = Config{
	Level:      defaultLevel(),
	LogPath:    "gokio.log",
	MaxSize:    5,
	MaxAge:     14,
	MaxBackups: 5,
}

func mergeConfig(config ...Config) Config {
	if len(config) == 0 {
		return defaultConfig
	}
	cfg := config[0]
	if cfg.Level == nil {
		cfg.Level = defaultConfig.Level
	}
	if cfg.LogPath == "" {
		cfg.LogPath = defaultConfig.LogPath
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultConfig.MaxSize
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = defaultConfig.MaxAge
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = defaultConfig.MaxBackups
	}
	return cfg
}

func defaultLevel() slog.Leveler {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return parseLevel(v)
	}
	return slog.LevelInfo
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
