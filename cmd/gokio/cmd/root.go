// Package cmd implements the gokio CLI: a thin exerciser over pkg/kio
// wired to its own config file and rotating logger, in the shape of a
// real cobra-based tool rather than a handful of example mains.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jayo-projects/gokio/internal/kcancel"
	"github.com/jayo-projects/gokio/internal/kconfig"
	"github.com/jayo-projects/gokio/internal/klog"
	"github.com/jayo-projects/gokio/pkg/kio"
)

var (
	configFile string
	verbose    bool
	timeout    time.Duration

	// cfg is the current configuration, kept up to date by
	// cfgManager's OnConfigChange hook, read by subcommands that need
	// pool/transport/gzip defaults.
	cfg *kconfig.Config

	// cfgManager serializes cfg reads against "config reload".
	cfgManager *kconfig.Manager
)

var rootCmd = &cobra.Command{
	Use:   "gokio",
	Short: "Exercise the gokio segmented-buffer I/O engine",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./gokio.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "cancel the operation after this duration (0 = no deadline)")
	cobra.OnInitialize(initLogger, initConfig)
}

func initLogger() {
	level := "info"
	if verbose {
		level = "debug"
	}
	slog.SetDefault(slog.New(klog.NewHandler(klog.Config{Level: parseLevelFlag(level)})))
}

func parseLevelFlag(level string) slog.Leveler {
	if level == "debug" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// initConfig loads the CLI's configuration file (creating a default one
// on first run), applies its pool sizing to the process-wide segment
// pool before any subcommand touches pkg/kio, and wraps it in a Manager
// so "config reload" has something to act on.
func initConfig() {
	loaded, err := kconfig.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gokio: loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded
	kio.ConfigurePool(cfg.Pool.Shards, cfg.Pool.MaxPooledPerShard)

	cfgManager = kconfig.NewManager(loaded, configFile)
	cfgManager.OnConfigChange(func(_, newConfig *kconfig.Config) {
		cfg = newConfig
		kio.ConfigurePool(cfg.Pool.Shards, cfg.Pool.MaxPooledPerShard)
		slog.Info("configuration reloaded", "shards", cfg.Pool.Shards, "max_pooled_per_shard", cfg.Pool.MaxPooledPerShard)
	})
}

// rootScope opens a kcancel.Scope governing a subcommand's blocking
// operations, bounded by --timeout when it is set. The scope's context
// carries its UUID (see kcancel.IDFromContext); cancellation and timeout
// errors do not include it.
func rootScope() *kcancel.Scope {
	if timeout <= 0 {
		return kcancel.New(context.Background())
	}
	return kcancel.NewWithTimeout(context.Background(), timeout)
}

// Execute runs the root command, exiting the process with a non-zero
// status on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
