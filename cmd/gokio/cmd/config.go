package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or reload the CLI's configuration file",
	}

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Re-read the config file from disk and re-apply its pool/transport/gzip settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigReload,
	}

	configCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigReload(cmd *cobra.Command, args []string) error {
	if err := cfgManager.ReloadConfig(); err != nil {
		return err
	}
	fmt.Println("configuration reloaded")
	return nil
}
