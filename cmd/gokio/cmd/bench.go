package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayo-projects/gokio/pkg/kio"
)

func init() {
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Inspect runtime counters",
	}

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Print segment pool hit/miss counters",
		RunE:  runBenchPool,
	}

	benchCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(benchCmd)
}

func runBenchPool(cmd *cobra.Command, args []string) error {
	s := kio.Stats()
	fmt.Printf("takes=%d recycles=%d allocs=%d drops=%d\n", s.Takes, s.Recycles, s.Allocs, s.Drops)
	return nil
}
