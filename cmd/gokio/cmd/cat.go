package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayo-projects/gokio/pkg/kio"
	"github.com/jayo-projects/gokio/pkg/kio/kioadapter"
)

func init() {
	catCmd := &cobra.Command{
		Use:   "cat <src> <dst>",
		Short: "Copy src to dst through a BufferedReader/TransferTo",
		Args:  cobra.ExactArgs(2),
		RunE:  runCat,
	}
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	in, err := kioadapter.OpenFile(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := kioadapter.CreateFile(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	br := kio.NewBufferedReader(in)
	defer br.Close()

	scope := rootScope()
	defer scope.Cancel()
	n, err := br.TransferTo(scope.Context, out)
	if err != nil {
		return err
	}
	fmt.Printf("copied %d bytes\n", n)
	return nil
}
