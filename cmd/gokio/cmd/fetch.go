package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jayo-projects/gokio/pkg/kio"
	"github.com/jayo-projects/gokio/pkg/kio/kioadapter"
)

func init() {
	fetchCmd := &cobra.Command{
		Use:   "fetch <host:port> <dst>",
		Short: "Dial a TCP address (retrying per the config file's transport settings) and save everything it sends into dst",
		Args:  cobra.ExactArgs(2),
		RunE:  runFetch,
	}
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	address, dst := args[0], args[1]

	scope := rootScope()
	defer scope.Cancel()

	opts := kioadapter.DialOptions{
		Attempts: cfg.Transport.DialAttempts,
		Delay:    time.Duration(cfg.Transport.DialDelayMS) * time.Millisecond,
	}
	network := cfg.Transport.Network
	if network == "" {
		network = "tcp"
	}

	connReader, connWriter, err := kioadapter.DialRetry(scope.Context, network, address, opts)
	if err != nil {
		return err
	}
	defer connWriter.Close()

	out, err := kioadapter.CreateFile(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	br := kio.NewBufferedReader(connReader)
	defer br.Close()

	n, err := br.TransferTo(scope.Context, out)
	if err != nil {
		return err
	}
	fmt.Printf("fetched %d bytes from %s -> %s\n", n, address, dst)
	return nil
}
