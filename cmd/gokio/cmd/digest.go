package cmd

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jayo-projects/gokio/pkg/kio"
	"github.com/jayo-projects/gokio/pkg/kio/kioadapter"
)

func init() {
	digestCmd := &cobra.Command{
		Use:   "digest <file>",
		Short: "Print the SHA-256 digest of file, piped through a DigestWriter sink",
		Args:  cobra.ExactArgs(1),
		RunE:  runDigest,
	}
	rootCmd.AddCommand(digestCmd)
}

type discard struct{}

func (discard) WriteFrom(src *kio.Buffer, byteCount int64) error {
	buf := make([]byte, byteCount)
	_, err := src.Read(buf)
	return err
}
func (discard) Flush() error { return nil }
func (discard) Close() error { return nil }

func runDigest(cmd *cobra.Command, args []string) error {
	path := args[0]

	in, err := kioadapter.OpenFile(path)
	if err != nil {
		return err
	}
	defer in.Close()

	dw := kioadapter.NewDigestWriter(discard{}, sha256.New())
	br := kio.NewBufferedReader(in)
	defer br.Close()

	buf := make([]byte, 32*1024)
	for {
		n, err := br.Read(buf)
		if n > 0 {
			mirror := kio.NewBuffer()
			if _, werr := mirror.Write(buf[:n]); werr != nil {
				return werr
			}
			if werr := dw.WriteFrom(mirror, int64(n)); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	if err := dw.Close(); err != nil {
		return err
	}

	fmt.Printf("%x  %s\n", dw.Sum(nil), path)
	return nil
}
