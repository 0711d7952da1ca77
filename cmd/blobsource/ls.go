package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dennwc/blobsource/config"
	"github.com/dennwc/blobsource/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:     "ls [prefix]",
		Aliases: []string{"list", "l"},
		Short:   "list blob(s) in the container",
		RunE: openCmd(func(ctx context.Context, c storage.Container, _ *config.Config, flags *pflag.FlagSet, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one prefix")
			}
			l, ok := c.(storage.Lister)
			if !ok {
				return storage.ErrNotSupported
			}
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			raw, _ := flags.GetBool("bytes")

			it := l.IterateBlobs(ctx, prefix)
			defer it.Close()
			var (
				n     int
				total uint64
			)
			for it.Next() {
				b := it.Blob()
				n++
				total += b.Size
				if raw {
					fmt.Println(b.Path, b.Size)
				} else {
					fmt.Println(b.Path, humanize.Bytes(b.Size))
				}
			}
			if err := it.Err(); err != nil {
				return err
			}
			if !raw {
				fmt.Printf("%s in %s blobs\n", humanize.Bytes(total), humanize.Comma(int64(n)))
			}
			return nil
		}),
	}
	cmd.Flags().Bool("bytes", false, "print exact sizes in bytes")
	Root.AddCommand(cmd)
}
