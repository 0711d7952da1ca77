package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dennwc/blobsource"
	"github.com/dennwc/blobsource/config"
	"github.com/dennwc/blobsource/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stat",
		Short: "print size and content type of blob(s)",
		RunE: openCmd(func(ctx context.Context, c storage.Container, _ *config.Config, _ *pflag.FlagSet, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected at least one path")
			}
			for _, arg := range args {
				src, err := blobsource.New(c, arg)
				if err != nil {
					return err
				}
				info, err := src.Stat(ctx)
				if err != nil {
					return err
				}
				fmt.Println(info.Path, humanize.Bytes(info.Size), info.ContentType)
			}
			return nil
		}),
	}
	Root.AddCommand(cmd)
}
