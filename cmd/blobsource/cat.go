package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dennwc/blobsource"
	"github.com/dennwc/blobsource/config"
	"github.com/dennwc/blobsource/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:     "cat",
		Aliases: []string{"get", "dump"},
		Short:   "dump blob(s) content to stdout",
		RunE: openCmd(func(ctx context.Context, c storage.Container, conf *config.Config, _ *pflag.FlagSet, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected at least one path")
			}
			r := conf.Retry.Retrier()
			for _, arg := range args {
				src, err := blobsource.New(c, arg)
				if err != nil {
					return err
				}
				if _, err = r.CopyTo(ctx, os.Stdout, src); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	Root.AddCommand(cmd)
}
