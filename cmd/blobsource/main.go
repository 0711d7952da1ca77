package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dennwc/blobsource/config"
	"github.com/dennwc/blobsource/storage"

	// register containers
	_ "github.com/dennwc/blobsource/storage/azure"
	_ "github.com/dennwc/blobsource/storage/gcs"
	_ "github.com/dennwc/blobsource/storage/http"
	_ "github.com/dennwc/blobsource/storage/local"
	_ "github.com/dennwc/blobsource/storage/s3"
)

var (
	Root = &cobra.Command{
		Use:   "blobsource [command]",
		Short: "Tools to read blobs from remote containers",
	}
)

func init() {
	Root.PersistentFlags().StringP("config", "c", config.DefaultConfig, "path to the config file")
}

func main() {
	if err := Root.Execute(); err != nil {
		log.Fatal(err)
	}
}

type openFunc func(ctx context.Context, c storage.Container, conf *config.Config, flags *pflag.FlagSet, args []string) error

// cmdCtx runs the command with a context that is cancelled on interrupt.
func cmdCtx(fnc func(ctx context.Context, flags *pflag.FlagSet, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return fnc(ctx, cmd.Flags(), args)
	}
}

// openCmd loads the config and opens the container before running the command.
func openCmd(fnc openFunc) func(cmd *cobra.Command, args []string) error {
	return cmdCtx(func(ctx context.Context, flags *pflag.FlagSet, args []string) error {
		path, _ := flags.GetString("config")
		conf, err := config.Load(path)
		if err != nil {
			return err
		}
		c, err := storage.Open(ctx, conf.Storage)
		if err != nil {
			return err
		}
		defer storage.Close(c)
		return fnc(ctx, c, conf, flags, args)
	})
}
