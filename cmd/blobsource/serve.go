package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dennwc/blobsource/config"
	"github.com/dennwc/blobsource/storage"
	"github.com/dennwc/blobsource/storage/http"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve blobs over HTTP",
		RunE: openCmd(func(ctx context.Context, c storage.Container, conf *config.Config, flags *pflag.FlagSet, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument")
			}
			host, _ := flags.GetString("host")
			metrics, _ := flags.GetBool("metrics")

			mux := http.NewServeMux()
			mux.Handle("/", httpstor.NewServer(c, "/", conf.Retry.Retrier()))
			if metrics {
				mux.Handle("/metrics", promhttp.Handler())
			}
			srv := &http.Server{Addr: host, Handler: mux}
			go func() {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(sctx)
			}()

			log.Println("listening on", host)
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			return err
		}),
	}
	cmd.Flags().String("host", "localhost:9080", "host to listen on")
	cmd.Flags().Bool("metrics", true, "expose prometheus metrics on /metrics")
	Root.AddCommand(cmd)
}
