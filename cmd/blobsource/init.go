package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dennwc/blobsource/config"
	"github.com/dennwc/blobsource/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "write a config file for a blob container",
		RunE: cmdCtx(func(ctx context.Context, flags *pflag.FlagSet, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument")
			}
			path, _ := flags.GetString("config")
			force, _ := flags.GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists: %s", path)
			}
			conf := config.Default()
			sc := &conf.Storage
			sc.Type, _ = flags.GetString("type")
			sc.Dir, _ = flags.GetString("dir")
			sc.Bucket, _ = flags.GetString("bucket")
			sc.Container, _ = flags.GetString("container")
			sc.Account, _ = flags.GetString("account")
			sc.Endpoint, _ = flags.GetString("endpoint")
			sc.Prefix, _ = flags.GetString("prefix")
			sc.URL, _ = flags.GetString("url")
			sc.Secure, _ = flags.GetBool("secure")
			sc.Credentials, _ = flags.GetString("credentials")
			if !isType(sc.Type) {
				return fmt.Errorf("unsupported storage type: %q (expected one of: %s)", sc.Type, strings.Join(storage.Types(), ", "))
			}
			return config.Write(path, conf)
		}),
	}
	f := cmd.Flags()
	f.String("type", "local", "container type")
	f.String("dir", "", "directory for a local container")
	f.String("bucket", "", "bucket name (gcs, s3)")
	f.String("container", "", "container name (azure)")
	f.String("account", "", "storage account (azure)")
	f.String("endpoint", "", "service endpoint (s3, azure, gcs)")
	f.String("prefix", "", "prefix for all blob paths")
	f.String("url", "", "base URL of a blob HTTP server")
	f.Bool("secure", false, "use TLS (s3)")
	f.String("credentials", "", "path to a credentials file (gcs)")
	f.BoolP("force", "f", false, "overwrite an existing config")
	Root.AddCommand(cmd)
}

func isType(typ string) bool {
	for _, t := range storage.Types() {
		if t == typ {
			return true
		}
	}
	return false
}
