package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	gax "github.com/googleapis/gax-go/v2"
	"github.com/joho/godotenv"
	"github.com/naoina/toml"

	"github.com/dennwc/blobsource"
	"github.com/dennwc/blobsource/storage"
)

const (
	DefaultConfigExt = ".toml"
	DefaultConfig    = "blobsource" + DefaultConfigExt
)

// Environment variables with container secrets.
const (
	EnvS3AccessKey     = "BLOBSOURCE_S3_ACCESS_KEY"
	EnvS3SecretKey     = "BLOBSOURCE_S3_SECRET_KEY"
	EnvAzureConnString = "AZURE_STORAGE_CONNECTION_STRING"
	EnvAzureStorageKey = "AZURE_STORAGE_KEY"
)

const (
	defaultInitialBackoff = 100 // ms
	defaultMaxBackoff     = 5000
	defaultMultiplier     = 2
)

// Config stores all configuration of a blob source.
type Config struct {
	// Storage is a config for a container that blobs are read from.
	Storage storage.Config `toml:"storage"`
	// Retry controls how failed opens are retried.
	Retry RetryConfig `toml:"retry"`
}

type RetryConfig struct {
	Attempts         int     `toml:"attempts"`
	InitialBackoffMs int     `toml:"initial_backoff_ms"`
	MaxBackoffMs     int     `toml:"max_backoff_ms"`
	Multiplier       float64 `toml:"multiplier"`
}

// Default returns a config with default retry settings and no storage.
func Default() *Config {
	return &Config{
		Retry: RetryConfig{
			Attempts:         blobsource.DefaultAttempts,
			InitialBackoffMs: defaultInitialBackoff,
			MaxBackoffMs:     defaultMaxBackoff,
			Multiplier:       defaultMultiplier,
		},
	}
}

// Retrier builds a Retrier from the settings. Zero values are replaced with defaults.
func (c RetryConfig) Retrier() *blobsource.Retrier {
	def := Default().Retry
	if c.Attempts <= 0 {
		c.Attempts = def.Attempts
	}
	if c.InitialBackoffMs <= 0 {
		c.InitialBackoffMs = def.InitialBackoffMs
	}
	if c.MaxBackoffMs <= 0 {
		c.MaxBackoffMs = def.MaxBackoffMs
	}
	if c.Multiplier < 1 {
		c.Multiplier = def.Multiplier
	}
	return &blobsource.Retrier{
		Attempts: c.Attempts,
		Backoff: gax.Backoff{
			Initial:    time.Duration(c.InitialBackoffMs) * time.Millisecond,
			Max:        time.Duration(c.MaxBackoffMs) * time.Millisecond,
			Multiplier: c.Multiplier,
		},
	}
}

// configPath adds a name of default config if the specified path ends with a separator.
// It will also guess a file extension if it was not specified.
func configPath(path string) string {
	if path == "" || strings.HasSuffix(path, string(filepath.Separator)) {
		path += DefaultConfig
	} else if filepath.Ext(path) == "" {
		path += DefaultConfigExt
	}
	return path
}

// Load reads a config file from a given path.
//
// Secrets are never stored in the file. They are read from the environment,
// and from an optional .env file next to the config.
func Load(path string) (*Config, error) {
	path = configPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := Default()
	if err = toml.Unmarshal(data, conf); err != nil {
		return nil, err
	}
	err = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	applyEnv(&conf.Storage)
	return conf, nil
}

// Write writes a config file to a given path.
func Write(path string, conf *Config) error {
	path = configPath(path)
	data, err := toml.Marshal(*conf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func applyEnv(c *storage.Config) {
	if v := os.Getenv(EnvS3AccessKey); v != "" {
		c.AccessKey = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv(EnvAzureConnString); v != "" {
		c.ConnectionString = v
	}
	if v := os.Getenv(EnvAzureStorageKey); v != "" && c.Type == "azure" {
		c.SecretKey = v
	}
}
