package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config is a set of settings for all supported containers.
// Only fields relevant to a given Type are used.
type Config struct {
	// Type selects the container implementation.
	Type string `toml:"type"`

	Bucket    string `toml:"bucket,omitempty"`
	Container string `toml:"container,omitempty"`
	Account   string `toml:"account,omitempty"`
	Endpoint  string `toml:"endpoint,omitempty"`
	Prefix    string `toml:"prefix,omitempty"`
	Dir       string `toml:"dir,omitempty"`
	URL       string `toml:"url,omitempty"`
	Secure    bool   `toml:"secure,omitempty"`

	// Credentials is a path to a credentials file (GCS).
	Credentials string `toml:"credentials,omitempty"`

	// Secrets are read from the environment and are never written to a file.
	AccessKey        string `toml:"-"`
	SecretKey        string `toml:"-"`
	ConnectionString string `toml:"-"`
}

// OpenFunc creates a container from a config.
type OpenFunc func(ctx context.Context, conf Config) (Container, error)

var (
	regMu    sync.RWMutex
	registry = make(map[string]OpenFunc)
)

// Register registers a new container type.
func Register(typ string, fn OpenFunc) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, ok := registry[typ]; ok {
		panic(fmt.Errorf("storage type %q is already registered", typ))
	}
	registry[typ] = fn
}

// Types returns all registered container types.
func Types() []string {
	regMu.RLock()
	out := make([]string, 0, len(registry))
	for typ := range registry {
		out = append(out, typ)
	}
	regMu.RUnlock()
	sort.Strings(out)
	return out
}

// Open uses the config to make a new container implementation.
func Open(ctx context.Context, conf Config) (Container, error) {
	regMu.RLock()
	fn, ok := registry[conf.Type]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %q", conf.Type)
	}
	return fn(ctx, conf)
}
