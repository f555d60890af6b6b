// Package storeconfig opens one or more account store backends from a config file.
package storeconfig

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/registry"
)

// Config describes how to open one or more account stores via registry.
//
// Callers still need to link desired backend plugins via blank imports.
//
// WritePolicy values:
// - "first" (default): write only to the first backend; reads fall back in order
// - "all": write to every backend (see accounts.Replicating)
//
// Example (YAML; JSON is accepted too):
//
//	write_policy: all
//	backends:
//	  - name: sqlite
//	    config: {sqlite-path: /var/lib/collauth/accounts.db}
//	  - name: localfs
//	    id: mirror
//	    config: {localfs-dir: /var/lib/collauth/mirror}
type Config struct {
	WritePolicy string          `yaml:"write_policy,omitempty" json:"write_policy,omitempty"`
	Backends    []BackendConfig `yaml:"backends" json:"backends"`
}

type BackendConfig struct {
	// Name is the registry backend name to open (e.g. "memory", "localfs", "sqlite", "grpc").
	Name string `yaml:"name" json:"name"`
	// ID is an optional stable alias used in error messages. If empty, Name is used.
	ID     string            `yaml:"id,omitempty" json:"id,omitempty"`
	Config map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("storeconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("storeconfig: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("storeconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("storeconfig: backend name is required")
		}
		id := b.id()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("storeconfig: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("storeconfig: invalid write_policy %q", c.WritePolicy)
	}
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// Open opens a store per config.
func (c Config) Open(usage registry.Usage) (accounts.Store, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	named := make([]accounts.NamedStore, 0, len(c.Backends))
	closers := make([]func() error, 0, len(c.Backends))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, b := range c.Backends {
		s, closeFn, err := registry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("storeconfig: backend %q: %w", b.id(), err)
		}
		named = append(named, accounts.NamedStore{Name: b.id(), Store: s})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].Store, closeAll, nil
	}

	switch c.WritePolicy {
	case "", "first":
		stores := make([]accounts.Store, 0, len(named))
		for _, n := range named {
			stores = append(stores, n.Store)
		}
		return accounts.Fallback{Stores: stores}, closeAll, nil
	case "all":
		return accounts.Replicating{Backends: named}, closeAll, nil
	default:
		return nil, nil, fmt.Errorf("storeconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// OpenFileOrBackend opens the config at path when path is set, otherwise the
// named registry backend configured by its command-line flags.
func OpenFileOrBackend(path, backend string, usage registry.Usage) (accounts.Store, func() error, error) {
	if path == "" {
		return registry.Open(backend, usage)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Open(usage)
}
