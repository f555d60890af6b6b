// Package config holds the collauthd daemon configuration.
//
// Values come from the environment first (COLLAUTH_*), then from an optional
// YAML file, then from command-line flags; later sources win.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultProgramID is the gateway program id used when none is configured.
const DefaultProgramID = "CAuthGateway1111111111111111111111111111111"

type Config struct {
	Listen        string `env:"COLLAUTH_LISTEN"         envDefault:"127.0.0.1:7450"  yaml:"listen"`
	MetricsListen string `env:"COLLAUTH_METRICS_LISTEN" envDefault:"127.0.0.1:7451"  yaml:"metrics_listen"`
	ProgramID     string `env:"COLLAUTH_PROGRAM_ID"     envDefault:"CAuthGateway1111111111111111111111111111111" yaml:"program_id"`
	StoreConfig   string `env:"COLLAUTH_STORE_CONFIG"   yaml:"store_config"`
	LogLevel      string `env:"COLLAUTH_LOG_LEVEL"      envDefault:"info"            yaml:"log_level"`
	LogFormat     string `env:"COLLAUTH_LOG_FORMAT"     envDefault:"json"            yaml:"log_format"`
	// AdminListen serves a create-only account store for init-collection over
	// the grpc backend. Keep it on a private interface.
	AdminListen  string `env:"COLLAUTH_ADMIN_LISTEN"  yaml:"admin_listen"`
	JournalLimit int    `env:"COLLAUTH_JOURNAL_LIMIT" envDefault:"1024" yaml:"journal_limit"`
	// TrustedCallers disables transaction signature checks. Tests only.
	TrustedCallers bool `env:"COLLAUTH_TRUSTED_CALLERS" yaml:"trusted_callers"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// MergeFile overlays the non-empty values of a YAML file onto cfg.
func (cfg *Config) MergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file Config
	if err := yaml.Unmarshal(b, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	overlay(&cfg.Listen, file.Listen)
	overlay(&cfg.MetricsListen, file.MetricsListen)
	overlay(&cfg.ProgramID, file.ProgramID)
	overlay(&cfg.StoreConfig, file.StoreConfig)
	overlay(&cfg.LogLevel, file.LogLevel)
	overlay(&cfg.LogFormat, file.LogFormat)
	overlay(&cfg.AdminListen, file.AdminListen)
	if file.JournalLimit > 0 {
		cfg.JournalLimit = file.JournalLimit
	}
	cfg.TrustedCallers = cfg.TrustedCallers || file.TrustedCallers
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// RegisterFlags binds cfg's fields to fs; parsed flags override env and file.
func (cfg *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "gRPC listen address")
	fs.StringVar(&cfg.MetricsListen, "metrics-listen", cfg.MetricsListen, "Prometheus /metrics listen address (empty disables)")
	fs.StringVar(&cfg.ProgramID, "program-id", cfg.ProgramID, "gateway program id (base58)")
	fs.StringVar(&cfg.StoreConfig, "store-config", cfg.StoreConfig, "account store config file (YAML or JSON)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "json|console")
	fs.StringVar(&cfg.AdminListen, "admin-listen", cfg.AdminListen, "create-only account store listen address (empty disables)")
	fs.IntVar(&cfg.JournalLimit, "journal-limit", cfg.JournalLimit, "number of recent delegated calls kept in memory")
}

// Program returns the parsed program id.
func (cfg Config) Program() (solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("program id: %w", err)
	}
	if id.IsZero() {
		return solana.PublicKey{}, errors.New("program id: must not be zero")
	}
	return id, nil
}

func (cfg Config) Validate() error {
	if cfg.Listen == "" {
		return errors.New("listen address is required")
	}
	if cfg.AdminListen != "" && cfg.AdminListen == cfg.Listen {
		return errors.New("admin listen address must differ from the gateway listen address")
	}
	if cfg.JournalLimit <= 0 {
		return fmt.Errorf("journal limit must be positive, got %d", cfg.JournalLimit)
	}
	_, err := cfg.Program()
	return err
}
