package sqlite

import (
	"fmt"

	"github.com/spf13/pflag"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/registry"
)

var flagPath string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "sqlite",
		Description: "SQLite account store (single file)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.StringVar(&flagPath, "sqlite-path", "", "SQLite database file (for --backend=sqlite)")
		},
		Open: func() (accounts.Store, func() error, error) {
			if flagPath == "" {
				return nil, nil, fmt.Errorf("missing --sqlite-path")
			}
			s, err := Open(flagPath)
			if err != nil {
				return nil, nil, err
			}
			return s, s.Close, nil
		},
	})
}
