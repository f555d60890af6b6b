package localfs

import (
	"fmt"

	"github.com/spf13/pflag"

	"xdao.co/collauth/accounts"
	"xdao.co/collauth/accounts/registry"
)

var flagDir string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem account store (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.StringVar(&flagDir, "localfs-dir", "", "Account store directory (for --backend=localfs)")
		},
		Open: func() (accounts.Store, func() error, error) {
			if flagDir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			s, err := New(flagDir)
			return s, nil, err
		},
	})
}
