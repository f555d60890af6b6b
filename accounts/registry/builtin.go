package registry

import (
	"github.com/spf13/pflag"

	"xdao.co/collauth/accounts"
)

func init() {
	MustRegister(Backend{
		Name:          "memory",
		Description:   "In-process account store (lost on exit)",
		Usage:         UsageCLI | UsageDaemon,
		RegisterFlags: func(*pflag.FlagSet) {},
		Open: func() (accounts.Store, func() error, error) {
			return accounts.NewMemory(), nil, nil
		},
	})
}
