package storeconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/collauth/accounts"
	_ "xdao.co/collauth/accounts/localfs"
	"xdao.co/collauth/accounts/registry"
	"xdao.co/collauth/accounts/testkit"
)

func TestParseValidates(t *testing.T) {
	_, err := Parse([]byte("backends: []"))
	require.Error(t, err)

	_, err = Parse([]byte("write_policy: sometimes\nbackends:\n  - name: memory\n"))
	require.ErrorContains(t, err, "write_policy")

	_, err = Parse([]byte("backends:\n  - name: memory\n  - name: memory\n"))
	require.ErrorContains(t, err, "duplicate")

	cfg, err := Parse([]byte(`{"write_policy":"all","backends":[{"name":"memory"},{"name":"memory","id":"second"}]}`))
	require.NoError(t, err)
	require.Equal(t, "all", cfg.WritePolicy)
	require.Len(t, cfg.Backends, 2)
}

func TestOpenSingleBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	body := "backends:\n  - name: localfs\n    config:\n      localfs-dir: " + filepath.Join(dir, "accts") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	s, closeFn, err := cfg.Open(registry.UsageDaemon)
	require.NoError(t, err)
	defer closeFn()

	ctx := context.Background()
	acct := accounts.Account{Address: testkit.Key(1), Owner: testkit.Key(2), Data: []byte("x")}
	require.NoError(t, s.Put(ctx, acct))
	require.DirExists(t, filepath.Join(dir, "accts"))
}

func TestOpenMultiplePolicies(t *testing.T) {
	cfg := Config{Backends: []BackendConfig{{Name: "memory"}, {Name: "memory", ID: "b"}}}
	s, _, err := cfg.Open(registry.UsageDaemon)
	require.NoError(t, err)
	require.IsType(t, accounts.Fallback{}, s)

	cfg.WritePolicy = "all"
	s, _, err = cfg.Open(registry.UsageDaemon)
	require.NoError(t, err)
	require.IsType(t, accounts.Replicating{}, s)
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := Config{Backends: []BackendConfig{{Name: "tape"}}}
	_, _, err := cfg.Open(registry.UsageDaemon)
	require.ErrorContains(t, err, "unknown backend")
}
