package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestParseEnvDefaults(t *testing.T) {
	cfg, err := ParseEnv()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7450", cfg.Listen)
	require.Equal(t, DefaultProgramID, cfg.ProgramID)
	require.Empty(t, cfg.AdminListen, "the create-only store is opt-in")
	require.Equal(t, 1024, cfg.JournalLimit)
	require.NoError(t, cfg.Validate())
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("COLLAUTH_LISTEN", ":9000")
	t.Setenv("COLLAUTH_LOG_FORMAT", "console")
	t.Setenv("COLLAUTH_TRUSTED_CALLERS", "true")
	cfg, err := ParseEnv()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Listen)
	require.Equal(t, "console", cfg.LogFormat)
	require.True(t, cfg.TrustedCallers)
}

func TestFileThenFlags(t *testing.T) {
	cfg, err := ParseEnv()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "collauthd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":8000\"\nlog_level: debug\n"), 0o600))
	require.NoError(t, cfg.MergeFile(path))
	require.Equal(t, ":8000", cfg.Listen)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat, "unset file values keep env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--listen", ":8100"}))
	require.Equal(t, ":8100", cfg.Listen)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestValidateRejectsBadProgram(t *testing.T) {
	cfg, err := ParseEnv()
	require.NoError(t, err)
	cfg.ProgramID = "not-base58!"
	require.Error(t, cfg.Validate())
	cfg.ProgramID = "11111111111111111111111111111111"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsSharedAdminListener(t *testing.T) {
	cfg, err := ParseEnv()
	require.NoError(t, err)
	cfg.AdminListen = cfg.Listen
	require.Error(t, cfg.Validate())
	cfg.AdminListen = "127.0.0.1:7452"
	require.NoError(t, cfg.Validate())
	cfg.JournalLimit = 0
	require.Error(t, cfg.Validate())
}
