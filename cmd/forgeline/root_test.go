// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "migrate", "allow", "seed"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	for _, flag := range []string{"--config", "--env-file", "--env", "--database-url", "--log-format", "--log-level"} {
		assert.Contains(t, out, flag)
	}
}

func TestServeCmd_Flags(t *testing.T) {
	out, err := execute(t, "serve", "--help")
	require.NoError(t, err)

	for _, flag := range []string{"--host", "--port", "--trusted-proxies", "--metrics-addr", "--upload-dir", "--migrate"} {
		assert.Contains(t, out, flag)
	}
}

func TestServeCmd_Properties(t *testing.T) {
	cmd := NewServeCmd()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.RunE)
}

func TestAllowCmd_RequiresEmail(t *testing.T) {
	_, err := execute(t, "allow", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"email" not set`)
}

func TestSeedCmd_RequiresFlags(t *testing.T) {
	_, err := execute(t, "seed", "images")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dir")
	assert.Contains(t, err.Error(), "metadata")
}

func TestLoadConfig_XDGDefaultFile(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "forgeline")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("env: test\nhttp:\n  port: 4321\n"), 0o600))

	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	configFile = ""
	dotEnvFile = ""

	cfg, err := loadConfig(NewServeCmd())
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, 4321, cfg.HTTP.Port)
}
