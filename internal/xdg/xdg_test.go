// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDir(t *testing.T) {
	t.Run("XDG_CONFIG_HOME wins", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		got, err := ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/custom/config/forgeline", got)
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", "/home/testuser")
		got, err := ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/testuser/.config/forgeline", got)
	})
}

func TestDefaultConfigFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		got, err := DefaultConfigFile()
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("existing file", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", base)
		dir := filepath.Join(base, "forgeline")
		require.NoError(t, os.MkdirAll(dir, 0o700))
		want := filepath.Join(dir, ConfigFileName)
		require.NoError(t, os.WriteFile(want, []byte("env: test\n"), 0o600))

		got, err := DefaultConfigFile()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("directory in the way", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", base)
		require.NoError(t, os.MkdirAll(filepath.Join(base, "forgeline", ConfigFileName), 0o700))

		_, err := DefaultConfigFile()
		assert.Error(t, err)
	})
}
