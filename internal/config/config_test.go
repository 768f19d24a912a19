// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forgeline/pkg/errutil"
)

// clearEnv unsets every recognized variable for the test. Setenv first so
// the original values come back afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for name := range envKeys {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "forgeline.sid", cfg.Session.CookieName)
	assert.Equal(t, int64(10<<20), cfg.Uploads.MaxBytes)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.GeneratedSecret)
	assert.Len(t, cfg.Session.Secret, 2*MinSessionSecretBytes)
	assert.True(t, cfg.Ephemeral())
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoad_Layering(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "forgeline.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
http:
  port: 4000
  request_timeout: 5s
session:
  ttl: 2h
log:
  level: debug
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("PORT=5000\nTEST_EMAIL=Admin@Example.com\n"), 0o600))

	t.Setenv("LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--port=6000"}))

	cfg, err := Load(LoadOptions{ConfigFile: yamlPath, DotEnvFile: envPath, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.HTTP.Port, "flag beats .env and file")
	assert.Equal(t, "warn", cfg.Log.Level, "env beats file; unset flag keeps env")
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "Admin@Example.com", cfg.Auth.TestEmail)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(LoadOptions{DotEnvFile: filepath.Join(t.TempDir(), ".env")})
	require.NoError(t, err)
}

func TestLoad_MissingConfigFileFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_Production(t *testing.T) {
	t.Run("requires database and secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")

		_, err := Load(LoadOptions{})
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		assert.Contains(t, err.Error(), "database.url is required")
		assert.Contains(t, err.Error(), "session.secret is required")
	})

	t.Run("short secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("DATABASE_URL", "postgres://forgeline@db/forgeline")
		t.Setenv("SESSION_SECRET", "too-short")

		_, err := Load(LoadOptions{})
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		assert.Contains(t, err.Error(), "session.secret must be at least 32 bytes in production")
	})

	t.Run("valid", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("DATABASE_URL", "postgres://forgeline@db/forgeline")
		t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))

		cfg, err := Load(LoadOptions{})
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
		assert.False(t, cfg.Ephemeral())
		assert.False(t, cfg.GeneratedSecret)
		assert.Equal(t, "json", cfg.Log.Format)
	})
}

func TestLoad_ShortSecretOutsideProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "dev-secret")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "dev-secret", cfg.Session.Secret)
	assert.False(t, cfg.GeneratedSecret)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Run("env list", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, 192.168.0.0/16 ,,")

		cfg, err := Load(LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.HTTP.TrustedProxies)
	})

	t.Run("flag beats env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TRUSTED_PROXIES", "10.0.0.1")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.StringSlice("trusted-proxies", nil, "")
		require.NoError(t, flags.Parse([]string{"--trusted-proxies=172.16.0.0/12,::1"}))

		cfg, err := Load(LoadOptions{Flags: flags})
		require.NoError(t, err)
		assert.Equal(t, []string{"172.16.0.0/12", "::1"}, cfg.HTTP.TrustedProxies)
	})

	t.Run("defaults to none", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(LoadOptions{})
		require.NoError(t, err)
		assert.Empty(t, cfg.HTTP.TrustedProxies)
	})
}

func TestLoad_TestModeSilencesLogs(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:     EnvDevelopment,
			HTTP:    HTTPConfig{Port: 3000},
			Session: SessionConfig{Secret: strings.Repeat("x", 32), TTL: time.Hour, SweepInterval: time.Minute, CookieName: "sid"},
			Uploads: UploadsConfig{Backend: UploadsFS, Dir: "uploads", MaxBytes: 1},
			Log:     LogConfig{Format: "json"},
		}
	}
	require.NoError(t, base().Validate())

	short := base()
	short.Session.Secret = "x"
	require.NoError(t, short.Validate(), "short secrets are accepted outside production")

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"env", func(c *Config) { c.Env = "staging" }, "env must be one of"},
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"proxy", func(c *Config) { c.HTTP.TrustedProxies = []string{"10.0.0.1", "gateway"} }, `"gateway" is not an IP or CIDR`},
		{"no secret", func(c *Config) { c.Session.Secret = "" }, "session.secret is required"},
		{"short production secret", func(c *Config) { c.Env = EnvProduction; c.Database.URL = "postgres://db"; c.Session.Secret = "x" }, "at least 32 bytes"},
		{"ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"backend", func(c *Config) { c.Uploads.Backend = "ftp" }, "uploads.backend"},
		{"s3 bucket", func(c *Config) { c.Uploads.Backend = UploadsS3 }, "uploads.s3.bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
