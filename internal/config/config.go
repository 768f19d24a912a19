// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package config loads forgeline configuration from defaults, an optional
// YAML file, .env and the environment, and command-line flags, in that
// order of precedence (later wins).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment modes.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// Upload backends.
const (
	UploadsFS = "fs"
	UploadsS3 = "s3"
)

// MinSessionSecretBytes is the shortest session secret accepted in production.
const MinSessionSecretBytes = 32

// Config is the full runtime configuration.
type Config struct {
	Env      string         `koanf:"env"`
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Uploads  UploadsConfig  `koanf:"uploads"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`

	// GeneratedSecret is set when no session secret was configured outside
	// production and a random one was generated.
	GeneratedSecret bool `koanf:"-"`
}

// HTTPConfig configures the site listener.
type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers name the client. Empty trusts none.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// SessionConfig configures session cookies and lifetime.
type SessionConfig struct {
	Secret        string        `koanf:"secret"`
	TTL           time.Duration `koanf:"ttl"`
	CookieName    string        `koanf:"cookie_name"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// AuthConfig configures registration bootstrap and login throttling.
type AuthConfig struct {
	TestEmail  string  `koanf:"test_email"`
	LoginRate  float64 `koanf:"login_rate"`
	LoginBurst int     `koanf:"login_burst"`
}

// UploadsConfig configures image storage.
type UploadsConfig struct {
	Backend   string   `koanf:"backend"`
	Dir       string   `koanf:"dir"`
	URLPrefix string   `koanf:"url_prefix"`
	MaxBytes  int64    `koanf:"max_bytes"`
	S3        S3Config `koanf:"s3"`
}

// S3Config configures the S3 upload backend.
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PublicURL string `koanf:"public_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig configures the observability listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// IsProduction reports whether Env is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Ephemeral reports whether the in-memory stores are used.
func (c *Config) Ephemeral() bool {
	return c.Env == EnvDevelopment || c.Env == EnvTest
}

// Addr returns the site listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}

func defaults() map[string]any {
	return map[string]any{
		"env":                     EnvDevelopment,
		"http.host":               "",
		"http.port":               3000,
		"http.request_timeout":    "30s",
		"database.connect_timeout": "30s",
		"session.ttl":             "24h",
		"session.cookie_name":     "forgeline.sid",
		"session.sweep_interval":  "10m",
		"auth.login_rate":         0.2,
		"auth.login_burst":        5,
		"uploads.backend":         UploadsFS,
		"uploads.dir":             "public/uploads",
		"uploads.url_prefix":      "/uploads",
		"uploads.max_bytes":       10 << 20,
		"uploads.s3.region":       "us-east-1",
		"log.level":               "info",
		"metrics.addr":            "",
	}
}

// envKeys maps recognized environment variables to config keys.
var envKeys = map[string]string{
	"APP_ENV":         "env",
	"PORT":            "http.port",
	"TRUSTED_PROXIES": "http.trusted_proxies",
	"DATABASE_URL":    "database.url",
	"SESSION_SECRET":  "session.secret",
	"TEST_EMAIL":      "auth.test_email",
	"LOG_FORMAT":      "log.format",
	"LOG_LEVEL":       "log.level",
	"METRICS_ADDR":    "metrics.addr",
	"UPLOAD_BACKEND":  "uploads.backend",
	"UPLOAD_DIR":      "uploads.dir",
	"S3_BUCKET":       "uploads.s3.bucket",
	"S3_REGION":       "uploads.s3.region",
	"S3_ENDPOINT":     "uploads.s3.endpoint",
	"S3_ACCESS_KEY":   "uploads.s3.access_key",
	"S3_SECRET_KEY":   "uploads.s3.secret_key",
	"S3_PUBLIC_URL":   "uploads.s3.public_url",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"env":             "env",
	"host":            "http.host",
	"port":            "http.port",
	"trusted-proxies": "http.trusted_proxies",
	"database-url":    "database.url",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"metrics-addr":    "metrics.addr",
	"upload-dir":      "uploads.dir",
}

// LoadOptions selects the optional sources.
type LoadOptions struct {
	// ConfigFile is a YAML file. Empty skips the file layer.
	ConfigFile string
	// DotEnvFile is loaded into the process environment if it exists.
	// Variables already set are not overridden.
	DotEnvFile string
	// Flags contributes the flags named in flagKeys.
	Flags *pflag.FlagSet
}

// Load builds and validates a Config.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "defaults").Wrap(err)
	}

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("layer", "file").
				With("path", opts.ConfigFile).
				Wrap(err)
		}
	}

	if opts.DotEnvFile != "" {
		if err := godotenv.Load(opts.DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("layer", "dotenv").
				With("path", opts.DotEnvFile).
				Wrap(err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		key, ok := envKeys[name]
		if !ok || value == "" {
			return "", nil
		}
		if key == "http.trusted_proxies" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "env").Wrap(err)
	}

	if opts.Flags != nil {
		flagProvider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize fills derived values.
func (c *Config) finalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Log.Format == "" {
		c.Log.Format = "json"
		if !c.IsProduction() {
			c.Log.Format = "text"
		}
	}
	if c.Env == EnvTest {
		c.Log.Level = "error"
	}
	if c.Session.Secret == "" && !c.IsProduction() {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		c.Session.Secret = secret
		c.GeneratedSecret = true
	}
	return nil
}

// Validate checks the configuration for the selected environment.
func (c *Config) Validate() error {
	var problems []string
	switch c.Env {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		problems = append(problems, "env must be one of production, development or test")
	}
	if c.IsProduction() && c.Database.URL == "" {
		problems = append(problems, "database.url is required in production")
	}
	switch {
	case c.Session.Secret == "":
		problems = append(problems, "session.secret is required")
	case c.IsProduction() && len(c.Session.Secret) < MinSessionSecretBytes:
		problems = append(problems, "session.secret must be at least 32 bytes in production")
	}
	for _, proxy := range c.HTTP.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				problems = append(problems, "http.trusted_proxies entry "+strconv.Quote(proxy)+" is not an IP or CIDR")
			}
		}
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be between 0 and 65535")
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, "session.ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		problems = append(problems, "session.sweep_interval must be positive")
	}
	if c.Session.CookieName == "" {
		problems = append(problems, "session.cookie_name is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		problems = append(problems, "log.format must be json or text")
	}
	if c.Uploads.MaxBytes <= 0 {
		problems = append(problems, "uploads.max_bytes must be positive")
	}
	switch c.Uploads.Backend {
	case UploadsFS:
		if c.Uploads.Dir == "" {
			problems = append(problems, "uploads.dir is required for the fs backend")
		}
	case UploadsS3:
		if c.Uploads.S3.Bucket == "" || c.Uploads.S3.PublicURL == "" {
			problems = append(problems, "uploads.s3.bucket and uploads.s3.public_url are required for the s3 backend")
		}
	default:
		problems = append(problems, "uploads.backend must be fs or s3")
	}

	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// splitList parses a comma-separated list, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func randomSecret() (string, error) {
	buf := make([]byte, MinSessionSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("CONFIG_SECRET_FAILED").Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}
