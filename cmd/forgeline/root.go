// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/forgeline/forgeline/internal/config"
	"github.com/forgeline/forgeline/internal/logging"
	"github.com/forgeline/forgeline/internal/xdg"
)

const serviceName = "forgeline"

// Global flags available to all subcommands.
var (
	configFile string
	dotEnvFile string
)

// NewRootCmd creates the root command for the forgeline CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forgeline",
		Short: "Forgeline - business site with an admin-gated content manager",
		Long: `Forgeline serves the public site, the contact form and gallery,
and the admin dashboard for gallery images, contact submissions and the
registration allow-list.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path (YAML)")
	flags.StringVar(&dotEnvFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	flags.String("env", "", "environment: production, development or test")
	flags.String("database-url", "", "PostgreSQL connection string")
	flags.String("log-format", "", "log format (json or text)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAllowCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}

// loadConfig resolves the configuration for cmd, including its flags.
// Without --config, $XDG_CONFIG_HOME/forgeline/config.yaml is used if present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file := configFile
	if file == "" {
		var err error
		if file, err = xdg.DefaultConfigFile(); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("layer", "file").Wrap(err)
		}
	}
	return config.Load(config.LoadOptions{
		ConfigFile: file,
		DotEnvFile: dotEnvFile,
		Flags:      cmd.Flags(),
	})
}

// setupLogging installs the default logger described by cfg.
func setupLogging(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	}), nil
}
