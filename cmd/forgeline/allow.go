// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/forgeline/forgeline/internal/auth"
	authpg "github.com/forgeline/forgeline/internal/auth/postgres"
	"github.com/forgeline/forgeline/internal/config"
)

const defaultCommandTimeout = 30 * time.Second

// allowConfig holds flags for allow add.
type allowConfig struct {
	email   string
	role    string
	timeout time.Duration
}

// NewAllowCmd creates the allow subcommand.
func NewAllowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allow",
		Short: "Manage the registration allow-list",
	}

	cfg := &allowConfig{}
	add := &cobra.Command{
		Use:   "add",
		Short: "Allow an email address to register",
		Long: `Adds an email address to the registration allow-list with the given
role. Use this to create the first admin of a production database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAllowAdd(cmd, cfg)
		},
	}
	add.Flags().StringVar(&cfg.email, "email", "", "email address to allow")
	add.Flags().StringVar(&cfg.role, "role", string(auth.RoleUser), "role granted on registration (user or admin)")
	add.Flags().DurationVar(&cfg.timeout, "timeout", defaultCommandTimeout, "timeout for database operations")
	_ = add.MarkFlagRequired("email") //nolint:errcheck // flag is registered above
	cmd.AddCommand(add)

	return cmd
}

func runAllowAdd(cmd *cobra.Command, cfg *allowConfig) error {
	return withDatabase(cmd, cfg.timeout, func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
		svc, err := auth.NewAllowListService(authpg.NewAllowListRepository(pool))
		if err != nil {
			return err
		}
		entry, err := svc.Add(ctx, cfg.email, cfg.role)
		if err != nil {
			return oops.Code("ALLOW_ADD_FAILED").With("email", cfg.email).Wrap(err)
		}
		cmd.Printf("Allowed %s as %s\n", entry.Email, entry.Role)
		return nil
	})
}

// withDatabase loads config, connects and runs fn under timeout.
func withDatabase(cmd *cobra.Command, timeout time.Duration, fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	logger, err := setupLogging(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
