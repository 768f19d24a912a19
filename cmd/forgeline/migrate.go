// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/forgeline/forgeline/internal/store"
)

// migrator is the part of *store.Migrator the migrate subcommands drive.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Pending() ([]uint, error)
	Close() error
}

// openMigrator is replaced in tests.
var openMigrator = func(databaseURL string) (migrator, error) {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMigrateCmd creates the migrate subcommand and its children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Apply, revert or inspect the PostgreSQL schema migrations.
Running migrate without a subcommand applies every pending migration.`,
		RunE: runMigrateUp,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrateUp,
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		Long: `Revert the last migration, or --steps migrations. --all reverts
every migration and drops all data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all") //nolint:errcheck // flag is registered below
			return runMigrateDown(cmd, steps, all)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")
	down.Flags().Bool("all", false, "revert every migration")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied version and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrateStatus,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long: `Record VERSION as the applied migration and clear the dirty flag.
Use after repairing a migration that failed part way.`,
		Args: cobra.ExactArgs(1),
		RunE: runMigrateForce,
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(m migrator) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	m, err := openMigrator(cfg.Database.URL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer closeMigrator(cmd, m)
	return fn(m)
}

func closeMigrator(cmd *cobra.Command, m migrator) {
	if err := m.Close(); err != nil {
		cmd.PrintErrf("Warning: closing migrator: %v\n", err)
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m migrator) error {
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
		return printVersion(cmd, m, "Migrations completed successfully")
	})
}

func runMigrateDown(cmd *cobra.Command, steps int, all bool) error {
	if !all && steps < 1 {
		return oops.Code("INVALID_STEPS").Errorf("--steps must be at least 1, got %d", steps)
	}
	return withMigrator(cmd, func(m migrator) error {
		var err error
		if all {
			cmd.Println("Reverting all migrations...")
			err = m.Down()
		} else {
			cmd.Printf("Reverting %d migration(s)...\n", steps)
			err = m.Steps(-steps)
		}
		if err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "revert migrations").Wrap(err)
		}
		return printVersion(cmd, m, "Revert completed successfully")
	})
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m migrator) error {
		if err := printVersion(cmd, m, ""); err != nil {
			return err
		}
		pending, err := m.Pending()
		if err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "list pending").Wrap(err)
		}
		if len(pending) == 0 {
			cmd.Println("Up to date")
			return nil
		}
		cmd.Printf("Pending (%d):\n", len(pending))
		for _, v := range pending {
			cmd.Printf("  %s\n", migrationLabel(v))
		}
		return nil
	})
}

func runMigrateForce(cmd *cobra.Command, args []string) error {
	version, err := parseForceVersion(args[0])
	if err != nil {
		return err
	}
	return withMigrator(cmd, func(m migrator) error {
		if err := m.Force(version); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "force version").Wrap(err)
		}
		cmd.Printf("Forced version %d\n", version)
		return nil
	})
}

// parseForceVersion reads a leading integer from s.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("invalid version %q: must be an integer", s)
	}
	return version, nil
}

func printVersion(cmd *cobra.Command, m migrator, done string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	if done != "" {
		cmd.Println(done)
	}
	label := "none"
	if version > 0 {
		label = migrationLabel(version)
	}
	if dirty {
		label += " (dirty)"
	}
	cmd.Printf("Current version: %s\n", label)
	return nil
}

func migrationLabel(version uint) string {
	name, err := store.MigrationName(version)
	if err != nil || name == "" {
		return fmt.Sprintf("%06d", version)
	}
	return name
}
