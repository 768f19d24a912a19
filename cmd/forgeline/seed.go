// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/forgeline/forgeline/internal/config"
	"github.com/forgeline/forgeline/internal/content"
	contentpg "github.com/forgeline/forgeline/internal/content/postgres"
)

const defaultSeedTimeout = 2 * time.Minute

// seedConfig holds flags for seed images.
type seedConfig struct {
	dir      string
	metadata string
	timeout  time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with initial content",
	}

	cfg := &seedConfig{}
	images := &cobra.Command{
		Use:   "images",
		Short: "Replace the gallery with the images in a directory",
		Long: `Stores every .jpg/.jpeg file in --dir that has an entry in the
--metadata YAML file and replaces the gallery with them. Files without
metadata are skipped. The metadata file maps file names to a category
and a description.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedImages(cmd, cfg)
		},
	}
	images.Flags().StringVar(&cfg.dir, "dir", "", "directory containing seed images")
	images.Flags().StringVar(&cfg.metadata, "metadata", "", "YAML file describing each image")
	images.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for the whole run")
	_ = images.MarkFlagRequired("dir")      //nolint:errcheck // flag is registered above
	_ = images.MarkFlagRequired("metadata") //nolint:errcheck // flag is registered above
	cmd.AddCommand(images)

	return cmd
}

func runSeedImages(cmd *cobra.Command, cfg *seedConfig) error {
	meta, err := readSeedMetadata(cfg.metadata)
	if err != nil {
		return err
	}

	return withDatabase(cmd, cfg.timeout, func(ctx context.Context, appCfg *config.Config, pool *pgxpool.Pool) error {
		objects, _, err := openStorage(ctx, appCfg)
		if err != nil {
			return err
		}
		gallery, err := content.NewGalleryService(contentpg.NewImageRepository(pool), objects)
		if err != nil {
			return err
		}

		cmd.Printf("Seeding gallery from %s...\n", cfg.dir)
		report, err := gallery.SeedFromDir(ctx, cfg.dir, meta)
		if err != nil {
			return oops.Code("SEED_FAILED").With("dir", cfg.dir).Wrap(err)
		}
		for _, name := range report.Skipped {
			cmd.Printf("Skipped %s: no metadata\n", name)
		}
		cmd.Printf("Seeded %d image(s)\n", report.Seeded)
		return nil
	})
}

func readSeedMetadata(path string) (map[string]content.SeedMeta, error) {
	f, err := os.Open(path) //nolint:gosec // path is an operator-supplied flag
	if err != nil {
		return nil, oops.Code("SEED_METADATA_INVALID").With("file", path).Wrap(err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file
	return content.ParseSeedMetadata(f)
}
