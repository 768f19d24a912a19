// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package content

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// SeedMeta describes one seed image file.
type SeedMeta struct {
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// ParseSeedMetadata reads a YAML mapping of file name to SeedMeta.
func ParseSeedMetadata(r io.Reader) (map[string]SeedMeta, error) {
	meta := make(map[string]SeedMeta)
	if err := yaml.NewDecoder(r).Decode(&meta); err != nil && err != io.EOF {
		return nil, oops.Code("SEED_METADATA_INVALID").Wrap(err)
	}
	for name, m := range meta {
		if _, err := ParseCategory(m.Category); err != nil {
			return nil, oops.Code("SEED_METADATA_INVALID").With("file", name).Wrap(err)
		}
		if strings.TrimSpace(m.Description) == "" {
			return nil, oops.Code("SEED_METADATA_INVALID").
				With("file", name).
				Errorf("description is required")
		}
	}
	return meta, nil
}

// SeedReport summarizes a seeding run.
type SeedReport struct {
	Seeded  int
	Skipped []string
}

// SeedFromDir stores every .jpg/.jpeg file in dir that has metadata and then
// replaces the gallery with them. Files without metadata are skipped.
func (s *GalleryService) SeedFromDir(ctx context.Context, dir string, meta map[string]SeedMeta) (*SeedReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.Code("SEED_READ_DIR_FAILED").With("dir", dir).Wrap(err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".jpg" && ext != ".jpeg") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	report := &SeedReport{}
	images := make([]*Image, 0, len(names))
	now := s.now().UTC()
	for _, name := range names {
		m, ok := meta[name]
		if !ok {
			s.logger.WarnContext(ctx, "no metadata for seed image, skipping", "file", name)
			report.Skipped = append(report.Skipped, name)
			continue
		}
		path, err := s.storeSeedFile(ctx, filepath.Join(dir, name), name)
		if err != nil {
			return nil, err
		}
		images = append(images, &Image{
			ID:          ulid.Make(),
			Filename:    name,
			Description: strings.TrimSpace(m.Description),
			Category:    Category(m.Category),
			Path:        path,
			UploadedAt:  now,
		})
	}

	if err := s.repo.ReplaceAll(ctx, images); err != nil {
		return nil, oops.Code("SEED_REPLACE_FAILED").Wrap(err)
	}
	report.Seeded = len(images)
	s.logger.InfoContext(ctx, "gallery seeded", "seeded", report.Seeded, "skipped", len(report.Skipped))
	return report, nil
}

func (s *GalleryService) storeSeedFile(ctx context.Context, path, key string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied seed directory
	if err != nil {
		return "", oops.Code("SEED_OPEN_FAILED").With("file", path).Wrap(err)
	}
	defer f.Close() //nolint:errcheck // read-only

	size := int64(-1)
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	public, err := s.objects.Put(ctx, key, contentType, f, size)
	if err != nil {
		return "", oops.Code("SEED_STORE_FAILED").With("file", path).Wrap(err)
	}
	return public, nil
}
