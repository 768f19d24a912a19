// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/content"
	"github.com/forgeline/forgeline/internal/store"
)

const imageColumns = `id, filename, description, category, path, uploaded_at`

// ImageRepository implements content.ImageRepository.
type ImageRepository struct {
	pool store.Pool
}

var _ content.ImageRepository = (*ImageRepository)(nil)

// NewImageRepository creates an ImageRepository.
func NewImageRepository(pool store.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

// Create inserts img.
func (r *ImageRepository) Create(ctx context.Context, img *content.Image) error {
	err := insertImage(ctx, r.pool, img)
	if store.IsUniqueViolation(err) {
		return oops.Code("IMAGE_DUPLICATE").With("filename", img.Filename).Wrap(apperr.ErrDuplicateKey)
	}
	if err != nil {
		return oops.Code("IMAGE_CREATE_FAILED").With("filename", img.Filename).Wrap(err)
	}
	return nil
}

// GetByID returns the image with id.
func (r *ImageRepository) GetByID(ctx context.Context, id ulid.ULID) (*content.Image, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM gallery_images WHERE id = $1`, id.String())
	img, err := scanImage(row)
	if store.IsNoRows(err) {
		return nil, oops.Code("IMAGE_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IMAGE_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return img, nil
}

// List returns images newest first, optionally restricted to category.
func (r *ImageRepository) List(ctx context.Context, category content.Category) ([]*content.Image, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if category == "" {
		rows, err = r.pool.Query(ctx, `
			SELECT `+imageColumns+` FROM gallery_images ORDER BY uploaded_at DESC, id DESC`)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+imageColumns+` FROM gallery_images WHERE category = $1
			ORDER BY uploaded_at DESC, id DESC`, string(category))
	}
	if err != nil {
		return nil, oops.Code("IMAGE_LIST_FAILED").With("category", string(category)).Wrap(err)
	}
	defer rows.Close()

	images := make([]*content.Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, oops.Code("IMAGE_LIST_FAILED").With("operation", "scan").Wrap(err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("IMAGE_LIST_FAILED").With("operation", "iterate").Wrap(err)
	}
	return images, nil
}

// Update applies patch and returns the updated row.
func (r *ImageRepository) Update(ctx context.Context, id ulid.ULID, patch content.ImagePatch) (*content.Image, error) {
	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE gallery_images
		SET description = COALESCE($2, description), category = COALESCE($3, category)
		WHERE id = $1
		RETURNING `+imageColumns, id.String(), patch.Description, category)

	img, err := scanImage(row)
	if store.IsNoRows(err) {
		return nil, oops.Code("IMAGE_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IMAGE_UPDATE_FAILED").With("id", id.String()).Wrap(err)
	}
	return img, nil
}

// Delete removes the image with id.
func (r *ImageRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gallery_images WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("IMAGE_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("IMAGE_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	return nil
}

// ReplaceAll swaps the gallery inside one transaction.
func (r *ImageRepository) ReplaceAll(ctx context.Context, images []*content.Image) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("IMAGE_REPLACE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM gallery_images`); err != nil {
		return oops.Code("IMAGE_REPLACE_FAILED").With("operation", "clear").Wrap(err)
	}
	for _, img := range images {
		err := insertImage(ctx, tx, img)
		if store.IsUniqueViolation(err) {
			return oops.Code("IMAGE_DUPLICATE").With("filename", img.Filename).Wrap(apperr.ErrDuplicateKey)
		}
		if err != nil {
			return oops.Code("IMAGE_REPLACE_FAILED").With("filename", img.Filename).Wrap(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("IMAGE_REPLACE_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertImage(ctx context.Context, db execer, img *content.Image) error {
	_, err := db.Exec(ctx, `
		INSERT INTO gallery_images (`+imageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, img.ID.String(), img.Filename, img.Description, string(img.Category), img.Path, img.UploadedAt)
	return err //nolint:wrapcheck // callers classify
}

func scanImage(row pgx.Row) (*content.Image, error) {
	var (
		img      content.Image
		idStr    string
		category string
	)
	if err := row.Scan(&idStr, &img.Filename, &img.Description, &category, &img.Path, &img.UploadedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("IMAGE_INVALID_ID").With("id", idStr).Wrap(err)
	}
	img.ID = id
	img.Category = content.Category(category)
	return &img, nil
}
