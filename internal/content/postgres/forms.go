// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package postgres implements the content repositories on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/content"
	"github.com/forgeline/forgeline/internal/store"
)

// FormRepository implements content.FormRepository.
type FormRepository struct {
	pool store.Pool
}

var _ content.FormRepository = (*FormRepository)(nil)

// NewFormRepository creates a FormRepository.
func NewFormRepository(pool store.Pool) *FormRepository {
	return &FormRepository{pool: pool}
}

// Create inserts form.
func (r *FormRepository) Create(ctx context.Context, form *content.ContactForm) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contact_forms (id, name, email, phone, message, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, form.ID.String(), form.Name, form.Email, form.Phone, form.Message, form.SubmittedAt)
	if err != nil {
		return oops.Code("FORM_CREATE_FAILED").With("form_id", form.ID.String()).Wrap(err)
	}
	return nil
}

// List returns forms ordered by submitted_at.
func (r *FormRepository) List(ctx context.Context, newestFirst bool) ([]*content.ContactForm, error) {
	query := `SELECT id, name, email, phone, message, submitted_at FROM contact_forms ORDER BY submitted_at ASC, id ASC`
	if newestFirst {
		query = `SELECT id, name, email, phone, message, submitted_at FROM contact_forms ORDER BY submitted_at DESC, id DESC`
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, oops.Code("FORM_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	forms := make([]*content.ContactForm, 0)
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, oops.Code("FORM_LIST_FAILED").With("operation", "scan").Wrap(err)
		}
		forms = append(forms, form)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("FORM_LIST_FAILED").With("operation", "iterate").Wrap(err)
	}
	return forms, nil
}

// Delete removes the form with id.
func (r *FormRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_forms WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("FORM_DELETE_FAILED").With("form_id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("FORM_NOT_FOUND").With("form_id", id.String()).Wrap(apperr.ErrNotFound)
	}
	return nil
}

// DeleteAll removes every form.
func (r *FormRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_forms`)
	if err != nil {
		return 0, oops.Code("FORM_DELETE_ALL_FAILED").Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func scanForm(row pgx.Row) (*content.ContactForm, error) {
	var (
		form  content.ContactForm
		idStr string
	)
	if err := row.Scan(&idStr, &form.Name, &form.Email, &form.Phone, &form.Message, &form.SubmittedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("FORM_INVALID_ID").With("id", idStr).Wrap(err)
	}
	form.ID = id
	return &form, nil
}
