// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
	"github.com/forgeline/forgeline/internal/store"
)

// AllowListRepository implements auth.AllowListRepository.
type AllowListRepository struct {
	pool store.Pool
}

var _ auth.AllowListRepository = (*AllowListRepository)(nil)

// NewAllowListRepository creates an AllowListRepository.
func NewAllowListRepository(pool store.Pool) *AllowListRepository {
	return &AllowListRepository{pool: pool}
}

// Create inserts entry.
func (r *AllowListRepository) Create(ctx context.Context, entry *auth.AllowedEmail) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO allowed_emails (id, email, role, added_at) VALUES ($1, $2, $3, $4)
	`, entry.ID.String(), entry.Email, string(entry.Role), entry.AddedAt)
	if store.IsUniqueViolation(err) {
		return oops.Code("ALLOWLIST_DUPLICATE").With("email", entry.Email).Wrap(apperr.ErrDuplicateKey)
	}
	if err != nil {
		return oops.Code("ALLOWLIST_CREATE_FAILED").With("email", entry.Email).Wrap(err)
	}
	return nil
}

// GetByEmail retrieves an entry by email.
func (r *AllowListRepository) GetByEmail(ctx context.Context, email string) (*auth.AllowedEmail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, role, added_at FROM allowed_emails WHERE email = $1
	`, email)
	entry, err := scanAllowedEmail(row)
	if store.IsNoRows(err) {
		return nil, oops.Code("ALLOWLIST_NOT_FOUND").With("email", email).Wrap(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ALLOWLIST_GET_FAILED").With("email", email).Wrap(err)
	}
	return entry, nil
}

// List returns entries ordered by added_at.
func (r *AllowListRepository) List(ctx context.Context, newestFirst bool) ([]*auth.AllowedEmail, error) {
	query := `SELECT id, email, role, added_at FROM allowed_emails ORDER BY added_at ASC, id ASC`
	if newestFirst {
		query = `SELECT id, email, role, added_at FROM allowed_emails ORDER BY added_at DESC, id DESC`
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, oops.Code("ALLOWLIST_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	entries := make([]*auth.AllowedEmail, 0)
	for rows.Next() {
		entry, err := scanAllowedEmail(rows)
		if err != nil {
			return nil, oops.Code("ALLOWLIST_LIST_FAILED").With("operation", "scan").Wrap(err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ALLOWLIST_LIST_FAILED").With("operation", "iterate").Wrap(err)
	}
	return entries, nil
}

// Update applies patch in a single statement. Nil patch fields keep their value.
func (r *AllowListRepository) Update(ctx context.Context, id ulid.ULID, patch auth.AllowedEmailPatch) (*auth.AllowedEmail, error) {
	var email, role *string
	if patch.Email != nil {
		email = patch.Email
	}
	if patch.Role != nil {
		s := string(*patch.Role)
		role = &s
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE allowed_emails
		SET email = COALESCE($2, email), role = COALESCE($3, role)
		WHERE id = $1
		RETURNING id, email, role, added_at
	`, id.String(), email, role)

	entry, err := scanAllowedEmail(row)
	switch {
	case err == nil:
		return entry, nil
	case store.IsNoRows(err):
		return nil, oops.Code("ALLOWLIST_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	case store.IsUniqueViolation(err):
		return nil, oops.Code("ALLOWLIST_DUPLICATE").With("id", id.String()).Wrap(apperr.ErrDuplicateKey)
	default:
		return nil, oops.Code("ALLOWLIST_UPDATE_FAILED").With("id", id.String()).Wrap(err)
	}
}

// Delete removes an entry. Registered users are unaffected.
func (r *AllowListRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM allowed_emails WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("ALLOWLIST_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ALLOWLIST_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	return nil
}

func scanAllowedEmail(row pgx.Row) (*auth.AllowedEmail, error) {
	var (
		entry auth.AllowedEmail
		idStr string
		role  string
	)
	if err := row.Scan(&idStr, &entry.Email, &role, &entry.AddedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ALLOWLIST_INVALID_ID").With("id", idStr).Wrap(err)
	}
	entry.ID = id
	entry.Role = auth.Role(role)
	return &entry, nil
}
