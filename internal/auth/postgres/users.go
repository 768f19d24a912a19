// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
	"github.com/forgeline/forgeline/internal/store"
)

// UserRepository implements auth.UserRepository.
type UserRepository struct {
	pool store.Pool
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a UserRepository.
func NewUserRepository(pool store.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// userColumns returns the select list for users. The hash column is only
// read from the database when the caller asked for the secret.
func userColumns(secret auth.Secret) string {
	hash := "'' AS password_hash"
	if secret == auth.WithSecret {
		hash = "password_hash"
	}
	return "id, email, " + hash + ", role, created_at, updated_at"
}

// Create inserts user. The unique email index rejects duplicates.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if store.IsUniqueViolation(err) {
		return oops.Code("USER_DUPLICATE_EMAIL").With("email", user.Email).Wrap(apperr.ErrDuplicateKey)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string, secret auth.Secret) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns(secret)+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if store.IsNoRows(err) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").With("email", email).Wrap(err)
	}
	return secret.Apply(user), nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID, secret auth.Secret) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns(secret)+` FROM users WHERE id = $1`, id.String())
	user, err := scanUser(row)
	if store.IsNoRows(err) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").With("id", id.String()).Wrap(err)
	}
	return secret.Apply(user), nil
}

// UpdatePasswordHash replaces the stored hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id.String(), passwordHash, time.Now().UTC())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").With("id", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user  auth.User
		idStr string
		role  string
	)
	if err := row.Scan(&idStr, &user.Email, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	user.ID = id
	user.Role = auth.Role(role)
	return &user, nil
}
