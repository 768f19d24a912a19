// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

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

// SessionRepository implements auth.SessionRepository on web_sessions.
type SessionRepository struct {
	pool store.Pool
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(pool store.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a session and its snapshot.
func (r *SessionRepository) Create(ctx context.Context, s *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO web_sessions (id, token_hash, user_id, email, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		s.ID.String(),
		s.TokenHash,
		s.Snapshot.UserID.String(),
		s.Snapshot.Email,
		string(s.Snapshot.Role),
		s.CreatedAt,
		s.ExpiresAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("user_id", s.Snapshot.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash returns the session if it is unexpired at now.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*auth.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, token_hash, user_id, email, role, created_at, expires_at
		FROM web_sessions
		WHERE token_hash = $1 AND expires_at > $2
	`, tokenHash, now)

	s, err := scanSession(row)
	if store.IsNoRows(err) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(apperr.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").Wrap(err)
	}
	return s, nil
}

// DeleteByTokenHash removes the session with tokenHash.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(apperr.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes sessions expired at now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		s             auth.Session
		idStr, uidStr string
		role          string
	)
	if err := row.Scan(&idStr, &s.TokenHash, &uidStr, &s.Snapshot.Email, &role, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return nil, err
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").With("id", idStr).Wrap(err)
	}
	uid, err := ulid.Parse(uidStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").With("user_id", uidStr).Wrap(err)
	}
	s.ID = id
	s.Snapshot.UserID = uid
	s.Snapshot.Role = auth.Role(role)
	return &s, nil
}
