// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32 // 64 hex chars
	DefaultSessionTTL = 24 * time.Hour
)

// Snapshot is the identity copied into a session at login or registration.
// It is never re-synced with the user record: a role change takes effect on
// the next login.
type Snapshot struct {
	UserID ulid.ULID `json:"id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

// IsAdmin reports whether the snapshot carries the admin role.
func (s Snapshot) IsAdmin() bool {
	return s.Role.IsAdmin()
}

// Session is a server-side session record. Only the token hash is stored.
type Session struct {
	ID        ulid.ULID
	TokenHash string
	Snapshot  Snapshot
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession creates a validated Session expiring ttl after now.
func NewSession(snapshot Snapshot, tokenHash string, now time.Time, ttl time.Duration) (*Session, error) {
	if snapshot.UserID == (ulid.ULID{}) {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if snapshot.Email == "" {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("email cannot be empty")
	}
	if _, err := ParseRole(string(snapshot.Role)); err != nil {
		return nil, oops.Code("SESSION_INVALID_ROLE").Wrap(err)
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if ttl <= 0 {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").With("ttl", ttl).Errorf("ttl must be positive")
	}

	return &Session{
		ID:        ulid.Make(),
		TokenHash: tokenHash,
		Snapshot:  snapshot,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsExpiredAt reports whether the session is expired at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// GenerateSessionToken returns a random token and its SHA-256 hash.
// The token goes to the client; the hash is what gets stored.
func GenerateSessionToken() (token, hash string, err error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(buf)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the hex SHA-256 of a token.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash returns the unexpired session for the hash, or
	// apperr.ErrNotFound. Expired rows are never returned.
	GetByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Session, error)

	// DeleteByTokenHash removes a session. Returns apperr.ErrNotFound if absent.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes sessions expired at now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
