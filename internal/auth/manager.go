// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
)

// MsgNotAuthenticated is returned for a missing, unknown or expired session.
const MsgNotAuthenticated = "Not authenticated"

// SessionManager binds opaque tokens to session snapshots.
type SessionManager struct {
	sessions SessionRepository
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	onSweep  func(removed int64)
}

// SessionManagerOption configures a SessionManager.
type SessionManagerOption func(*SessionManager)

// WithSessionTTL sets the absolute session lifetime.
func WithSessionTTL(ttl time.Duration) SessionManagerOption {
	return func(m *SessionManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// WithSessionLogger sets the logger used by the sweeper.
func WithSessionLogger(logger *slog.Logger) SessionManagerOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSweepObserver is called after every sweep with the number of removed sessions.
func WithSweepObserver(fn func(removed int64)) SessionManagerOption {
	return func(m *SessionManager) {
		m.onSweep = fn
	}
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(sessions SessionRepository, opts ...SessionManagerOption) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("session repository is required")
	}
	m := &SessionManager{
		sessions: sessions,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create stores snapshot under a fresh token and returns the token.
func (m *SessionManager) Create(ctx context.Context, snapshot Snapshot) (string, error) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		return "", err
	}
	session, err := NewSession(snapshot, hash, m.now().UTC(), m.ttl)
	if err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").Wrap(err)
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("user_id", snapshot.UserID.String()).
			Wrap(err)
	}
	return token, nil
}

// Resolve returns the snapshot bound to token. Unknown and expired tokens
// yield an Unauthorized error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (Snapshot, error) {
	if token == "" {
		return Snapshot{}, oops.Code("SESSION_MISSING").Wrap(apperr.Unauthorized(MsgNotAuthenticated))
	}
	now := m.now().UTC()
	session, err := m.sessions.GetByTokenHash(ctx, HashSessionToken(token), now)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Snapshot{}, oops.Code("SESSION_INVALID").Wrap(apperr.Unauthorized(MsgNotAuthenticated))
		}
		return Snapshot{}, oops.Code("SESSION_RESOLVE_FAILED").Wrap(err)
	}
	// Repositories filter on expiry; re-check so a lenient store cannot leak one.
	if session.IsExpiredAt(now) {
		return Snapshot{}, oops.Code("SESSION_EXPIRED").
			With("expires_at", session.ExpiresAt).
			Wrap(apperr.Unauthorized(MsgNotAuthenticated))
	}
	return session.Snapshot, nil
}

// Destroy removes the session bound to token. Unknown tokens are not an error.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := m.sessions.DeleteByTokenHash(ctx, HashSessionToken(token))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return oops.Code("SESSION_DESTROY_FAILED").Wrap(err)
	}
	return nil
}

// Sweep deletes expired sessions once.
func (m *SessionManager) Sweep(ctx context.Context) (int64, error) {
	removed, err := m.sessions.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").Wrap(err)
	}
	if m.onSweep != nil {
		m.onSweep(removed)
	}
	return removed, nil
}

// RunSweeper sweeps every interval until ctx is done.
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				m.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				m.logger.Debug("expired sessions removed", "count", removed)
			}
		}
	}
}
