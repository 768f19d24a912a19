// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
)

// SessionRepository keys sessions by token hash.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session
}

var _ auth.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]auth.Session)}
}

// Create stores session.
func (r *SessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.TokenHash]; exists {
		return oops.Code("SESSION_DUPLICATE").Wrap(apperr.ErrDuplicateKey)
	}
	r.sessions[session.TokenHash] = *session
	return nil
}

// GetByTokenHash returns the session unless it is unknown or expired at now.
func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string, now time.Time) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[tokenHash]
	if !ok || s.IsExpiredAt(now) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(apperr.ErrNotFound)
	}
	return &s, nil
}

// DeleteByTokenHash removes a session.
func (r *SessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[tokenHash]; !ok {
		return oops.Code("SESSION_NOT_FOUND").Wrap(apperr.ErrNotFound)
	}
	delete(r.sessions, tokenHash)
	return nil
}

// DeleteExpired removes sessions expired at now.
func (r *SessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for hash, s := range r.sessions {
		if s.IsExpiredAt(now) {
			delete(r.sessions, hash)
			removed++
		}
	}
	return removed, nil
}
