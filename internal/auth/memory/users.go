// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package memory provides in-process auth repositories for development and
// test mode. Contents are lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
)

// UserRepository stores users in memory. Create is an atomic unique insert.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// Create stores a copy of user.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return oops.Code("USER_DUPLICATE_EMAIL").With("email", user.Email).Wrap(apperr.ErrDuplicateKey)
	}
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByEmail returns a copy of the user with email.
func (r *UserRepository) GetByEmail(_ context.Context, email string, secret auth.Secret) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(apperr.ErrNotFound)
	}
	return secret.Apply(clone(r.byID[id])), nil
}

// GetByID returns a copy of the user with id.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID, secret auth.Secret) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	return secret.Apply(clone(u)), nil
}

// UpdatePasswordHash replaces the stored hash.
func (r *UserRepository) UpdatePasswordHash(_ context.Context, id ulid.ULID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(u *auth.User) *auth.User {
	copied := *u
	return &copied
}
