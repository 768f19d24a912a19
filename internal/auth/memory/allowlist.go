// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
)

// AllowListRepository stores allow-list entries in memory.
type AllowListRepository struct {
	mu      sync.RWMutex
	entries map[ulid.ULID]auth.AllowedEmail
}

var _ auth.AllowListRepository = (*AllowListRepository)(nil)

// NewAllowListRepository creates an empty AllowListRepository.
func NewAllowListRepository() *AllowListRepository {
	return &AllowListRepository{entries: make(map[ulid.ULID]auth.AllowedEmail)}
}

// Create stores entry unless its email is already listed.
func (r *AllowListRepository) Create(_ context.Context, entry *auth.AllowedEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(entry.Email, ulid.ULID{}) {
		return oops.Code("ALLOWLIST_DUPLICATE").With("email", entry.Email).Wrap(apperr.ErrDuplicateKey)
	}
	r.entries[entry.ID] = *entry
	return nil
}

// GetByEmail returns the entry for email.
func (r *AllowListRepository) GetByEmail(_ context.Context, email string) (*auth.AllowedEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.Email == email {
			found := e
			return &found, nil
		}
	}
	return nil, oops.Code("ALLOWLIST_NOT_FOUND").With("email", email).Wrap(apperr.ErrNotFound)
}

// List returns every entry ordered by AddedAt.
func (r *AllowListRepository) List(_ context.Context, newestFirst bool) ([]*auth.AllowedEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*auth.AllowedEmail, 0, len(r.entries))
	for _, e := range r.entries {
		entry := e
		out = append(out, &entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].ID.Compare(out[j].ID) < 0 != newestFirst
		}
		return out[i].AddedAt.Before(out[j].AddedAt) != newestFirst
	})
	return out, nil
}

// Update applies patch to the entry with id.
func (r *AllowListRepository) Update(_ context.Context, id ulid.ULID, patch auth.AllowedEmailPatch) (*auth.AllowedEmail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.entries[id]
	if !ok {
		return nil, oops.Code("ALLOWLIST_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	updated := patch.Apply(current)
	if updated.Email != current.Email && r.emailTaken(updated.Email, id) {
		return nil, oops.Code("ALLOWLIST_DUPLICATE").With("email", updated.Email).Wrap(apperr.ErrDuplicateKey)
	}
	r.entries[id] = updated
	return &updated, nil
}

// Delete removes the entry with id.
func (r *AllowListRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return oops.Code("ALLOWLIST_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	delete(r.entries, id)
	return nil
}

// emailTaken must be called with mu held.
func (r *AllowListRepository) emailTaken(email string, except ulid.ULID) bool {
	for id, e := range r.entries {
		if id != except && e.Email == email {
			return true
		}
	}
	return false
}
