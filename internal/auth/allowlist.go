// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
)

// AllowedEmail is a standing invitation to register with a given role.
type AllowedEmail struct {
	ID      ulid.ULID `json:"id"`
	Email   string    `json:"email"`
	Role    Role      `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

// NewAllowedEmail creates a validated AllowedEmail.
func NewAllowedEmail(email string, role Role) (*AllowedEmail, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &AllowedEmail{
		ID:      ulid.Make(),
		Email:   email,
		Role:    role,
		AddedAt: time.Now().UTC(),
	}, nil
}

// AllowedEmailPatch holds the fields an admin may change. Nil means unchanged.
type AllowedEmailPatch struct {
	Email *string
	Role  *Role
}

// Empty reports whether the patch changes nothing.
func (p AllowedEmailPatch) Empty() bool {
	return p.Email == nil && p.Role == nil
}

// Apply returns a copy of e with the patch applied.
func (p AllowedEmailPatch) Apply(e AllowedEmail) AllowedEmail {
	if p.Email != nil {
		e.Email = *p.Email
	}
	if p.Role != nil {
		e.Role = *p.Role
	}
	return e
}

// AllowListRepository manages allow-list persistence.
type AllowListRepository interface {
	// Create stores an entry. Returns apperr.ErrDuplicateKey on a repeat email.
	Create(ctx context.Context, entry *AllowedEmail) error

	// GetByEmail returns apperr.ErrNotFound when the email is not listed.
	GetByEmail(ctx context.Context, email string) (*AllowedEmail, error)

	// List returns all entries ordered by AddedAt.
	List(ctx context.Context, newestFirst bool) ([]*AllowedEmail, error)

	// Update applies patch and returns the stored entry.
	// Returns apperr.ErrNotFound or apperr.ErrDuplicateKey.
	Update(ctx context.Context, id ulid.ULID, patch AllowedEmailPatch) (*AllowedEmail, error)

	// Delete returns apperr.ErrNotFound if no entry has the ID.
	Delete(ctx context.Context, id ulid.ULID) error
}

// Allow-list messages shown to admins.
const (
	msgAllowedEmailExists   = "Email is already on the allow-list"
	msgAllowedEmailNotFound = "Allowed email not found"
)

// AllowListService manages the registration allow-list.
// Removing an entry never affects users that already registered with it.
type AllowListService struct {
	entries AllowListRepository
}

// NewAllowListService creates an AllowListService.
func NewAllowListService(entries AllowListRepository) (*AllowListService, error) {
	if entries == nil {
		return nil, oops.Code("ALLOWLIST_INVALID_CONFIG").Errorf("allow-list repository is required")
	}
	return &AllowListService{entries: entries}, nil
}

// Add lists an email with a role.
func (s *AllowListService) Add(ctx context.Context, email, role string) (*AllowedEmail, error) {
	parsed, err := parseRoleInput(role)
	if err != nil {
		return nil, err
	}
	entry, err := NewAllowedEmail(email, parsed)
	if err != nil {
		return nil, oops.Code("ALLOWLIST_INVALID").Wrap(apperr.Validation("Please provide a valid email address"))
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, apperr.ErrDuplicateKey) {
			return nil, oops.Code("ALLOWLIST_DUPLICATE").
				With("email", entry.Email).
				Wrap(apperr.DuplicateKey(msgAllowedEmailExists))
		}
		return nil, oops.Code("ALLOWLIST_CREATE_FAILED").With("email", entry.Email).Wrap(err)
	}
	return entry, nil
}

// EnsureAdmin lists email as admin unless it is already listed.
// Used to provision the development/test account.
func (s *AllowListService) EnsureAdmin(ctx context.Context, email string) (*AllowedEmail, error) {
	existing, err := s.entries.GetByEmail(ctx, NormalizeEmail(email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, oops.Code("ALLOWLIST_LOOKUP_FAILED").With("email", email).Wrap(err)
	}
	entry, err := s.Add(ctx, email, string(RoleAdmin))
	if apperr.Is(err, apperr.KindDuplicateKey) {
		// Lost a race with a concurrent provisioner.
		return s.entries.GetByEmail(ctx, NormalizeEmail(email))
	}
	return entry, err
}

// List returns all entries, newest first.
func (s *AllowListService) List(ctx context.Context) ([]*AllowedEmail, error) {
	entries, err := s.entries.List(ctx, true)
	if err != nil {
		return nil, oops.Code("ALLOWLIST_LIST_FAILED").Wrap(err)
	}
	return entries, nil
}

// Update changes the email and/or role of an entry.
func (s *AllowListService) Update(ctx context.Context, id ulid.ULID, email, role *string) (*AllowedEmail, error) {
	var patch AllowedEmailPatch
	if email != nil {
		normalized := NormalizeEmail(*email)
		if err := ValidateEmail(normalized); err != nil {
			return nil, oops.Code("ALLOWLIST_INVALID").Wrap(apperr.Validation("Please provide a valid email address"))
		}
		patch.Email = &normalized
	}
	if role != nil {
		parsed, err := parseRoleInput(*role)
		if err != nil {
			return nil, err
		}
		patch.Role = &parsed
	}
	if patch.Empty() {
		return nil, oops.Code("ALLOWLIST_INVALID").Wrap(apperr.Validation("Nothing to update"))
	}

	entry, err := s.entries.Update(ctx, id, patch)
	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, apperr.ErrNotFound):
		return nil, oops.Code("ALLOWLIST_NOT_FOUND").With("id", id.String()).Wrap(apperr.NotFound(msgAllowedEmailNotFound))
	case errors.Is(err, apperr.ErrDuplicateKey):
		return nil, oops.Code("ALLOWLIST_DUPLICATE").With("id", id.String()).Wrap(apperr.DuplicateKey(msgAllowedEmailExists))
	default:
		return nil, oops.Code("ALLOWLIST_UPDATE_FAILED").With("id", id.String()).Wrap(err)
	}
}

// Delete removes an entry.
func (s *AllowListService) Delete(ctx context.Context, id ulid.ULID) error {
	err := s.entries.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrNotFound):
		return oops.Code("ALLOWLIST_NOT_FOUND").With("id", id.String()).Wrap(apperr.NotFound(msgAllowedEmailNotFound))
	default:
		return oops.Code("ALLOWLIST_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
}

func parseRoleInput(role string) (Role, error) {
	if role == "" {
		return RoleUser, nil
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return "", oops.Code("ALLOWLIST_INVALID").With("role", role).Wrap(apperr.Validation("Role must be either user or admin"))
	}
	return parsed, nil
}
