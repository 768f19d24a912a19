// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role is the single source of truth for authorization.
type Role string

// Roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(strings.ToLower(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Errorf("role must be one of: user, admin")
	}
}

// IsAdmin is the boolean view of the role. It is derived, never stored.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Secret selects whether a user read includes the stored password hash.
type Secret bool

// Read modes.
const (
	WithoutSecret Secret = false
	WithSecret    Secret = true
)

// Apply strips the password hash unless the secret was requested.
// Every UserRepository implementation passes its results through Apply.
func (s Secret) Apply(u *User) *User {
	if u == nil || s == WithSecret {
		return u
	}
	redacted := *u
	redacted.PasswordHash = ""
	return &redacted
}

// User is a registered account.
type User struct {
	ID           ulid.ULID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser creates a validated User.
func NewUser(email, passwordHash string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Snapshot returns the session snapshot of the user.
func (u *User) Snapshot() Snapshot {
	return Snapshot{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address (no display name).
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if err := validate.Var(email, "email"); err != nil {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("invalid email address")
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns apperr.ErrDuplicateKey if the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by normalized email.
	// Returns apperr.ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string, secret Secret) (*User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID, secret Secret) (*User, error)

	// UpdatePasswordHash replaces the stored hash.
	// Returns apperr.ErrNotFound if no such user exists.
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string) error
}
