// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
)

// Caller-facing auth messages.
const (
	MsgInvalidCredentials  = "Invalid email or password"
	MsgEmailNotAllowed     = "Email is not allowed to register"
	MsgEmailInUse          = "email already in use"
	MsgUserNotFound        = "User not found"
	MsgWrongPassword       = "Current password is incorrect"
	MsgRegistered          = "Registered successfully"
	MsgLoggedIn            = "Logged in successfully"
	MsgPasswordUpdated     = "Password updated successfully"
	MsgLogoutFailed        = "Could not log out, please try again"
	MsgTooManyAuthAttempts = "Too many attempts, please try again later."
)

// Auth event names reported to the observer.
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventLogout         = "logout"
	EventChangePassword = "change_password"
)

// dummyPasswordHash is verified when the email is unknown so that unknown
// emails and wrong passwords take the same path. It matches no password.
//
//nolint:gosec // G101: not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Result is the outcome of a successful register or login.
type Result struct {
	Snapshot Snapshot
	Token    string
}

// EventObserver receives one call per finished auth flow.
type EventObserver func(event, outcome string)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventObserver sets the auth event observer.
func WithEventObserver(fn EventObserver) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.observe = fn
		}
	}
}

// Service runs the register, login, logout and password change flows.
type Service struct {
	users     UserRepository
	allowList AllowListRepository
	sessions  *SessionManager
	hasher    PasswordHasher
	logger    *slog.Logger
	observe   EventObserver
}

// NewService creates a Service.
func NewService(
	users UserRepository,
	allowList AllowListRepository,
	sessions *SessionManager,
	hasher PasswordHasher,
	opts ...ServiceOption,
) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("users repository is required")
	}
	if allowList == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("allow-list repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("session manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	s := &Service{
		users:     users,
		allowList: allowList,
		sessions:  sessions,
		hasher:    hasher,
		logger:    slog.Default(),
		observe:   func(string, string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a user whose role comes from the matching allow-list
// entry, then opens a session. The steps run strictly in this order:
// validate, normalize, allow-list check, hash, insert, session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (result *Result, err error) {
	defer func() { s.observe(EventRegister, outcome(err)) }()

	if err := in.Validate(); err != nil {
		return nil, oops.Code("AUTH_REGISTER_INVALID").Wrap(err)
	}
	email := NormalizeEmail(in.Email)

	entry, err := s.allowList.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.logger.WarnContext(ctx, "registration rejected: email not on allow-list", "email", email)
			return nil, oops.Code("AUTH_EMAIL_NOT_ALLOWED").
				With("email", email).
				Wrap(apperr.Forbidden(MsgEmailNotAllowed))
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "allow-list lookup").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user, err := NewUser(email, hash, entry.Role)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "build user").Wrap(err)
	}
	// The unique index is the only guard against concurrent registrations.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicateKey) {
			return nil, oops.Code("AUTH_EMAIL_IN_USE").
				With("email", email).
				Wrap(apperr.DuplicateKey(MsgEmailInUse))
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "create user").Wrap(err)
	}

	return s.open(ctx, user.Snapshot(), "AUTH_REGISTER_FAILED")
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (result *Result, err error) {
	defer func() { s.observe(EventLogin, outcome(err)) }()

	if err := in.Validate(); err != nil {
		return nil, oops.Code("AUTH_LOGIN_INVALID").Wrap(err)
	}
	email := NormalizeEmail(in.Email)

	user, lookupErr := s.users.GetByEmail(ctx, email, WithSecret)
	exists := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, apperr.ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	target := dummyPasswordHash
	if exists {
		target = user.PasswordHash
	}
	valid, verifyErr := s.hasher.Verify(in.Password, target)
	if verifyErr != nil && exists {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(verifyErr)
	}

	if !exists || !valid {
		s.logger.WarnContext(ctx, "login failed", "email", email, "known_email", exists)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").
			With("email", email).
			Wrap(apperr.Unauthorized(MsgInvalidCredentials))
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, in.Password)
	}

	return s.open(ctx, user.Snapshot(), "AUTH_LOGIN_FAILED")
}

// Logout destroys the session bound to token. An unknown token is success.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	defer func() { s.observe(EventLogout, outcome(err)) }()

	if err := s.sessions.Destroy(ctx, token); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").Wrap(err)
	}
	return nil
}

// ChangePassword replaces the password of the session's user. The current
// session stays valid.
func (s *Service) ChangePassword(ctx context.Context, who Snapshot, in ChangePasswordInput) (err error) {
	defer func() { s.observe(EventChangePassword, outcome(err)) }()

	if err := in.Validate(); err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_INVALID").Wrap(err)
	}

	user, err := s.users.GetByID(ctx, who.UserID, WithSecret)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return oops.Code("USER_NOT_FOUND").
				With("user_id", who.UserID.String()).
				Wrap(apperr.NotFound(MsgUserNotFound))
		}
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "get user").Wrap(err)
	}

	valid, err := s.hasher.Verify(in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "verify password").Wrap(err)
	}
	if !valid {
		return oops.Code("AUTH_WRONG_PASSWORD").
			With("user_id", user.ID.String()).
			Wrap(apperr.Unauthorized(MsgWrongPassword))
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return oops.Code("USER_NOT_FOUND").
				With("user_id", user.ID.String()).
				Wrap(apperr.NotFound(MsgUserNotFound))
		}
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "update hash").Wrap(err)
	}
	return nil
}

// Resolve returns the snapshot for a session token.
func (s *Service) Resolve(ctx context.Context, token string) (Snapshot, error) {
	return s.sessions.Resolve(ctx, token)
}

func (s *Service) open(ctx context.Context, snapshot Snapshot, code string) (*Result, error) {
	token, err := s.sessions.Create(ctx, snapshot)
	if err != nil {
		return nil, oops.Code(code).With("operation", "create session").Wrap(err)
	}
	return &Result{Snapshot: snapshot, Token: token}, nil
}

// upgradeHash rehashes a legacy password. Login succeeds even if it fails.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password hash upgrade failed",
			"user_id", user.ID.String(),
			"error", err)
	}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperr.KindOf(err).String()
}
