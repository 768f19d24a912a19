// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package auth provides authentication and authorization primitives for Forgeline.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewUser - creates a User with a normalized email, password hash and role
//   - NewAllowedEmail - creates an allow-list entry (a standing invitation)
//   - NewSession - creates a Session holding an immutable Snapshot
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Stores
//
// UserRepository, AllowListRepository and SessionRepository are implemented
// by the postgres and memory subpackages. Uniqueness of emails is enforced by
// the store itself and reported as apperr.ErrDuplicateKey; services never
// check-then-insert.
//
// # Services
//
//   - SessionManager - opaque token issue, resolve and destroy
//   - Service - register, login, logout and password change
//   - AllowListService - admin management of the allow-list
//
// Services are created with New* constructors that validate dependencies.
package auth
