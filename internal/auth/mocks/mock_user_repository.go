// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package mocks holds testify doubles for the auth interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/forgeline/forgeline/internal/auth"
)

// MockUserRepository is a mock of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ auth.UserRepository = (*MockUserRepository)(nil)

// NewMockUserRepository creates a mock that asserts its expectations on cleanup.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (_m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	ret := _m.Called(ctx, user)
	return ret.Error(0)
}

// GetByEmail provides a mock function.
func (_m *MockUserRepository) GetByEmail(ctx context.Context, email string, secret auth.Secret) (*auth.User, error) {
	ret := _m.Called(ctx, email, secret)
	var r0 *auth.User
	if v := ret.Get(0); v != nil {
		r0 = v.(*auth.User)
	}
	return r0, ret.Error(1)
}

// GetByID provides a mock function.
func (_m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID, secret auth.Secret) (*auth.User, error) {
	ret := _m.Called(ctx, id, secret)
	var r0 *auth.User
	if v := ret.Get(0); v != nil {
		r0 = v.(*auth.User)
	}
	return r0, ret.Error(1)
}

// UpdatePasswordHash provides a mock function.
func (_m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string) error {
	ret := _m.Called(ctx, id, passwordHash)
	return ret.Error(0)
}
