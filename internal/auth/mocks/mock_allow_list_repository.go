// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/forgeline/forgeline/internal/auth"
)

// MockAllowListRepository is a mock of auth.AllowListRepository.
type MockAllowListRepository struct {
	mock.Mock
}

var _ auth.AllowListRepository = (*MockAllowListRepository)(nil)

// NewMockAllowListRepository creates a mock that asserts its expectations on cleanup.
func NewMockAllowListRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAllowListRepository {
	m := &MockAllowListRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (_m *MockAllowListRepository) Create(ctx context.Context, entry *auth.AllowedEmail) error {
	ret := _m.Called(ctx, entry)
	return ret.Error(0)
}

// GetByEmail provides a mock function.
func (_m *MockAllowListRepository) GetByEmail(ctx context.Context, email string) (*auth.AllowedEmail, error) {
	ret := _m.Called(ctx, email)
	var r0 *auth.AllowedEmail
	if v := ret.Get(0); v != nil {
		r0 = v.(*auth.AllowedEmail)
	}
	return r0, ret.Error(1)
}

// List provides a mock function.
func (_m *MockAllowListRepository) List(ctx context.Context, newestFirst bool) ([]*auth.AllowedEmail, error) {
	ret := _m.Called(ctx, newestFirst)
	var r0 []*auth.AllowedEmail
	if v := ret.Get(0); v != nil {
		r0 = v.([]*auth.AllowedEmail)
	}
	return r0, ret.Error(1)
}

// Update provides a mock function.
func (_m *MockAllowListRepository) Update(ctx context.Context, id ulid.ULID, patch auth.AllowedEmailPatch) (*auth.AllowedEmail, error) {
	ret := _m.Called(ctx, id, patch)
	var r0 *auth.AllowedEmail
	if v := ret.Get(0); v != nil {
		r0 = v.(*auth.AllowedEmail)
	}
	return r0, ret.Error(1)
}

// Delete provides a mock function.
func (_m *MockAllowListRepository) Delete(ctx context.Context, id ulid.ULID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}
