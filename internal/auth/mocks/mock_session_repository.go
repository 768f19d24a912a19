// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/forgeline/forgeline/internal/auth"
)

// MockSessionRepository is a mock of auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

var _ auth.SessionRepository = (*MockSessionRepository)(nil)

// NewMockSessionRepository creates a mock that asserts its expectations on cleanup.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (_m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	ret := _m.Called(ctx, session)
	return ret.Error(0)
}

// GetByTokenHash provides a mock function.
func (_m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*auth.Session, error) {
	ret := _m.Called(ctx, tokenHash, now)
	var r0 *auth.Session
	if v := ret.Get(0); v != nil {
		r0 = v.(*auth.Session)
	}
	return r0, ret.Error(1)
}

// DeleteByTokenHash provides a mock function.
func (_m *MockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	ret := _m.Called(ctx, tokenHash)
	return ret.Error(0)
}

// DeleteExpired provides a mock function.
func (_m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ret := _m.Called(ctx, now)
	var r0 int64
	if v := ret.Get(0); v != nil {
		r0 = v.(int64)
	}
	return r0, ret.Error(1)
}
