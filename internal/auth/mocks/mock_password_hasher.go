// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/forgeline/forgeline/internal/auth"
)

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher creates a mock that asserts its expectations on cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (_m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := _m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function.
func (_m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := _m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

// NeedsUpgrade provides a mock function.
func (_m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	ret := _m.Called(hash)
	return ret.Bool(0)
}
