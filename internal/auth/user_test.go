// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forgeline/internal/auth"
	"github.com/forgeline/forgeline/pkg/errutil"
)

func TestParseRole(t *testing.T) {
	r, err := auth.ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, r)
	assert.True(t, r.IsAdmin())

	_, err = auth.ParseRole("owner")
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_ROLE")
}

func TestNewUser(t *testing.T) {
	t.Run("normalizes email", func(t *testing.T) {
		u, err := auth.NewUser("  Bob@Example.COM ", "hash", auth.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", u.Email)
		assert.Equal(t, auth.RoleUser, u.Role)
		assert.False(t, u.CreatedAt.IsZero())
	})

	t.Run("rejects bad email", func(t *testing.T) {
		_, err := auth.NewUser("Bob <bob@example.com>", "hash", auth.RoleUser)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := auth.NewUser("bob@example.com", "", auth.RoleUser)
		errutil.AssertErrorCode(t, err, "USER_INVALID_HASH")
	})

	t.Run("hash never serialized", func(t *testing.T) {
		u, err := auth.NewUser("bob@example.com", "secret-hash", auth.RoleAdmin)
		require.NoError(t, err)
		data, err := json.Marshal(u)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "secret-hash")
		assert.Contains(t, string(data), `"role":"admin"`)
	})
}

func TestSecret_Apply(t *testing.T) {
	u, err := auth.NewUser("c@example.com", "h", auth.RoleUser)
	require.NoError(t, err)

	assert.Empty(t, auth.WithoutSecret.Apply(u).PasswordHash)
	assert.Equal(t, "h", u.PasswordHash, "original untouched")
	assert.Equal(t, "h", auth.WithSecret.Apply(u).PasswordHash)
	assert.Nil(t, auth.WithoutSecret.Apply(nil))
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@b.co", "first.last@sub.example.org"} {
		assert.NoError(t, auth.ValidateEmail(ok), ok)
	}
	for _, bad := range []string{"", "plain", "a@b", "a@@b.com", "<a@b.com>", "Bob <bob@example.com>", "a b@example.com"} {
		assert.Error(t, auth.ValidateEmail(bad), bad)
	}
}
