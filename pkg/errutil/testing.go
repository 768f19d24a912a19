// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forgeline/internal/apperr"
)

// AssertErrorCode asserts that err is an oops error whose deepest code is code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "error: %v", err)
}

// AssertErrorContext asserts that err carries key=value in its oops context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key, "error: %v", err)
	assert.Equal(t, value, ctx[key])
}

// AssertErrorKind asserts how err would be answered at the HTTP edge.
func AssertErrorKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	got, msg := apperr.Classify(err)
	assert.Equal(t, kind, got, "classified %s with message %q", got, msg)
}

// AssertUserMessage asserts the kind and the caller-facing message of err.
func AssertUserMessage(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	got, msg := apperr.Classify(err)
	assert.Equal(t, kind, got, "kind")
	assert.Equal(t, message, msg, "message")
}
