// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forgeline/pkg/errutil"
)

type fakeMigrator struct {
	version uint
	dirty   bool
	pending []uint
	upErr   error

	ups    int
	downs  int
	steps  []int
	forced []int
	closed bool
}

func (f *fakeMigrator) Up() error {
	f.ups++
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.downs++
	return nil
}

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	return nil
}

func (f *fakeMigrator) Pending() ([]uint, error) { return f.pending, nil }

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

// useFakeMigrator swaps openMigrator for the test and isolates the environment.
func useFakeMigrator(t *testing.T, fake *fakeMigrator) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "")
	original := openMigrator
	openMigrator = func(string) (migrator, error) { return fake, nil }
	t.Cleanup(func() { openMigrator = original })
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErrCode string
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
		{name: "trailing chars are ignored", input: "3abc", wantVersion: 3},
		{name: "non-numeric returns error", input: "abc", wantErrCode: "INVALID_VERSION"},
		{name: "empty string returns error", input: "", wantErrCode: "INVALID_VERSION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseForceVersion(tt.input)
			if tt.wantErrCode != "" {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantErrCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, got)
		})
	}
}

func TestMigrateCmd_RequiresDatabaseURL(t *testing.T) {
	useFakeMigrator(t, &fakeMigrator{})

	for _, args := range [][]string{
		{"migrate"},
		{"migrate", "status"},
		{"migrate", "force", "1"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, args)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	}
}

func TestMigrateUp(t *testing.T) {
	fake := &fakeMigrator{version: 5}
	useFakeMigrator(t, fake)

	out, err := execute(t, "migrate", "up", "--database-url", "postgres://localhost/forgeline")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.ups)
	assert.True(t, fake.closed)
	assert.Contains(t, out, "Migrations completed successfully")
	assert.Contains(t, out, "Current version: 000005_create_gallery_images")
}

func TestMigrateUp_Failure(t *testing.T) {
	fake := &fakeMigrator{upErr: errors.New("boom")}
	useFakeMigrator(t, fake)

	_, err := execute(t, "migrate", "--database-url", "postgres://localhost/forgeline")
	require.Error(t, err)
	assert.True(t, fake.closed)
}

func TestMigrateDown(t *testing.T) {
	t.Run("default reverts one step", func(t *testing.T) {
		fake := &fakeMigrator{version: 4}
		useFakeMigrator(t, fake)

		_, err := execute(t, "migrate", "down", "--database-url", "postgres://localhost/forgeline")
		require.NoError(t, err)
		assert.Equal(t, []int{-1}, fake.steps)
		assert.Zero(t, fake.downs)
	})

	t.Run("all reverts everything", func(t *testing.T) {
		fake := &fakeMigrator{}
		useFakeMigrator(t, fake)

		out, err := execute(t, "migrate", "down", "--all", "--database-url", "postgres://localhost/forgeline")
		require.NoError(t, err)
		assert.Equal(t, 1, fake.downs)
		assert.Contains(t, out, "Current version: none")
	})

	t.Run("zero steps is rejected", func(t *testing.T) {
		fake := &fakeMigrator{}
		useFakeMigrator(t, fake)

		_, err := execute(t, "migrate", "down", "--steps", "0", "--database-url", "postgres://localhost/forgeline")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVALID_STEPS")
		assert.Empty(t, fake.steps)
	})
}

func TestMigrateStatus(t *testing.T) {
	fake := &fakeMigrator{version: 3, dirty: true, pending: []uint{4, 5}}
	useFakeMigrator(t, fake)

	out, err := execute(t, "migrate", "status", "--database-url", "postgres://localhost/forgeline")
	require.NoError(t, err)

	assert.Contains(t, out, "Current version: 000003_create_web_sessions (dirty)")
	assert.Contains(t, out, "Pending (2):")
	assert.Contains(t, out, "000004_create_contact_forms")
	assert.Contains(t, out, "000005_create_gallery_images")
}

func TestMigrateForce(t *testing.T) {
	fake := &fakeMigrator{}
	useFakeMigrator(t, fake)

	out, err := execute(t, "migrate", "force", "2", "--database-url", "postgres://localhost/forgeline")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, fake.forced)
	assert.Contains(t, out, "Forced version 2")
}
