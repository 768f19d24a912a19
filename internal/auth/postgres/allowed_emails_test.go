// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
	"github.com/forgeline/forgeline/internal/auth/postgres"
)

var allowCols = []string{"id", "email", "role", "added_at"}

func TestAllowListRepository_Create(t *testing.T) {
	entry, err := auth.NewAllowedEmail("ops@example.com", auth.RoleUser)
	require.NoError(t, err)

	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO allowed_emails`).
		WithArgs(entry.ID.String(), entry.Email, "user", entry.AddedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO allowed_emails`).
		WithArgs(entry.ID.String(), entry.Email, "user", entry.AddedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	repo := postgres.NewAllowListRepository(mock)
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.ErrorIs(t, repo.Create(context.Background(), entry), apperr.ErrDuplicateKey)
}

func TestAllowListRepository_GetByEmail(t *testing.T) {
	id := ulid.Make()
	added := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, email, role, added_at FROM allowed_emails WHERE email`).
		WithArgs("ops@example.com").
		WillReturnRows(pgxmock.NewRows(allowCols).AddRow(id.String(), "ops@example.com", "admin", added))
	mock.ExpectQuery(`SELECT id, email, role, added_at FROM allowed_emails WHERE email`).
		WithArgs("gone@example.com").
		WillReturnError(pgx.ErrNoRows)

	repo := postgres.NewAllowListRepository(mock)
	entry, err := repo.GetByEmail(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, auth.RoleAdmin, entry.Role)
	assert.Equal(t, added, entry.AddedAt)

	_, err = repo.GetByEmail(context.Background(), "gone@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAllowListRepository_List(t *testing.T) {
	older, newer := ulid.Make(), ulid.Make()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		newestFirst bool
		query       string
	}{
		{name: "newest first", newestFirst: true, query: `ORDER BY added_at DESC, id DESC`},
		{name: "oldest first", newestFirst: false, query: `ORDER BY added_at ASC, id ASC`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectQuery(tt.query).
				WillReturnRows(pgxmock.NewRows(allowCols).
					AddRow(newer.String(), "b@example.com", "user", t0.Add(time.Hour)).
					AddRow(older.String(), "a@example.com", "admin", t0))

			entries, err := postgres.NewAllowListRepository(mock).List(context.Background(), tt.newestFirst)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, newer, entries[0].ID)
		})
	}

	t.Run("empty table is an empty slice", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT id, email, role, added_at FROM allowed_emails ORDER BY`).
			WillReturnRows(pgxmock.NewRows(allowCols))

		entries, err := postgres.NewAllowListRepository(mock).List(context.Background(), true)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("query failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM allowed_emails`).WillReturnError(errors.New("connection refused"))

		_, err := postgres.NewAllowListRepository(mock).List(context.Background(), true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestAllowListRepository_Update(t *testing.T) {
	id := ulid.Make()
	added := time.Now().UTC()
	email := "renamed@example.com"
	admin := auth.RoleAdmin
	patch := auth.AllowedEmailPatch{Email: &email, Role: &admin}

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "returns updated row",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE allowed_emails`).
					WithArgs(id.String(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows(allowCols).AddRow(id.String(), email, "admin", added))
			},
		},
		{
			name: "missing id",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE allowed_emails`).
					WithArgs(id.String(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "email collides",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`UPDATE allowed_emails`).
					WithArgs(id.String(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: apperr.ErrDuplicateKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			got, err := postgres.NewAllowListRepository(mock).Update(context.Background(), id, patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, email, got.Email)
			assert.Equal(t, auth.RoleAdmin, got.Role)
		})
	}
}

func TestAllowListRepository_Delete(t *testing.T) {
	id := ulid.Make()

	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM allowed_emails`).
		WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM allowed_emails`).
		WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := postgres.NewAllowListRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), id))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), apperr.ErrNotFound)
}
