// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package store holds the PostgreSQL plumbing shared by the repositories:
// pool connection, schema migrations and error classification.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the subset of *pgxpool.Pool used by repositories.
// pgxmock.PgxPoolIface satisfies it in unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Pool = (*pgxpool.Pool)(nil)

// ConnectOptions tunes Connect.
type ConnectOptions struct {
	// Timeout bounds the whole connect-and-ping loop.
	Timeout time.Duration
	// MaxRetries caps reconnect attempts.
	MaxRetries uint64
	Logger     *slog.Logger
}

// Connect opens a pool and pings it, retrying with exponential backoff
// while the database comes up.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, oops.Code("DB_URL_MISSING").Errorf("database url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 8
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_URL_INVALID").Wrap(err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(opts.MaxRetries,
		retry.WithCappedDuration(5*time.Second, retry.NewExponential(250*time.Millisecond)))

	var pool *pgxpool.Pool
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, cfg.Copy())
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").Wrap(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			opts.Logger.Warn("database not ready, retrying",
				"attempt", attempt,
				"host", cfg.ConnConfig.Host,
				"error", err)
			return retry.RetryableError(oops.Code("DB_PING_FAILED").Wrap(err))
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("attempts", attempt).
			With("host", cfg.ConnConfig.Host).
			Wrap(err)
	}
	return pool, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsNoRows reports whether err means a query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
