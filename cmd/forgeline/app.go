// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/forgeline/forgeline/internal/auth"
	authmem "github.com/forgeline/forgeline/internal/auth/memory"
	authpg "github.com/forgeline/forgeline/internal/auth/postgres"
	"github.com/forgeline/forgeline/internal/blob"
	"github.com/forgeline/forgeline/internal/config"
	"github.com/forgeline/forgeline/internal/content"
	contentmem "github.com/forgeline/forgeline/internal/content/memory"
	contentpg "github.com/forgeline/forgeline/internal/content/postgres"
	"github.com/forgeline/forgeline/internal/observability"
	"github.com/forgeline/forgeline/internal/store"
	"github.com/forgeline/forgeline/internal/web"
)

// repositories is one backing store for every service.
type repositories struct {
	users     auth.UserRepository
	allowList auth.AllowListRepository
	sessions  auth.SessionRepository
	forms     content.FormRepository
	images    content.ImageRepository
}

func memoryRepositories() repositories {
	return repositories{
		users:     authmem.NewUserRepository(),
		allowList: authmem.NewAllowListRepository(),
		sessions:  authmem.NewSessionRepository(),
		forms:     contentmem.NewFormRepository(),
		images:    contentmem.NewImageRepository(),
	}
}

func postgresRepositories(pool store.Pool) repositories {
	return repositories{
		users:     authpg.NewUserRepository(pool),
		allowList: authpg.NewAllowListRepository(pool),
		sessions:  authpg.NewSessionRepository(pool),
		forms:     contentpg.NewFormRepository(pool),
		images:    contentpg.NewImageRepository(pool),
	}
}

// app is the wired server.
type app struct {
	pool      *pgxpool.Pool
	registry  *prometheus.Registry
	sessions  *auth.SessionManager
	throttle  *auth.LoginThrottle
	allowList *auth.AllowListService
	web       *web.Server
}

// connectFunc opens the database. Replaced in tests.
type connectFunc func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error)

func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	return store.Connect(ctx, cfg.Database.URL, store.ConnectOptions{
		Timeout: cfg.Database.ConnectTimeout,
		Logger:  logger,
	})
}

// newApp wires repositories, services and the web server for cfg.
//
// Development and test run on the in-memory repositories. The configured
// test email is provisioned as an admin, and when a database is configured
// its gallery is copied in. Production runs on PostgreSQL.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, connect connectFunc) (_ *app, err error) {
	a := &app{registry: observability.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var repos repositories
	if cfg.Ephemeral() {
		repos = memoryRepositories()
		if cfg.Database.URL != "" {
			if err := copyGallery(ctx, cfg, logger, connect, repos.images); err != nil {
				return nil, err
			}
		}
	} else {
		a.pool, err = connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		repos = postgresRepositories(a.pool)
	}

	metrics := observability.NewMetrics(a.registry)

	a.sessions, err = auth.NewSessionManager(repos.sessions,
		auth.WithSessionTTL(cfg.Session.TTL),
		auth.WithSessionLogger(logger),
		auth.WithSweepObserver(metrics.ObserveSwept))
	if err != nil {
		return nil, err
	}
	authService, err := auth.NewService(repos.users, repos.allowList, a.sessions, auth.NewArgon2idHasher(),
		auth.WithLogger(logger),
		auth.WithEventObserver(metrics.ObserveAuthEvent))
	if err != nil {
		return nil, err
	}
	a.allowList, err = auth.NewAllowListService(repos.allowList)
	if err != nil {
		return nil, err
	}
	forms, err := content.NewFormService(repos.forms, logger)
	if err != nil {
		return nil, err
	}
	objects, uploadsDir, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gallery, err := content.NewGalleryService(repos.images, objects,
		content.WithMaxImageBytes(cfg.Uploads.MaxBytes),
		content.WithGalleryLogger(logger))
	if err != nil {
		return nil, err
	}

	if cfg.Ephemeral() && cfg.Auth.TestEmail != "" {
		entry, err := a.allowList.EnsureAdmin(ctx, cfg.Auth.TestEmail)
		if err != nil {
			return nil, oops.Code("BOOTSTRAP_FAILED").With("operation", "provision test admin").Wrap(err)
		}
		logger.Info("test admin allow-listed", "email", entry.Email)
	}

	a.throttle = auth.NewLoginThrottle(rate.Limit(cfg.Auth.LoginRate), cfg.Auth.LoginBurst)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.web, err = web.New(web.Services{
		Auth:      authService,
		AllowList: a.allowList,
		Forms:     forms,
		Gallery:   gallery,
	}, web.Config{
		Secret:         cfg.Session.Secret,
		CookieName:     cfg.Session.CookieName,
		SessionTTL:     cfg.Session.TTL,
		SecureCookies:  cfg.IsProduction(),
		RequestTimeout: cfg.HTTP.RequestTimeout,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		UploadsDir:     uploadsDir,
		UploadsPrefix:  cfg.Uploads.URLPrefix,
	},
		web.WithLogger(logger),
		web.WithMetrics(metrics),
		web.WithThrottle(a.throttle))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// copyGallery loads the durable gallery into the ephemeral image store.
func copyGallery(ctx context.Context, cfg *config.Config, logger *slog.Logger, connect connectFunc, dst content.ImageRepository) error {
	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return oops.Code("BOOTSTRAP_FAILED").With("operation", "connect for gallery copy").Wrap(err)
	}
	defer pool.Close()

	n, err := content.CopyImages(ctx, contentpg.NewImageRepository(pool), dst)
	if err != nil {
		return oops.Code("BOOTSTRAP_FAILED").Wrap(err)
	}
	logger.Info("gallery copied into ephemeral store", "images", n)
	return nil
}

// openStorage returns the image storage and, for the filesystem backend,
// the directory to serve.
func openStorage(ctx context.Context, cfg *config.Config) (blob.Storage, string, error) {
	switch cfg.Uploads.Backend {
	case config.UploadsS3:
		s3cfg := cfg.Uploads.S3
		storage, err := blob.NewS3Storage(ctx, blob.S3Options{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			PublicURL: s3cfg.PublicURL,
		})
		return storage, "", err
	default:
		storage, err := blob.NewFSStorage(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
		if err != nil {
			return nil, "", err
		}
		return storage, storage.Dir(), nil
	}
}

// ready reports whether the backing store answers.
func (a *app) ready(ctx context.Context) error {
	if a.pool == nil {
		return nil
	}
	if err := a.pool.Ping(ctx); err != nil {
		return oops.Code("DB_NOT_READY").Wrap(err)
	}
	return nil
}

// Close releases the database pool.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
