// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/forgeline/forgeline/internal/observability"
	"github.com/forgeline/forgeline/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	evictionInterval  = time.Minute
	readHeaderTimeout = 10 * time.Second
)

var autoMigrate bool

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the site, the JSON API and, when configured, the metrics and
health endpoints. Development and test environments keep all state in memory.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "listen host")
	cmd.Flags().Int("port", 0, "listen port")
	cmd.Flags().StringSlice("trusted-proxies", nil, "proxy IPs or CIDRs whose X-Forwarded-For is trusted")
	cmd.Flags().String("metrics-addr", "", "metrics and health listen address (empty disables)")
	cmd.Flags().String("upload-dir", "", "directory for uploaded images (fs backend)")
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving (production only)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogging(cmd, cfg)
	if err != nil {
		return err
	}
	if cfg.GeneratedSecret {
		logger.Warn("no session secret configured, sessions will not survive a restart")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if autoMigrate && !cfg.Ephemeral() {
		if err := migrateUp(cmd, cfg.Database.URL); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger, connectDatabase)
	if err != nil {
		return oops.Code("SERVER_START_FAILED").With("operation", "build application").Wrap(err)
	}
	defer a.Close()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Addr()).Wrap(err)
	}

	srv := &http.Server{
		Handler:           a.web.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	errChan := make(chan error, 2)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- oops.Code("SERVER_FAILED").Wrap(err)
		}
	}()
	logger.Info("server started", "addr", listener.Addr().String(), "env", cfg.Env)

	go a.sessions.RunSweeper(ctx, cfg.Session.SweepInterval)
	go a.throttle.RunEviction(ctx, evictionInterval)

	var obs *observability.Server
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, a.registry, a.ready, logger)
		obsErrs, err := obs.Start()
		if err != nil {
			shutdownHTTP(srv, logger)
			return oops.Code("SERVER_START_FAILED").With("operation", "start observability server").Wrap(err)
		}
		go func() {
			if err := <-obsErrs; err != nil {
				errChan <- err
			}
		}()
		cmd.Printf("Metrics listening on %s\n", obs.Addr())
	}

	cmd.Printf("Forgeline listening on http://%s\n", listener.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled")
	case runErr = <-errChan:
		logger.Error("server error", "error", runErr)
	}

	cancel()
	shutdownHTTP(srv, logger)
	if obs != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := obs.Stop(stopCtx); err != nil {
			logger.Warn("observability server shutdown", "error", err)
		}
		stopCancel()
	}

	cmd.Println("Server stopped")
	return runErr
}

func shutdownHTTP(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}
}

// migrateUp applies pending migrations for serve --migrate.
func migrateUp(cmd *cobra.Command, databaseURL string) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer closeMigrator(cmd, m)

	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}
