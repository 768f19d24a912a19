// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/forgeline/forgeline/internal/store"
)

var _ = Describe("PostgreSQL store", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		pool      *pgxpool.Pool
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("forgeline_test"),
			postgres.WithUsername("forgeline"),
			postgres.WithPassword("forgeline"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
	})

	It("connects with retry", func() {
		var err error
		pool, err = store.Connect(ctx, connStr, store.ConnectOptions{Timeout: 30 * time.Second})
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Ping(ctx)).To(Succeed())
	})

	It("migrates up from a fresh database", func() {
		m, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer m.Close()

		version, dirty, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		Expect(m.Up()).To(Succeed())
		pending, err := m.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())
	})

	It("reports unique violations on duplicate emails", func() {
		_, err := pool.Exec(ctx, `INSERT INTO allowed_emails (id, email, role) VALUES ('a', 'x@y.co', 'user')`)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, `INSERT INTO allowed_emails (id, email, role) VALUES ('b', 'x@y.co', 'admin')`)
		Expect(store.IsUniqueViolation(err)).To(BeTrue())
	})

	It("migrates down and back up", func() {
		m, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer m.Close()

		Expect(m.Down()).To(Succeed())
		version, _, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(m.Up()).To(Succeed())
	})
})
