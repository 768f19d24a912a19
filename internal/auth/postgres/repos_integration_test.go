// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
	"github.com/forgeline/forgeline/internal/auth/postgres"
)

var _ = Describe("auth repositories", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		_, err := testPool.Exec(ctx, `TRUNCATE web_sessions, users, allowed_emails CASCADE`)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("UserRepository", func() {
		It("stores users and hides the hash unless asked", func() {
			repo := postgres.NewUserRepository(testPool)
			user, err := auth.NewUser("ada@example.com", "$argon2id$x", auth.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, user)).To(Succeed())

			plain, err := repo.GetByEmail(ctx, "ada@example.com", auth.WithoutSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(plain.PasswordHash).To(BeEmpty())
			Expect(plain.Role).To(Equal(auth.RoleAdmin))

			secret, err := repo.GetByID(ctx, user.ID, auth.WithSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(secret.PasswordHash).To(Equal("$argon2id$x"))
		})

		It("lets exactly one concurrent insert of the same email win", func() {
			repo := postgres.NewUserRepository(testPool)
			const racers = 8
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
				dupes     int
			)
			for range racers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					user, err := auth.NewUser("race@example.com", "h", auth.RoleUser)
					Expect(err).NotTo(HaveOccurred())
					err = repo.Create(ctx, user)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						succeeded++
					case errors.Is(err, apperr.ErrDuplicateKey):
						dupes++
					}
				}()
			}
			wg.Wait()
			Expect(succeeded).To(Equal(1))
			Expect(dupes).To(Equal(racers - 1))
		})
	})

	Describe("AllowListRepository", func() {
		It("lists newest first and keeps users when an entry is deleted", func() {
			repo := postgres.NewAllowListRepository(testPool)
			first, _ := auth.NewAllowedEmail("a@example.com", auth.RoleUser)
			second, _ := auth.NewAllowedEmail("b@example.com", auth.RoleAdmin)
			second.AddedAt = first.AddedAt.Add(time.Second)
			Expect(repo.Create(ctx, first)).To(Succeed())
			Expect(repo.Create(ctx, second)).To(Succeed())

			entries, err := repo.List(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Email).To(Equal("b@example.com"))

			user, _ := auth.NewUser("a@example.com", "h", auth.RoleUser)
			Expect(postgres.NewUserRepository(testPool).Create(ctx, user)).To(Succeed())
			Expect(repo.Delete(ctx, first.ID)).To(Succeed())

			_, err = postgres.NewUserRepository(testPool).GetByEmail(ctx, "a@example.com", auth.WithoutSecret)
			Expect(err).NotTo(HaveOccurred())
		})

		It("patches only the provided fields", func() {
			repo := postgres.NewAllowListRepository(testPool)
			entry, _ := auth.NewAllowedEmail("c@example.com", auth.RoleUser)
			Expect(repo.Create(ctx, entry)).To(Succeed())

			admin := auth.RoleAdmin
			updated, err := repo.Update(ctx, entry.ID, auth.AllowedEmailPatch{Role: &admin})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Email).To(Equal("c@example.com"))
			Expect(updated.Role).To(Equal(auth.RoleAdmin))
		})
	})

	Describe("SessionRepository", func() {
		It("never returns expired sessions and sweeps them", func() {
			user, _ := auth.NewUser("s@example.com", "h", auth.RoleUser)
			Expect(postgres.NewUserRepository(testPool).Create(ctx, user)).To(Succeed())

			repo := postgres.NewSessionRepository(testPool)
			now := time.Now().UTC().Truncate(time.Microsecond)
			s, err := auth.NewSession(user.Snapshot(), auth.HashSessionToken("t"), now, time.Minute)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.Create(ctx, s)).To(Succeed())

			got, err := repo.GetByTokenHash(ctx, s.TokenHash, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Snapshot.Email).To(Equal("s@example.com"))

			later := now.Add(time.Minute)
			_, err = repo.GetByTokenHash(ctx, s.TokenHash, later)
			Expect(err).To(MatchError(apperr.ErrNotFound))

			n, err := repo.DeleteExpired(ctx, later)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))
		})
	})
})
