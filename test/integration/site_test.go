// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/forgeline/forgeline/internal/auth"
	authpg "github.com/forgeline/forgeline/internal/auth/postgres"
	"github.com/forgeline/forgeline/internal/blob"
	"github.com/forgeline/forgeline/internal/content"
	contentpg "github.com/forgeline/forgeline/internal/content/postgres"
	"github.com/forgeline/forgeline/internal/web"
)

const (
	adminEmail = "owner@example.com"
	password   = "Passw0rd!"
)

// browser is an HTTP client with a cookie jar that does not follow redirects.
type browser struct {
	base   string
	client *http.Client
}

func newBrowser(base string) *browser {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &browser{
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(method, path string, body any) (int, map[string]any, http.Header) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.base+path, r)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	var decoded map[string]any
	if json.Valid(raw) {
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
	}
	return resp.StatusCode, decoded, resp.Header
}

func credentials(email string) map[string]string {
	return map[string]string{"email": email, "password": password, "confirmPassword": password}
}

var _ = Describe("Site against PostgreSQL", func() {
	var (
		ctx       context.Context
		server    *httptest.Server
		allowList *auth.AllowListService
	)

	BeforeEach(func() {
		ctx = context.Background()
		truncateAll(ctx, env.pool)

		allowRepo := authpg.NewAllowListRepository(env.pool)
		sessions, err := auth.NewSessionManager(authpg.NewSessionRepository(env.pool))
		Expect(err).NotTo(HaveOccurred())
		hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
			Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
		})
		authSvc, err := auth.NewService(authpg.NewUserRepository(env.pool), allowRepo, sessions, hasher)
		Expect(err).NotTo(HaveOccurred())
		allowList, err = auth.NewAllowListService(allowRepo)
		Expect(err).NotTo(HaveOccurred())
		forms, err := content.NewFormService(contentpg.NewFormRepository(env.pool), nil)
		Expect(err).NotTo(HaveOccurred())

		uploads := GinkgoT().TempDir()
		objects, err := blob.NewFSStorage(uploads, "/uploads")
		Expect(err).NotTo(HaveOccurred())
		gallery, err := content.NewGalleryService(contentpg.NewImageRepository(env.pool), objects)
		Expect(err).NotTo(HaveOccurred())

		srv, err := web.New(web.Services{
			Auth:      authSvc,
			AllowList: allowList,
			Forms:     forms,
			Gallery:   gallery,
		}, web.Config{
			Secret:         "an-integration-secret-of-32-bytes!",
			CookieName:     "forgeline.sid",
			SessionTTL:     time.Hour,
			RequestTimeout: 10 * time.Second,
			UploadsDir:     uploads,
		})
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(srv.Handler())

		_, err = allowList.Add(ctx, adminEmail, string(auth.RoleAdmin))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("registers an allow-listed admin who manages the allow-list", func() {
		admin := newBrowser(server.URL)

		status, body, _ := admin.do(http.MethodPost, "/api/auth/register", credentials(adminEmail))
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body["message"]).To(Equal(auth.MsgRegistered))

		status, body, _ = admin.do(http.MethodGet, "/api/auth/current-user", nil)
		Expect(status).To(Equal(http.StatusOK))
		user := body["data"].(map[string]any)["user"].(map[string]any)
		Expect(user["role"]).To(Equal("admin"))

		status, _, _ = admin.do(http.MethodPost, "/api/allowed-emails",
			map[string]string{"email": "crew@example.com", "role": "user"})
		Expect(status).To(Equal(http.StatusCreated))

		crew := newBrowser(server.URL)
		status, _, _ = crew.do(http.MethodPost, "/api/auth/register", credentials("crew@example.com"))
		Expect(status).To(Equal(http.StatusCreated))
		status, _, _ = crew.do(http.MethodGet, "/api/allowed-emails", nil)
		Expect(status).To(Equal(http.StatusForbidden))

		stranger := newBrowser(server.URL)
		status, body, _ = stranger.do(http.MethodPost, "/api/auth/register", credentials("stranger@example.com"))
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body["message"]).To(Equal(auth.MsgEmailNotAllowed))
	})

	It("destroys the stored session on logout", func() {
		b := newBrowser(server.URL)
		status, _, _ := b.do(http.MethodPost, "/api/auth/register", credentials(adminEmail))
		Expect(status).To(Equal(http.StatusCreated))

		var count int
		Expect(env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM web_sessions`).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(1))

		status, _, header := b.do(http.MethodPost, "/api/auth/logout", nil)
		Expect(status).To(Equal(http.StatusFound))
		Expect(header.Get("Location")).To(Equal("/login"))

		Expect(env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM web_sessions`).Scan(&count)).To(Succeed())
		Expect(count).To(BeZero())

		status, _, _ = b.do(http.MethodGet, "/api/auth/current-user", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
	})

	It("answers unknown emails and wrong passwords identically", func() {
		b := newBrowser(server.URL)
		status, _, _ := b.do(http.MethodPost, "/api/auth/register", credentials(adminEmail))
		Expect(status).To(Equal(http.StatusCreated))

		other := newBrowser(server.URL)
		unknownStatus, unknown, _ := other.do(http.MethodPost, "/api/auth/login",
			map[string]string{"email": "nobody@example.com", "password": password})
		wrongStatus, wrong, _ := other.do(http.MethodPost, "/api/auth/login",
			map[string]string{"email": adminEmail, "password": "Wr0ng!pass"})

		Expect(unknownStatus).To(Equal(http.StatusUnauthorized))
		Expect(wrongStatus).To(Equal(unknownStatus))
		Expect(wrong).To(Equal(unknown))
	})

	It("stores contact submissions for the dashboard", func() {
		visitor := newBrowser(server.URL)
		status, _, _ := visitor.do(http.MethodPost, "/api/forms/submit", map[string]string{
			"name": "Jo Welder", "email": "JO@example.com", "phone": "555-123-4567",
			"message": "Need a stair stringer welded.",
		})
		Expect(status).To(Equal(http.StatusCreated))

		admin := newBrowser(server.URL)
		status, _, _ = admin.do(http.MethodPost, "/api/auth/register", credentials(adminEmail))
		Expect(status).To(Equal(http.StatusCreated))

		status, body, _ := admin.do(http.MethodGet, "/api/forms", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["results"]).To(BeEquivalentTo(1))
		form := body["data"].(map[string]any)["forms"].([]any)[0].(map[string]any)
		Expect(form["email"]).To(Equal("jo@example.com"))

		status, _, header := admin.do(http.MethodGet, "/api/forms/export", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(header.Get("Content-Disposition")).To(ContainSubstring("contact-forms-"))
	})
})
