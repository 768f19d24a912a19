// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

//go:build integration

package cli_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("forgeline CLI", Ordered, func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("applies every migration", func() {
		output, err := forgeline(ctx, "migrate", "up")
		Expect(err).NotTo(HaveOccurred(), "migrate failed: %s", output)
		Expect(output).To(ContainSubstring("Migrations completed successfully"))
		Expect(output).To(ContainSubstring("000005_create_gallery_images"))

		output, err = forgeline(ctx, "migrate", "status")
		Expect(err).NotTo(HaveOccurred(), "status failed: %s", output)
		Expect(output).To(ContainSubstring("Up to date"))
	})

	It("allow-lists the first admin", func() {
		output, err := forgeline(ctx, "allow", "add", "--email", "Owner@Example.com", "--role", "admin")
		Expect(err).NotTo(HaveOccurred(), "allow add failed: %s", output)
		Expect(output).To(ContainSubstring("Allowed owner@example.com as admin"))

		var role string
		Expect(env.pool.QueryRow(ctx,
			`SELECT role FROM allowed_emails WHERE email = $1`, "owner@example.com",
		).Scan(&role)).To(Succeed())
		Expect(role).To(Equal("admin"))
	})

	It("rejects a duplicate allow-list entry", func() {
		output, err := forgeline(ctx, "allow", "add", "--email", "owner@example.com")
		Expect(err).To(HaveOccurred())
		Expect(output).To(ContainSubstring("already"))
	})

	It("replaces the gallery with seed images", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "railing.jpg"), []byte("jpeg"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "orphan.jpg"), []byte("jpeg"), 0o600)).To(Succeed())
		metadata := filepath.Join(dir, "gallery.yaml")
		Expect(os.WriteFile(metadata, []byte(
			"railing.jpg:\n  category: structural\n  description: Stair railing\n"), 0o600)).To(Succeed())

		output, err := forgeline(ctx, "seed", "images", "--dir", dir, "--metadata", metadata)
		Expect(err).NotTo(HaveOccurred(), "seed failed: %s", output)
		Expect(output).To(ContainSubstring("Skipped orphan.jpg"))
		Expect(output).To(ContainSubstring("Seeded 1 image(s)"))

		var count int
		Expect(env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gallery_images`).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(1))
		Expect(filepath.Join(env.uploadDir, "railing.jpg")).To(BeAnExistingFile())

		output, err = forgeline(ctx, "seed", "images", "--dir", dir, "--metadata", metadata)
		Expect(err).NotTo(HaveOccurred(), "second seed failed: %s", output)
		Expect(env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gallery_images`).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(1))
	})
})
