// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package content holds the site content managed through the dashboard:
// contact form submissions and gallery images.
package content
