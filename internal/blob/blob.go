// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package blob stores uploaded image objects on the local filesystem or in
// an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Storage persists objects under flat keys.
type Storage interface {
	// Put stores body under key and returns the public path of the object.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ErrInvalidKey is wrapped by every key rejection.
var ErrInvalidKey = errors.New("invalid object key")

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// NewKey returns a fresh object key keeping the extension of originalName.
// An extension that is not short and alphanumeric is dropped.
func NewKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}

// validateKey rejects keys that could escape a flat namespace.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return oops.Code("BLOB_INVALID_KEY").With("key", key).Wrap(ErrInvalidKey)
	}
	return nil
}

func joinURL(prefix, key string) string {
	return strings.TrimRight(prefix, "/") + "/" + key
}
