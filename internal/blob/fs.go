// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package blob

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// FSStorage keeps objects as files in one directory, served under URLPrefix.
type FSStorage struct {
	dir       string
	urlPrefix string
}

var _ Storage = (*FSStorage)(nil)

// NewFSStorage creates the directory if needed.
func NewFSStorage(dir, urlPrefix string) (*FSStorage, error) {
	if dir == "" {
		return nil, oops.Code("BLOB_INVALID_CONFIG").Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, oops.Code("BLOB_DIR_CREATE_FAILED").With("dir", dir).Wrap(err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &FSStorage{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir returns the storage directory.
func (s *FSStorage) Dir() string {
	return s.dir
}

// Put writes body to a temp file and renames it into place.
func (s *FSStorage) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", oops.Code("BLOB_WRITE_FAILED").With("key", key).Wrap(err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return "", oops.Code("BLOB_WRITE_FAILED").With("key", key).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return "", oops.Code("BLOB_WRITE_FAILED").With("key", key).Wrap(err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return "", oops.Code("BLOB_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return joinURL(s.urlPrefix, key), nil
}

// Delete removes the file for key.
func (s *FSStorage) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("BLOB_DELETE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}
