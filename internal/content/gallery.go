// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/blob"
)

// Gallery messages.
const (
	MsgNoImage           = "No image uploaded"
	MsgMissingImageMeta  = "Missing description or category"
	MsgNotAnImage        = "Not an image file!"
	MsgInvalidCategory   = "Category must be one of all, pipes or structural"
	MsgImageTooLarge     = "Image is too large"
	MsgImageNotFound     = "Image not found"
	MsgImageNothingToSet = "Nothing to update"
	MsgImageDeleted      = "Image deleted successfully"
)

// DefaultMaxImageBytes caps uploads when no limit is configured.
const DefaultMaxImageBytes int64 = 10 << 20

// UploadInput is a received image upload. Body is nil when no file was sent.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Category    string
	Description string
}

// GalleryOption configures a GalleryService.
type GalleryOption func(*GalleryService)

// WithMaxImageBytes sets the upload size limit.
func WithMaxImageBytes(n int64) GalleryOption {
	return func(s *GalleryService) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithGalleryLogger sets the service logger.
func WithGalleryLogger(logger *slog.Logger) GalleryOption {
	return func(s *GalleryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// GalleryService manages gallery images and their stored objects.
type GalleryService struct {
	repo     ImageRepository
	objects  blob.Storage
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

// NewGalleryService creates a GalleryService.
func NewGalleryService(repo ImageRepository, objects blob.Storage, opts ...GalleryOption) (*GalleryService, error) {
	if repo == nil {
		return nil, oops.Code("GALLERY_INVALID_CONFIG").Errorf("image repository is required")
	}
	if objects == nil {
		return nil, oops.Code("GALLERY_INVALID_CONFIG").Errorf("object storage is required")
	}
	s := &GalleryService{
		repo:     repo,
		objects:  objects,
		maxBytes: DefaultMaxImageBytes,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxBytes returns the upload size limit.
func (s *GalleryService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores the object and then its record. If the record cannot be
// written the object is removed again.
func (s *GalleryService) Upload(ctx context.Context, in UploadInput) (*Image, error) {
	if in.Body == nil {
		return nil, oops.Code("IMAGE_MISSING").Wrap(apperr.Validation(MsgNoImage))
	}
	description := strings.TrimSpace(in.Description)
	if description == "" || in.Category == "" {
		return nil, oops.Code("IMAGE_MISSING_META").Wrap(apperr.Validation(MsgMissingImageMeta))
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return nil, oops.Code("IMAGE_NOT_IMAGE").
			With("content_type", in.ContentType).
			Wrap(apperr.Validation(MsgNotAnImage))
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return nil, oops.Code("IMAGE_INVALID_CATEGORY").Wrap(apperr.Validation(MsgInvalidCategory))
	}
	if in.Size > s.maxBytes {
		return nil, oops.Code("IMAGE_TOO_LARGE").
			With("size", in.Size).
			With("limit", s.maxBytes).
			Wrap(apperr.Validation(MsgImageTooLarge))
	}

	key := blob.NewKey(in.Filename)
	path, err := s.objects.Put(ctx, key, in.ContentType, &cappedReader{r: in.Body, left: s.maxBytes}, in.Size)
	if errors.Is(err, blob.ErrInvalidKey) {
		return nil, oops.Code("IMAGE_NOT_IMAGE").
			With("filename", in.Filename).
			Wrap(apperr.Validation(MsgNotAnImage))
	}
	if err != nil {
		return nil, oops.Code("IMAGE_UPLOAD_FAILED").With("operation", "store object").Wrap(err)
	}

	img := &Image{
		ID:          ulid.Make(),
		Filename:    key,
		Description: description,
		Category:    category,
		Path:        path,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, img); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned image object", "key", key, "error", delErr)
		}
		return nil, oops.Code("IMAGE_UPLOAD_FAILED").With("operation", "create record").Wrap(err)
	}
	s.logger.InfoContext(ctx, "image uploaded", "image_id", img.ID.String(), "key", key)
	return img, nil
}

// Update edits the description and category.
func (s *GalleryService) Update(ctx context.Context, id ulid.ULID, description, category *string) (*Image, error) {
	var patch ImagePatch
	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			return nil, oops.Code("IMAGE_MISSING_META").Wrap(apperr.Validation(MsgMissingImageMeta))
		}
		patch.Description = &d
	}
	if category != nil {
		c, err := ParseCategory(*category)
		if err != nil {
			return nil, oops.Code("IMAGE_INVALID_CATEGORY").Wrap(apperr.Validation(MsgInvalidCategory))
		}
		patch.Category = &c
	}
	if patch.Empty() {
		return nil, oops.Code("IMAGE_EMPTY_PATCH").Wrap(apperr.Validation(MsgImageNothingToSet))
	}

	img, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, notFoundImage(id)
		}
		return nil, oops.Code("IMAGE_UPDATE_FAILED").With("image_id", id.String()).Wrap(err)
	}
	return img, nil
}

// Delete removes the stored object and then the record.
func (s *GalleryService) Delete(ctx context.Context, id ulid.ULID) error {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return notFoundImage(id)
		}
		return oops.Code("IMAGE_DELETE_FAILED").With("image_id", id.String()).Wrap(err)
	}
	if err := s.objects.Delete(ctx, img.Filename); err != nil {
		return oops.Code("IMAGE_DELETE_FAILED").
			With("image_id", id.String()).
			With("operation", "delete object").
			Wrap(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return notFoundImage(id)
		}
		return oops.Code("IMAGE_DELETE_FAILED").With("image_id", id.String()).Wrap(err)
	}
	return nil
}

// List returns images newest first. The empty filter and "all" list every
// image; any other value must be a category.
func (s *GalleryService) List(ctx context.Context, filter string) ([]*Image, error) {
	var category Category
	if filter != "" && filter != string(CategoryAll) {
		c, err := ParseCategory(filter)
		if err != nil {
			return nil, oops.Code("IMAGE_INVALID_CATEGORY").Wrap(apperr.Validation(MsgInvalidCategory))
		}
		category = c
	}
	images, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, oops.Code("IMAGE_LIST_FAILED").Wrap(err)
	}
	return images, nil
}

// CopyImages replaces the gallery in dst with the one in src.
func CopyImages(ctx context.Context, src, dst ImageRepository) (int, error) {
	images, err := src.List(ctx, "")
	if err != nil {
		return 0, oops.Code("IMAGE_COPY_FAILED").With("operation", "list source").Wrap(err)
	}
	if err := dst.ReplaceAll(ctx, images); err != nil {
		return 0, oops.Code("IMAGE_COPY_FAILED").With("operation", "replace").Wrap(err)
	}
	return len(images), nil
}

// cappedReader fails once more than left bytes have been read.
type cappedReader struct {
	r    io.Reader
	left int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, apperr.Validation(MsgImageTooLarge)
	}
	return n, err
}

func notFoundImage(id ulid.ULID) error {
	return oops.Code("IMAGE_NOT_FOUND").
		With("image_id", id.String()).
		Wrap(apperr.NotFound(MsgImageNotFound))
}
