// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/content"
)

// ImageRepository stores gallery images in memory.
type ImageRepository struct {
	mu     sync.RWMutex
	images map[ulid.ULID]content.Image
}

var _ content.ImageRepository = (*ImageRepository)(nil)

// NewImageRepository creates an empty ImageRepository.
func NewImageRepository() *ImageRepository {
	return &ImageRepository{images: make(map[ulid.ULID]content.Image)}
}

// Create stores img unless its filename is taken.
func (r *ImageRepository) Create(_ context.Context, img *content.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.images {
		if existing.Filename == img.Filename {
			return oops.Code("IMAGE_DUPLICATE").With("filename", img.Filename).Wrap(apperr.ErrDuplicateKey)
		}
	}
	r.images[img.ID] = *img
	return nil
}

// GetByID returns the image with id.
func (r *ImageRepository) GetByID(_ context.Context, id ulid.ULID) (*content.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[id]
	if !ok {
		return nil, oops.Code("IMAGE_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	return &img, nil
}

// List returns images in category (all when empty), newest first.
func (r *ImageRepository) List(_ context.Context, category content.Category) ([]*content.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*content.Image, 0, len(r.images))
	for _, i := range r.images {
		if category != "" && i.Category != category {
			continue
		}
		img := i
		out = append(out, &img)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID.Compare(out[j].ID) > 0
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// Update applies patch to the image with id.
func (r *ImageRepository) Update(_ context.Context, id ulid.ULID, patch content.ImagePatch) (*content.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.images[id]
	if !ok {
		return nil, oops.Code("IMAGE_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	updated := patch.Apply(current)
	r.images[id] = updated
	return &updated, nil
}

// Delete removes the image with id.
func (r *ImageRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[id]; !ok {
		return oops.Code("IMAGE_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	delete(r.images, id)
	return nil
}

// ReplaceAll swaps the gallery for images.
func (r *ImageRepository) ReplaceAll(_ context.Context, images []*content.Image) error {
	next := make(map[ulid.ULID]content.Image, len(images))
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		if _, dup := seen[img.Filename]; dup {
			return oops.Code("IMAGE_DUPLICATE").With("filename", img.Filename).Wrap(apperr.ErrDuplicateKey)
		}
		seen[img.Filename] = struct{}{}
		next[img.ID] = *img
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = next
	return nil
}
