// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package content

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Category groups gallery images.
type Category string

// Gallery categories.
const (
	CategoryAll        Category = "all"
	CategoryPipes      Category = "pipes"
	CategoryStructural Category = "structural"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryAll, CategoryPipes, CategoryStructural}

// ParseCategory validates s as a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryAll, CategoryPipes, CategoryStructural:
		return c, nil
	default:
		return "", oops.Code("IMAGE_INVALID_CATEGORY").With("category", s).Errorf("unknown category %q", s)
	}
}

// Image is a gallery entry. Filename is the storage key and is unique.
type Image struct {
	ID          ulid.ULID `json:"id"`
	Filename    string    `json:"filename"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Path        string    `json:"path"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ImagePatch holds the editable fields; nil fields are left unchanged.
type ImagePatch struct {
	Description *string
	Category    *Category
}

// Empty reports whether the patch changes nothing.
func (p ImagePatch) Empty() bool {
	return p.Description == nil && p.Category == nil
}

// Apply returns a copy of img with the patch applied.
func (p ImagePatch) Apply(img Image) Image {
	if p.Description != nil {
		img.Description = *p.Description
	}
	if p.Category != nil {
		img.Category = *p.Category
	}
	return img
}

// ImageRepository persists gallery images.
type ImageRepository interface {
	// Create fails with apperr.ErrDuplicateKey if the filename exists.
	Create(ctx context.Context, img *Image) error
	GetByID(ctx context.Context, id ulid.ULID) (*Image, error)
	// List returns images newest first. An empty category lists everything.
	List(ctx context.Context, category Category) ([]*Image, error)
	Update(ctx context.Context, id ulid.ULID, patch ImagePatch) (*Image, error)
	Delete(ctx context.Context, id ulid.ULID) error
	// ReplaceAll atomically swaps the whole gallery for images.
	ReplaceAll(ctx context.Context, images []*Image) error
}
