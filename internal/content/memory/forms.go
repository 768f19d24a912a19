// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package memory implements the content repositories in process memory.
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

// FormRepository stores contact forms in memory.
type FormRepository struct {
	mu    sync.RWMutex
	forms map[ulid.ULID]content.ContactForm
}

var _ content.FormRepository = (*FormRepository)(nil)

// NewFormRepository creates an empty FormRepository.
func NewFormRepository() *FormRepository {
	return &FormRepository{forms: make(map[ulid.ULID]content.ContactForm)}
}

// Create stores form.
func (r *FormRepository) Create(_ context.Context, form *content.ContactForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms[form.ID] = *form
	return nil
}

// List returns every form ordered by SubmittedAt.
func (r *FormRepository) List(_ context.Context, newestFirst bool) ([]*content.ContactForm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*content.ContactForm, 0, len(r.forms))
	for _, f := range r.forms {
		form := f
		out = append(out, &form)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID.Compare(out[j].ID) < 0 != newestFirst
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt) != newestFirst
	})
	return out, nil
}

// Delete removes the form with id.
func (r *FormRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.forms[id]; !ok {
		return oops.Code("FORM_NOT_FOUND").With("id", id.String()).Wrap(apperr.ErrNotFound)
	}
	delete(r.forms, id)
	return nil
}

// DeleteAll removes every form.
func (r *FormRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.forms))
	r.forms = make(map[ulid.ULID]content.ContactForm)
	return n, nil
}
