// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package content

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
)

// Contact form messages.
const (
	MsgFormSubmitted   = "Form submitted successfully!"
	MsgFormNotFound    = "Form not found"
	MsgFormDeleted     = "Form deleted successfully"
	MsgAllFormsDeleted = "All forms deleted successfully"
)

// Contact form field limits.
const (
	MinNameLength    = 2
	MaxNameLength    = 50
	MinMessageLength = 10
	MaxMessageLength = 1000
)

var phonePattern = regexp.MustCompile(`^(\+\d{1,2}\s?)?1?\-?\.?\s?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}$`)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}()

var formMessages = map[string]string{
	"Name.required":    "Name is required.",
	"Name.min":         "Name must be at least 2 characters long.",
	"Name.max":         "Name cannot exceed 50 characters.",
	"Email.required":   "Email is required.",
	"Email.email":      "Please enter a valid email address.",
	"Phone.required":   "Phone number is required.",
	"Phone.phone":      "Please enter a valid phone number.",
	"Message.required": "Message is required.",
	"Message.min":      "Message must be at least 10 characters long.",
	"Message.max":      "Message cannot exceed 1000 characters.",
}

// ContactForm is a submission from the public contact page.
type ContactForm struct {
	ID          ulid.ULID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ContactFormInput is an unvalidated submission.
type ContactFormInput struct {
	Name    string `json:"name" form:"name" validate:"required,min=2,max=50"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Phone   string `json:"phone" form:"phone" validate:"required,phone"`
	Message string `json:"message" form:"message" validate:"required,min=10,max=1000"`
}

// Normalize trims every field and lowercases the email.
func (in ContactFormInput) Normalize() ContactFormInput {
	return ContactFormInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   auth.NormalizeEmail(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Message: strings.TrimSpace(in.Message),
	}
}

// Validate reports every problem with the normalized input at once.
func (in ContactFormInput) Validate() error {
	in = in.Normalize()
	fields := apperr.Fields(validate.Struct(in))

	var msgs []string
	for _, field := range []string{"Name", "Email", "Phone", "Message"} {
		msgs = fields.Append(msgs, field, formMessages)
	}
	if len(msgs) > 0 {
		return apperr.Validation(msgs...)
	}
	return nil
}

// FormRepository persists contact form submissions.
type FormRepository interface {
	Create(ctx context.Context, form *ContactForm) error
	// List returns every submission ordered by submittedAt.
	List(ctx context.Context, newestFirst bool) ([]*ContactForm, error)
	// Delete returns an error wrapping apperr.ErrNotFound if id is absent.
	Delete(ctx context.Context, id ulid.ULID) error
	// DeleteAll removes every submission and returns how many there were.
	DeleteAll(ctx context.Context) (int64, error)
}

// FormService handles contact form submissions.
type FormService struct {
	repo   FormRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewFormService creates a FormService.
func NewFormService(repo FormRepository, logger *slog.Logger) (*FormService, error) {
	if repo == nil {
		return nil, oops.Code("FORM_INVALID_CONFIG").Errorf("form repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FormService{repo: repo, logger: logger, now: time.Now}, nil
}

// Submit validates and stores a submission.
func (s *FormService) Submit(ctx context.Context, in ContactFormInput) (*ContactForm, error) {
	if err := in.Validate(); err != nil {
		return nil, oops.Code("FORM_INVALID").Wrap(err)
	}
	in = in.Normalize()
	form := &ContactForm{
		ID:          ulid.Make(),
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Message:     in.Message,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, oops.Code("FORM_SUBMIT_FAILED").Wrap(err)
	}
	s.logger.InfoContext(ctx, "contact form submitted", "form_id", form.ID.String())
	return form, nil
}

// List returns submissions newest first.
func (s *FormService) List(ctx context.Context) ([]*ContactForm, error) {
	forms, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, oops.Code("FORM_LIST_FAILED").Wrap(err)
	}
	return forms, nil
}

// Delete removes one submission.
func (s *FormService) Delete(ctx context.Context, id ulid.ULID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return oops.Code("FORM_NOT_FOUND").
				With("form_id", id.String()).
				Wrap(apperr.NotFound(MsgFormNotFound))
		}
		return oops.Code("FORM_DELETE_FAILED").With("form_id", id.String()).Wrap(err)
	}
	return nil
}

// DeleteAll removes every submission.
func (s *FormService) DeleteAll(ctx context.Context) error {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return oops.Code("FORM_DELETE_ALL_FAILED").Wrap(err)
	}
	s.logger.InfoContext(ctx, "contact forms cleared", "count", n)
	return nil
}
