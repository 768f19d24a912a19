// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/forgeline/forgeline/internal/apperr"
)

// MinPasswordLength is the shortest acceptable password. It matches the
// min tag on the password fields below.
const MinPasswordLength = 8

var validate = validator.New(validator.WithRequiredStructEnabled())

var passwordRules = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`[A-Z]`), "uppercase letter"},
	{regexp.MustCompile(`\d`), "number"},
	{regexp.MustCompile(`[@$!%*?&]`), "special character"},
}

var fieldMessages = map[string]string{
	"Email.required":              "Email is required.",
	"Email.email":                 "Please enter a valid email address.",
	"Password.required":           "Password is required.",
	"Password.min":                "Password must be at least 8 characters long.",
	"ConfirmPassword.required":    "Please confirm your password.",
	"ConfirmPassword.eqfield":     "Passwords must match.",
	"CurrentPassword.required":    "Current password is required.",
	"NewPassword.required":        "Password is required.",
	"NewPassword.min":             "Password must be at least 8 characters long.",
	"ConfirmNewPassword.required": "Please confirm your new password.",
	"ConfirmNewPassword.eqfield":  "New passwords must match.",
}

// RegisterInput is a registration request.
type RegisterInput struct {
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=Password"`
}

// Validate collects every problem with the input into one Validation error.
func (in RegisterInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)
	fields := apperr.Fields(validate.Struct(in))

	var msgs []string
	msgs = fields.Append(msgs, "Email", fieldMessages)
	msgs = appendPasswordProblems(msgs, fields, "Password", in.Password)
	msgs = fields.Append(msgs, "ConfirmPassword", fieldMessages)
	return validationError(msgs)
}

// LoginInput is a login request.
type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Validate checks that both fields are present and the email is well formed.
func (in LoginInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)
	fields := apperr.Fields(validate.Struct(in))

	var msgs []string
	msgs = fields.Append(msgs, "Email", fieldMessages)
	msgs = fields.Append(msgs, "Password", fieldMessages)
	return validationError(msgs)
}

// ChangePasswordInput is a password change request.
type ChangePasswordInput struct {
	CurrentPassword    string `json:"currentPassword" form:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" form:"newPassword" validate:"required,min=8"`
	ConfirmNewPassword string `json:"confirmNewPassword" form:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

// Validate applies the password policy to the new password.
func (in ChangePasswordInput) Validate() error {
	fields := apperr.Fields(validate.Struct(in))

	var msgs []string
	msgs = fields.Append(msgs, "CurrentPassword", fieldMessages)
	msgs = appendPasswordProblems(msgs, fields, "NewPassword", in.NewPassword)
	msgs = fields.Append(msgs, "ConfirmNewPassword", fieldMessages)
	return validationError(msgs)
}

// appendPasswordProblems reports the tag failure for field, then every
// character class a non-empty password lacks.
func appendPasswordProblems(msgs []string, fields apperr.FieldErrors, field, password string) []string {
	msgs = fields.Append(msgs, field, fieldMessages)
	if password == "" {
		return msgs
	}
	for _, rule := range passwordRules {
		if !rule.pattern.MatchString(password) {
			msgs = append(msgs, "Password must include at least one "+rule.name+".")
		}
	}
	return msgs
}

func validationError(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return apperr.Validation(msgs...)
}
