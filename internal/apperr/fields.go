// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package apperr

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a struct field name to the first validator tag it failed.
type FieldErrors map[string]string

// Fields indexes the failures carried by an error from validator's Struct.
// A nil error yields an empty set.
func Fields(err error) FieldErrors {
	fields := FieldErrors{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.StructField()] = fe.Tag()
		}
	}
	return fields
}

// Append adds the message for field to msgs when the field failed. Messages
// are keyed "Field.tag"; a tag with no entry falls back to a generic message.
func (f FieldErrors) Append(msgs []string, field string, messages map[string]string) []string {
	tag, ok := f[field]
	if !ok {
		return msgs
	}
	if msg, ok := messages[field+"."+tag]; ok {
		return append(msgs, msg)
	}
	return append(msgs, field+" is invalid.")
}
