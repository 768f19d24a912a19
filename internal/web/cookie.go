// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/samber/oops"
)

// CookieSigner authenticates cookie values with HMAC-SHA256.
// A signed value is "payload.signature" with a base64url signature.
type CookieSigner struct {
	key []byte
}

// NewCookieSigner creates a signer. The secret must not be empty.
func NewCookieSigner(secret string) (*CookieSigner, error) {
	if secret == "" {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("cookie secret is required")
	}
	return &CookieSigner{key: []byte(secret)}, nil
}

// Sign returns payload with its signature appended.
func (s *CookieSigner) Sign(payload string) string {
	return payload + "." + base64.RawURLEncoding.EncodeToString(s.mac(payload))
}

// Verify returns the payload of a signed value. ok is false for unsigned,
// malformed or tampered values.
func (s *CookieSigner) Verify(signed string) (payload string, ok bool) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", false
	}
	sig, err := base64.RawURLEncoding.DecodeString(signed[i+1:])
	if err != nil {
		return "", false
	}
	payload = signed[:i]
	if !hmac.Equal(sig, s.mac(payload)) {
		return "", false
	}
	return payload, true
}

func (s *CookieSigner) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

// Flash holds one-shot messages shown on the next page render.
type Flash struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty reports whether the flash carries no message.
func (f Flash) Empty() bool {
	return f.Success == "" && f.Error == ""
}

func (s *CookieSigner) encodeFlash(f Flash) (string, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return "", oops.Code("FLASH_ENCODE_FAILED").Wrap(err)
	}
	return s.Sign(base64.RawURLEncoding.EncodeToString(raw)), nil
}

func (s *CookieSigner) decodeFlash(value string) (Flash, bool) {
	payload, ok := s.Verify(value)
	if !ok {
		return Flash{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Flash{}, false
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		return Flash{}, false
	}
	return f, true
}
