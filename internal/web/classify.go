// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"net/http"
	"strings"
)

// APIPrefix is the path prefix of the JSON API.
const APIPrefix = "/api/"

// Classifier reports whether a request is API-shaped.
type Classifier func(r *http.Request) bool

// PathClassifier treats every request under APIPrefix as API-shaped.
func PathClassifier(r *http.Request) bool {
	return r.URL.Path == strings.TrimSuffix(APIPrefix, "/") || strings.HasPrefix(r.URL.Path, APIPrefix)
}
