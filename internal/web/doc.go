// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package web serves the forgeline site and its JSON API over gin.
//
// Every request is classified once as API-shaped or page-shaped. The access
// gate and the error responder both consult that classification, so an API
// caller always gets a JSON envelope and a browser always gets a redirect
// with a flash message.
package web
