// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const msgAllowedEmailNotFound = "No allowed email found with that ID"

type allowedEmailRequest struct {
	Email string `json:"email" form:"email"`
	Role  string `json:"role" form:"role"`
}

type allowedEmailPatchRequest struct {
	Email *string `json:"email" form:"email"`
	Role  *string `json:"role" form:"role"`
}

func (s *Server) listAllowedEmails(c *gin.Context) {
	entries, err := s.services.AllowList.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	n := len(entries)
	ok(c, http.StatusOK, envelope{Results: &n, Data: gin.H{"allowedEmails": entries}})
}

func (s *Server) addAllowedEmail(c *gin.Context) {
	var req allowedEmailRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	entry, err := s.services.AllowList.Add(c.Request.Context(), req.Email, req.Role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, envelope{Data: gin.H{"allowedEmail": entry}})
}

func (s *Server) updateAllowedEmail(c *gin.Context) {
	id, err := pathID(c, msgAllowedEmailNotFound)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req allowedEmailPatchRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	entry, err := s.services.AllowList.Update(c.Request.Context(), id, req.Email, req.Role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, envelope{Data: gin.H{"allowedEmail": entry}})
}

func (s *Server) deleteAllowedEmail(c *gin.Context) {
	id, err := pathID(c, msgAllowedEmailNotFound)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.services.AllowList.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
