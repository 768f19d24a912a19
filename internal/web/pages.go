// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forgeline/forgeline/internal/content"
)

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// render executes a page template with the shared layout data. The pending
// flash is consumed here.
func (s *Server) render(c *gin.Context, status int, name, current string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["currentPage"] = current
	data["messages"] = s.takeFlash(c)
	if snapshot, ok := currentSnapshot(c); ok {
		data["user"] = snapshot
	}
	c.HTML(status, name, data)
}

func (s *Server) page(name, current string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.render(c, http.StatusOK, name, current, nil)
	}
}

func (s *Server) galleryPage(c *gin.Context) {
	filter := c.Query("category")
	images, err := s.services.Gallery.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if filter == "" {
		filter = string(content.CategoryAll)
	}
	s.render(c, http.StatusOK, "gallery.html", "gallery", gin.H{
		"images":     images,
		"categories": content.Categories,
		"category":   filter,
	})
}

func (s *Server) galleryManagementPage(c *gin.Context) {
	images, err := s.services.Gallery.List(c.Request.Context(), "")
	if err != nil {
		s.failPage(c, err, landingPage)
		return
	}
	s.render(c, http.StatusOK, "gallery-management.html", "gallery-management", gin.H{
		"images":     images,
		"categories": content.Categories,
		"maxBytes":   s.services.Gallery.MaxBytes(),
	})
}

func (s *Server) allowedEmailsPage(c *gin.Context) {
	entries, err := s.services.AllowList.List(c.Request.Context())
	if err != nil {
		s.failPage(c, err, landingPage)
		return
	}
	s.render(c, http.StatusOK, "allowed-emails.html", "allowed-emails", gin.H{
		"allowedEmails": entries,
	})
}
