// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forgeline/forgeline/internal/content"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) submitForm(c *gin.Context) {
	var in content.ContactFormInput
	if err := bind(c, &in); err != nil {
		s.respondError(c, err)
		return
	}
	form, err := s.services.Forms.Submit(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, envelope{Message: content.MsgFormSubmitted, Data: gin.H{"form": form}})
}

func (s *Server) listForms(c *gin.Context) {
	forms, err := s.services.Forms.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	n := len(forms)
	ok(c, http.StatusOK, envelope{Results: &n, Data: gin.H{"forms": forms}})
}

func (s *Server) deleteForm(c *gin.Context) {
	id, err := pathID(c, content.MsgFormNotFound)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.services.Forms.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, envelope{Message: content.MsgFormDeleted})
}

func (s *Server) deleteAllForms(c *gin.Context) {
	if err := s.services.Forms.DeleteAll(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, envelope{Message: content.MsgAllFormsDeleted})
}

// exportForms buffers the workbook so a failure can still be reported.
func (s *Server) exportForms(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.services.Forms.Export(c.Request.Context(), &buf); err != nil {
		s.respondError(c, err)
		return
	}
	name := fmt.Sprintf("contact-forms-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
