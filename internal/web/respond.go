// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/pkg/errutil"
)

// Envelope statuses.
const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// Edge messages.
const (
	MsgNotAuthorized  = "Not authorized"
	MsgNotFound       = "Not found"
	MsgInvalidRequest = "Invalid request body"
)

// envelope is the JSON body of every API response.
type envelope struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Results  *int   `json:"results,omitempty"`
	Data     any    `json:"data,omitempty"`
}

func ok(c *gin.Context, status int, body envelope) {
	body.Status = statusSuccess
	c.JSON(status, body)
}

func statusWord(code int) string {
	if code >= 400 && code < 500 {
		return statusFail
	}
	return statusError
}

// respondError answers with the caller-facing form of err and aborts.
// API-shaped requests get the JSON envelope; pages are sent back to the
// home page with the message flashed.
func (s *Server) respondError(c *gin.Context, err error) {
	kind, msg := s.logFailure(c, err)
	if s.isAPI(c.Request) {
		c.AbortWithStatusJSON(kind.Status(), envelope{Status: statusWord(kind.Status()), Message: msg})
		return
	}
	if c.Request.URL.Path == "/" {
		s.render(c, kind.Status(), "error.html", "error", gin.H{"message": msg})
		c.Abort()
		return
	}
	s.redirectWithFlash(c, "/", Flash{Error: msg})
}

// failPage flashes the caller-facing message of err and redirects to target.
func (s *Server) failPage(c *gin.Context, err error, target string) {
	_, msg := s.logFailure(c, err)
	s.redirectWithFlash(c, target, Flash{Error: msg})
}

// logFailure logs operational errors at warn and faults at error.
func (s *Server) logFailure(c *gin.Context, err error) (apperr.Kind, string) {
	kind, msg := apperr.Classify(err)
	ctx := c.Request.Context()
	if kind.Operational() {
		s.logger.WarnContext(ctx, "operational error",
			"kind", kind.String(),
			"message", msg,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
		return kind, msg
	}
	errutil.LogErrorContext(ctx, s.logger.With("method", c.Request.Method, "path", c.Request.URL.Path),
		slog.LevelError, "request failed", err)
	return kind, msg
}

// deny rejects a request at the gate.
func (s *Server) deny(c *gin.Context, status int, msg, target string) {
	if s.isAPI(c.Request) {
		c.AbortWithStatusJSON(status, envelope{Status: statusFail, Message: msg})
		return
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func (s *Server) redirectWithFlash(c *gin.Context, target string, f Flash) {
	s.setFlash(c, f)
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func (s *Server) recovered(c *gin.Context, recovered any) {
	s.respondError(c, oops.Code("WEB_PANIC").
		With("path", c.Request.URL.Path).
		Errorf("panic: %v", recovered))
}

func (s *Server) notFound(c *gin.Context) {
	if s.isAPI(c.Request) {
		c.JSON(http.StatusNotFound, envelope{Status: statusFail, Message: MsgNotFound})
		return
	}
	s.render(c, http.StatusNotFound, "404.html", "404", nil)
}

// bind decodes the body into dst by content type.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		return oops.Code("WEB_BAD_REQUEST").Wrap(apperr.Validation(MsgInvalidRequest))
	}
	return nil
}

type idParam struct {
	ID string `uri:"id" binding:"required,len=26,alphanum"`
}

// pathID parses the :id parameter. A malformed id names nothing, so it is
// reported with the resource's not-found message.
func pathID(c *gin.Context, notFound string) (ulid.ULID, error) {
	var p idParam
	if err := c.ShouldBindUri(&p); err != nil {
		builder := oops.Code("WEB_INVALID_ID").With("id", c.Param("id"))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			builder = builder.With("rule", verrs[0].Tag())
		}
		return ulid.ULID{}, builder.Wrap(apperr.NotFound(notFound))
	}
	id, err := ulid.ParseStrict(p.ID)
	if err != nil {
		return ulid.ULID{}, oops.Code("WEB_INVALID_ID").With("id", p.ID).Wrap(apperr.NotFound(notFound))
	}
	return id, nil
}
