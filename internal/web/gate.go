// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
)

const snapshotKey = "forgeline.snapshot"

// RequireSession resolves the session cookie and stores the snapshot on the
// context. Without a valid session API requests get 401 and pages are sent
// to /login.
func (s *Server) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.sessionToken(c)
		snapshot, err := s.services.Auth.Resolve(c.Request.Context(), token)
		if err != nil {
			if !apperr.Is(err, apperr.KindUnauthorized) {
				s.respondError(c, err)
				return
			}
			if _, cerr := c.Cookie(s.cfg.CookieName); cerr == nil {
				s.clearSessionCookie(c)
			}
			s.deny(c, http.StatusUnauthorized, auth.MsgNotAuthenticated, "/login")
			return
		}
		c.Set(snapshotKey, snapshot)
		c.Next()
	}
}

// RequireRole admits sessions whose role is in roles. It must run after
// RequireSession. Other roles get 403 on the API and /dashboard on pages.
func (s *Server) RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, ok := currentSnapshot(c)
		if !ok {
			s.deny(c, http.StatusUnauthorized, auth.MsgNotAuthenticated, "/login")
			return
		}
		if !slices.Contains(roles, snapshot.Role) {
			s.logger.WarnContext(c.Request.Context(), "role rejected",
				"user_id", snapshot.UserID.String(),
				"role", string(snapshot.Role),
				"path", c.Request.URL.Path)
			s.deny(c, http.StatusForbidden, MsgNotAuthorized, "/dashboard")
			return
		}
		c.Next()
	}
}

// optionalSession attaches the snapshot when a valid session exists and
// never rejects.
func (s *Server) optionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := s.sessionToken(c); token != "" {
			snapshot, err := s.services.Auth.Resolve(c.Request.Context(), token)
			if err == nil {
				c.Set(snapshotKey, snapshot)
			} else if !apperr.Is(err, apperr.KindUnauthorized) {
				s.logFailure(c, err)
			}
		}
		c.Next()
	}
}

func currentSnapshot(c *gin.Context) (auth.Snapshot, bool) {
	v, ok := c.Get(snapshotKey)
	if !ok {
		return auth.Snapshot{}, false
	}
	snapshot, ok := v.(auth.Snapshot)
	return snapshot, ok
}

// sessionToken returns the verified token from the session cookie, or "".
func (s *Server) sessionToken(c *gin.Context) string {
	raw, err := c.Cookie(s.cfg.CookieName)
	if err != nil || raw == "" {
		return ""
	}
	token, ok := s.signer.Verify(raw)
	if !ok {
		return ""
	}
	return token
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, s.signer.Sign(token), int(s.cfg.SessionTTL.Seconds()), "/", "", s.cfg.SecureCookies, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, "", -1, "/", "", s.cfg.SecureCookies, true)
}

func (s *Server) flashCookieName() string {
	return s.cfg.CookieName + ".flash"
}

func (s *Server) setFlash(c *gin.Context, f Flash) {
	if f.Empty() {
		return
	}
	value, err := s.signer.encodeFlash(f)
	if err != nil {
		s.logFailure(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.flashCookieName(), value, 300, "/", "", s.cfg.SecureCookies, true)
}

// takeFlash returns the pending flash and clears it.
func (s *Server) takeFlash(c *gin.Context) Flash {
	raw, err := c.Cookie(s.flashCookieName())
	if err != nil || raw == "" {
		return Flash{}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.flashCookieName(), "", -1, "/", "", s.cfg.SecureCookies, true)
	f, _ := s.signer.decodeFlash(raw)
	return f
}
