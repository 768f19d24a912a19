// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgeline/forgeline/internal/auth"
	"github.com/forgeline/forgeline/pkg/errutil"
)

// landingPage is where clients go after signing in.
const landingPage = "/dashboard"

func (s *Server) register(c *gin.Context) {
	var in auth.RegisterInput
	if err := bind(c, &in); err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.services.Auth.Register(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.setSessionCookie(c, result.Token)
	ok(c, http.StatusCreated, envelope{Message: auth.MsgRegistered, Redirect: landingPage})
}

func (s *Server) login(c *gin.Context) {
	var in auth.LoginInput
	if err := bind(c, &in); err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.services.Auth.Login(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.setSessionCookie(c, result.Token)
	ok(c, http.StatusOK, envelope{Message: auth.MsgLoggedIn, Redirect: landingPage})
}

// logout always ends at /login unless destroying the session fails.
func (s *Server) logout(c *gin.Context) {
	if err := s.services.Auth.Logout(c.Request.Context(), s.sessionToken(c)); err != nil {
		errutil.LogErrorContext(c.Request.Context(), s.logger, slog.LevelError, "logout failed", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Status: statusError, Message: auth.MsgLogoutFailed})
		return
	}
	s.clearSessionCookie(c)
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) currentUser(c *gin.Context) {
	snapshot, _ := currentSnapshot(c)
	ok(c, http.StatusOK, envelope{Data: gin.H{"user": snapshot}})
}

func (s *Server) changePassword(c *gin.Context) {
	var in auth.ChangePasswordInput
	if err := bind(c, &in); err != nil {
		s.respondError(c, err)
		return
	}
	snapshot, _ := currentSnapshot(c)
	if err := s.services.Auth.ChangePassword(c.Request.Context(), snapshot, in); err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, envelope{Message: auth.MsgPasswordUpdated})
}

// changePasswordPage is the form post from the dashboard.
func (s *Server) changePasswordPage(c *gin.Context) {
	var in auth.ChangePasswordInput
	if err := bind(c, &in); err != nil {
		s.failPage(c, err, landingPage)
		return
	}
	snapshot, _ := currentSnapshot(c)
	if err := s.services.Auth.ChangePassword(c.Request.Context(), snapshot, in); err != nil {
		s.failPage(c, err, landingPage)
		return
	}
	s.redirectWithFlash(c, landingPage, Flash{Success: auth.MsgPasswordUpdated})
}
