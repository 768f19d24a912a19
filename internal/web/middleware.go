// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/forgeline/forgeline/internal/apperr"
	"github.com/forgeline/forgeline/internal/auth"
)

const unmatchedRoute = "unmatched"

var tracer = otel.Tracer("forgeline/web")

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

// traceRequests opens a span per request. Logs written under the request
// context carry its trace and span ids.
func traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeOf(c)
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", routeOf(c),
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP())
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		s.metrics.ObserveHTTP(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start).Seconds())
	}
}

// requestTimeout bounds the request context so store calls give up.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// throttleLogin rejects credential attempts beyond the per-IP budget.
func (s *Server) throttleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.throttle != nil && !s.throttle.Allow(c.ClientIP()) {
			s.respondError(c, oops.Code("AUTH_THROTTLED").
				With("client_ip", c.ClientIP()).
				With("route", routeOf(c)).
				Wrap(apperr.TooManyRequests(auth.MsgTooManyAuthAttempts)))
			return
		}
		c.Next()
	}
}
