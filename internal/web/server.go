// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/auth"
	"github.com/forgeline/forgeline/internal/content"
	"github.com/forgeline/forgeline/internal/observability"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Services are the domain services the handlers call.
type Services struct {
	Auth      *auth.Service
	AllowList *auth.AllowListService
	Forms     *content.FormService
	Gallery   *content.GalleryService
}

// Config holds the HTTP-facing settings.
type Config struct {
	// Secret signs the session and flash cookies.
	Secret string
	// CookieName names the session cookie. The flash cookie adds ".flash".
	CookieName string
	// SessionTTL is the session cookie max-age.
	SessionTTL time.Duration
	// SecureCookies marks cookies Secure. Set in production.
	SecureCookies bool
	// RequestTimeout bounds each request's context. Zero disables it.
	RequestTimeout time.Duration
	// TrustedProxies lists proxies allowed to set the client address through
	// forwarding headers. Empty means the socket peer is the client.
	TrustedProxies []string
	// UploadsDir is served under UploadsPrefix when set.
	UploadsDir    string
	UploadsPrefix string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records per-request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithThrottle limits login and registration attempts per client IP.
func WithThrottle(t *auth.LoginThrottle) Option {
	return func(s *Server) {
		s.throttle = t
	}
}

// WithClassifier replaces PathClassifier.
func WithClassifier(fn Classifier) Option {
	return func(s *Server) {
		if fn != nil {
			s.isAPI = fn
		}
	}
}

// Server is the forgeline HTTP front end.
type Server struct {
	services Services
	cfg      Config
	signer   *CookieSigner
	logger   *slog.Logger
	metrics  *observability.Metrics
	throttle *auth.LoginThrottle
	isAPI    Classifier
	engine   *gin.Engine
}

// New builds the gin engine with every route registered.
func New(services Services, cfg Config, opts ...Option) (*Server, error) {
	switch {
	case services.Auth == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("auth service is required")
	case services.AllowList == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("allow-list service is required")
	case services.Forms == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("form service is required")
	case services.Gallery == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("gallery service is required")
	case cfg.CookieName == "":
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("cookie name is required")
	case cfg.SessionTTL <= 0:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("session TTL must be positive")
	}
	signer, err := NewCookieSigner(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if cfg.UploadsPrefix == "" {
		cfg.UploadsPrefix = "/uploads"
	}

	s := &Server{
		services: services,
		cfg:      cfg,
		signer:   signer,
		logger:   slog.Default(),
		isAPI:    PathClassifier,
	}
	for _, opt := range opts {
		opt(s)
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("WEB_TEMPLATES_INVALID").Wrap(err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, oops.Code("WEB_STATIC_INVALID").Wrap(err)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, oops.Code("WEB_INVALID_CONFIG").With("trusted_proxies", cfg.TrustedProxies).Wrap(err)
	}
	engine.SetHTMLTemplate(tmpl)
	engine.Use(
		gin.CustomRecovery(s.recovered),
		securityHeaders(),
		traceRequests(),
		s.accessLog(),
		s.observe(),
		requestTimeout(cfg.RequestTimeout),
	)
	engine.StaticFS("/static", http.FS(static))
	if cfg.UploadsDir != "" {
		engine.Static(cfg.UploadsPrefix, cfg.UploadsDir)
	}
	engine.NoRoute(s.notFound)

	s.engine = engine
	s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	admin := []gin.HandlerFunc{s.RequireSession(), s.RequireRole(auth.RoleAdmin)}

	api := s.engine.Group("/api")

	authAPI := api.Group("/auth")
	authAPI.POST("/register", s.throttleLogin(), s.register)
	authAPI.POST("/login", s.throttleLogin(), s.login)
	authAPI.POST("/logout", s.logout)
	authAPI.GET("/current-user", s.RequireSession(), s.currentUser)
	authAPI.POST("/change-password", s.RequireSession(), s.changePassword)

	allowed := api.Group("/allowed-emails", admin...)
	allowed.GET("", s.listAllowedEmails)
	allowed.POST("", s.addAllowedEmail)
	allowed.PATCH("/:id", s.updateAllowedEmail)
	allowed.DELETE("/:id", s.deleteAllowedEmail)

	forms := api.Group("/forms")
	forms.POST("/submit", s.submitForm)
	forms.GET("", s.RequireSession(), s.listForms)
	forms.GET("/export", append(admin, s.exportForms)...)
	forms.DELETE("", append(admin, s.deleteAllForms)...)
	forms.DELETE("/:id", append(admin, s.deleteForm)...)

	gallery := api.Group("/gallery")
	gallery.GET("", s.listImages)
	gallery.POST("", append(admin, s.uploadImage)...)
	gallery.PATCH("/:id", append(admin, s.updateImage)...)
	gallery.DELETE("/:id", append(admin, s.deleteImage)...)

	pages := s.engine.Group("/", s.optionalSession())
	pages.GET("/", s.page("index.html", "home"))
	pages.GET("/about", s.page("about.html", "about"))
	pages.GET("/contact", s.page("contact.html", "contact"))
	pages.GET("/login", s.page("login.html", "login"))
	pages.GET("/register", s.page("register.html", "register"))
	pages.GET("/certifications", s.page("certifications.html", "certifications"))
	pages.GET("/gallery", s.galleryPage)

	s.engine.GET("/dashboard", s.RequireSession(), s.page("dashboard.html", "dashboard"))
	s.engine.POST("/account/password", s.RequireSession(), s.changePasswordPage)
	s.engine.GET("/allowed-emails", append(admin, s.allowedEmailsPage)...)
	s.engine.GET("/gallery-management", append(admin, s.galleryManagementPage)...)
}
