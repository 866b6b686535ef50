// Package server exposes an audit session over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/glosa/internal/audit"
	"github.com/ppiankov/glosa/internal/review"
	"github.com/ppiankov/glosa/internal/timesheet"
)

// Server serves one audit session
type Server struct {
	echo        *echo.Echo
	session     *audit.Session
	reviewer    review.Reviewer
	coordinator *review.Coordinator // nil when no review service is configured
	validator   *timesheet.Validator
	metrics     *Metrics
	logger      *slog.Logger
	minLength   int
}

// Option configures a Server
type Option func(*Server)

// WithReviewer enables POST /api/chapters/:id/analyze
func WithReviewer(r review.Reviewer) Option {
	return func(s *Server) {
		s.reviewer = r
	}
}

// WithMinContentLength sets the shortest chapter text sent for review
func WithMinContentLength(n int) Option {
	return func(s *Server) {
		s.minLength = n
	}
}

// WithValidator replaces the default time entry validator
func WithValidator(v *timesheet.Validator) Option {
	return func(s *Server) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server for session
func New(session *audit.Session, opts ...Option) *Server {
	s := &Server{
		echo:      echo.New(),
		session:   session,
		validator: timesheet.NewValidator(0, 0),
		metrics:   NewMetrics(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reviewer != nil {
		s.coordinator = review.NewCoordinator(s.reviewer, session,
			review.WithObserver(s.metrics.Observer()),
			review.WithLogger(s.logger),
			review.WithMinContentLength(s.minLength),
		)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(s.metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.Use(middleware.BodyLimit("2M"))

	s.routes()
	return s
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	api.GET("/rules", s.listRules)
	api.GET("/report", s.getReport)
	api.GET("/score", s.getScore)

	chapters := api.Group("/chapters")
	chapters.GET("", s.listChapters)
	chapters.POST("/:id/select", s.selectChapter)
	chapters.PUT("/:id/content", s.setContent)
	chapters.POST("/:id/analyze", s.analyze)
	chapters.GET("/:id/fix", s.fix)

	suggestions := api.Group("/suggestions")
	suggestions.GET("", s.listSuggestions)
	suggestions.POST("/:id/accept", s.accept)
	suggestions.POST("/:id/reject", s.reject)

	api.PUT("/project/status", s.setProjectStatus)
	api.POST("/hours/validate", s.validateHours)
}

// handleError renders every error as {"error": message}
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	case errors.Is(err, audit.ErrUnknownChapter), errors.Is(err, audit.ErrUnknownSuggestion):
		code = http.StatusNotFound
	case errors.Is(err, audit.ErrNotPending), errors.Is(err, audit.ErrNotApplied):
		code = http.StatusConflict
	case errors.Is(err, audit.ErrInvalidStatus):
		code = http.StatusBadRequest
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}
