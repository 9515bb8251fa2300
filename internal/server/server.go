// Package server exposes the notification service over HTTP. All errors
// are caught at the request boundary and converted to JSON responses;
// nothing propagates as an unhandled crash.
package server

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/chayannito26/order-notify/internal/models"
	"github.com/chayannito26/order-notify/internal/service"
)

const (
	// ServiceName identifies this process in the health document.
	ServiceName = "Chayannito 26 Email Notification Service"
	// Version reported by the health endpoint.
	Version = "1.0.0"
)

// Option customises server behaviour.
type Option func(*Server)

// WithServerClock overrides the clock used in health responses.
func WithServerClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server wires the EmailService into an echo HTTP server.
type Server struct {
	echo   *echo.Echo
	svc    *service.EmailService
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs the HTTP server and registers all routes.
func New(svc *service.EmailService, logger zerolog.Logger, opts ...Option) *Server {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	s := &Server{
		echo:   echo.New(),
		svc:    svc,
		logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestLogger)

	e.GET("/", s.health)
	e.GET("/status", s.health)
	e.POST("/send-order-email", s.sendOrderEmail)
	e.POST("/test-email", s.testEmail)
	e.POST("/preview-email", s.previewEmail)
	e.RouteNotFound("/*", s.notFound)

	return s
}

// Handler exposes the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start binds the server to the given port and serves until Shutdown.
func (s *Server) Start(port int) error {
	return s.echo.Start(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Info().
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
		return nil
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: s.now().Format(time.RFC3339),
		Version:   Version,
	})
}
