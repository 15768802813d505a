// Package api exposes the scan pipeline over a JSON HTTP API.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/semai/wildscan-go/internal/blobstore"
	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/logging"
	"github.com/semai/wildscan-go/internal/notify"
	"github.com/semai/wildscan-go/internal/observability"
	"github.com/semai/wildscan-go/internal/scanner"
)

// Server encapsulates the Echo server and its collaborators.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	DS       datastore.Interface
	Scanner  *scanner.Scanner
	Blobs    blobstore.Gateway
	Provider *gemini.Client
	Metrics  *observability.Metrics
	Notifier *notify.Notifier

	logger *slog.Logger
}

// New initializes the HTTP server and registers all routes. Provider,
// Metrics and Notifier may be nil.
func New(settings *conf.Settings, ds datastore.Interface, scan *scanner.Scanner, blobs blobstore.Gateway, provider *gemini.Client, metrics *observability.Metrics, notifier *notify.Notifier) *Server {
	s := &Server{
		Echo:     echo.New(),
		Settings: settings,
		DS:       ds,
		Scanner:  scan,
		Blobs:    blobs,
		Provider: provider,
		Metrics:  metrics,
		Notifier: notifier,
		logger:   logging.ForService("api"),
	}

	s.Echo.HideBanner = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Warn("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"error", v.Error)
			} else {
				s.logger.Info("request",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status)
			}
			return nil
		},
	}))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.Echo.Group("/api/v1")

	v1.POST("/scan", s.handleScan)
	v1.GET("/scan/capabilities", s.handleCapabilities)
	v1.GET("/scans", s.handleScanHistory)
	v1.GET("/ledger", s.handleLedger)
	v1.POST("/classify", s.handleClassify)
	v1.GET("/media/:key", s.handleMedia)
	v1.GET("/health", s.handleHealth)

	if s.Metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}

// Start runs the server on the configured host and port, blocking until it
// stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.Settings.HTTP.Host, s.Settings.HTTP.Port)
	s.logger.Info("Starting HTTP server", "address", addr)
	return s.Echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// httpError maps an internal error to an HTTP status and JSON body.
func httpError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryConflict):
		status = http.StatusConflict
	}
	return c.JSON(status, map[string]any{
		"status": "error",
		"error":  err.Error(),
	})
}
