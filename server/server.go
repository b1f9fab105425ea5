// Package server hosts the server copies of the todo, task and event lists
// for mtc clients using the http transport.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/mtc/internal/logger"
)

// MaxSnapshotSize bounds a stored snapshot
const MaxSnapshotSize = "16M"

// Options configure a Server
type Options struct {
	// TokenHash is the bcrypt hash of the bearer token clients must send.
	// Empty disables authentication.
	TokenHash string
}

// Server is the snapshot server
type Server struct {
	store     SnapshotStore
	tokenHash []byte
	echo      *echo.Echo
}

// New creates a server on top of store
func New(store SnapshotStore, opts Options) *Server {
	s := &Server{store: store}
	if opts.TokenHash != "" {
		s.tokenHash = []byte(opts.TokenHash)
	} else {
		logger.Warn("No token hash configured, snapshots are readable by anyone")
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Health check
	e.GET("/health", s.handleHealth)

	// API v1
	api := e.Group("/api/v1")
	api.Use(s.authMiddleware)
	api.GET("/snapshots/:name", s.handleGetSnapshot)
	api.PUT("/snapshots/:name", s.handlePutSnapshot, middleware.BodyLimit(MaxSnapshotSize))

	s.echo = e
}

// Close closes the snapshot store
func (s *Server) Close() error {
	return s.store.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	logger.Info("Server listening", logger.F("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		logger.Error("Health check failed", logger.F("error", err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
