package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/mtc/internal/logger"
)

// handleGetSnapshot returns the stored bytes untouched; sealed snapshots are
// opaque to the server
func (s *Server) handleGetSnapshot(c echo.Context) error {
	name := c.Param("name")
	if !ValidName(name) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown snapshot"})
	}

	snap, err := s.store.Get(c.Request().Context(), name)
	if errors.Is(err, ErrSnapshotNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "snapshot not found"})
	}
	if err != nil {
		logger.Error("Failed to read snapshot", logger.F("name", name), logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	c.Response().Header().Set("Last-Modified", snap.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, snap.Data)
}

// handlePutSnapshot replaces a snapshot. The body must be JSON, either a
// plain server list or a sealed envelope.
func (s *Server) handlePutSnapshot(c echo.Context) error {
	name := c.Param("name")
	if !ValidName(name) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown snapshot"})
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to read body"})
	}
	if !json.Valid(data) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "snapshot must be JSON"})
	}

	if err := s.store.Put(c.Request().Context(), name, data); err != nil {
		logger.Error("Failed to store snapshot", logger.F("name", name), logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("Snapshot stored", logger.F("name", name), logger.F("bytes", len(data)))
	return c.JSON(http.StatusOK, map[string]string{
		"name":       name,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
}
