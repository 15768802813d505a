package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/semai/wildscan-go/internal/blobstore"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/scanner"
)

// handleScan accepts a multipart photo upload and runs the scan pipeline.
// Form fields: image (file, required), user_id (required), city/country
// (optional location override).
func (s *Server) handleScan(c echo.Context) error {
	userID := c.FormValue("user_id")
	if userID == "" {
		return httpError(c, errors.Newf("user_id is required").
			Category(errors.CategoryValidation).
			Component("api").
			Build())
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return httpError(c, errors.Newf("image file is required: %w", err).
			Category(errors.CategoryValidation).
			Component("api").
			Build())
	}
	file, err := fileHeader.Open()
	if err != nil {
		return httpError(c, err)
	}
	defer func() {
		_ = file.Close()
	}()

	imageData, err := io.ReadAll(file)
	if err != nil {
		return httpError(c, err)
	}

	req := &scanner.Request{
		UserID:    userID,
		Filename:  fileHeader.Filename,
		ImageData: imageData,
	}
	if city := c.FormValue("city"); city != "" {
		req.Location = &scanner.Location{
			City:    city,
			Country: c.FormValue("country"),
			Region:  c.FormValue("region"),
		}
	}

	result, err := s.Scanner.Process(c.Request().Context(), req)
	if err != nil {
		return httpError(c, err)
	}

	if s.Notifier != nil {
		// The goroutine outlives the request; detach from its cancellation.
		go s.Notifier.PublishScan(context.WithoutCancel(c.Request().Context()), result)
	}

	return c.JSON(http.StatusOK, result)
}

// handleCapabilities reports accepted formats and limits.
func (s *Server) handleCapabilities(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Scanner.Capabilities())
}

// scanHistoryEntry is a scan record joined with its species details.
type scanHistoryEntry struct {
	datastore.ScanRecord
	Species *datastore.Species `json:"species,omitempty"`
}

// handleScanHistory lists a user's scan records with species details,
// newest first.
func (s *Server) handleScanHistory(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return httpError(c, errors.Newf("user_id is required").
			Category(errors.CategoryValidation).
			Component("api").
			Build())
	}

	records, err := s.DS.GetScanRecordsByUser(userID)
	if err != nil {
		return httpError(c, err)
	}

	entries := make([]scanHistoryEntry, 0, len(records))
	species := make(map[string]*datastore.Species, len(records))
	for i := range records {
		sp, ok := species[records[i].SpeciesID]
		if !ok && records[i].SpeciesID != "" {
			sp, err = s.DS.GetSpecies(records[i].SpeciesID)
			if err != nil {
				return httpError(c, err)
			}
			species[records[i].SpeciesID] = sp
		}
		entries = append(entries, scanHistoryEntry{ScanRecord: records[i], Species: sp})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"user_id": userID,
		"count":   len(entries),
		"scans":   entries,
	})
}

// handleLedger lists a user's reward transactions with running totals.
func (s *Server) handleLedger(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return httpError(c, errors.Newf("user_id is required").
			Category(errors.CategoryValidation).
			Component("api").
			Build())
	}

	entries, err := s.DS.GetPointsTransactions(userID)
	if err != nil {
		return httpError(c, err)
	}
	points, currency, err := s.DS.SumLedgerForUser(userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "success",
		"user_id":        userID,
		"total_points":   points,
		"total_currency": currency,
		"transactions":   entries,
	})
}

// handleClassify classifies a species name into the fixed class vocabulary.
func (s *Server) handleClassify(c echo.Context) error {
	var body struct {
		SpeciesName string `json:"species_name"`
	}
	if err := c.Bind(&body); err != nil || body.SpeciesName == "" {
		return httpError(c, errors.Newf("species_name is required").
			Category(errors.CategoryValidation).
			Component("api").
			Build())
	}
	if s.Provider == nil {
		return httpError(c, errors.Newf("classification provider is not configured").
			Category(errors.CategoryConfiguration).
			Component("api").
			Build())
	}

	start := time.Now()
	verdict, err := s.Provider.ClassifySpecies(c.Request().Context(), body.SpeciesName)
	if s.Metrics != nil {
		s.Metrics.Provider.RecordRequest("classify", time.Since(start).Seconds())
		if err != nil {
			s.Metrics.Provider.IncrementErrors()
		}
	}
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"data":   verdict,
	})
}

// handleMedia serves a stored scan photo. Keys that are fallback URLs
// redirect to the external image instead.
func (s *Server) handleMedia(c echo.Context) error {
	key := c.Param("key")
	if key == "" {
		return httpError(c, errors.Newf("media key is required").
			Category(errors.CategoryValidation).
			Component("api").
			Build())
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return c.Redirect(http.StatusFound, key)
	}
	if key == strings.TrimPrefix(blobstore.GenericPlaceholder, "/") {
		return c.Redirect(http.StatusFound, blobstore.GenericPlaceholder)
	}

	data, contentType, err := s.Blobs.Get(c.Request().Context(), key)
	if err != nil {
		return httpError(c, err)
	}
	if contentType == "" {
		contentType = blobstore.ContentTypeFor(key)
	}
	return c.Blob(http.StatusOK, contentType, data)
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.Settings.Main.Name,
	})
}
