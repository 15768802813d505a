// Package scanner orchestrates the scan pipeline: image normalization,
// species identification, cataloging, photo storage, scan deduplication and
// reward grants.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/semai/wildscan-go/internal/blobstore"
	"github.com/semai/wildscan-go/internal/catalog"
	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/imagery"
	"github.com/semai/wildscan-go/internal/logging"
	"github.com/semai/wildscan-go/internal/observability"
)

// Identifier is the vision identification stage. Satisfied by
// *gemini.Client; tests substitute stubs.
type Identifier interface {
	IdentifySpecies(ctx context.Context, imageData []byte, mimeType, location string) (*gemini.Identification, error)
}

// Scanner runs the full scan pipeline.
type Scanner struct {
	settings   *conf.Settings
	ds         datastore.Interface
	catalog    *catalog.Catalog
	identifier Identifier
	blobs      blobstore.Gateway
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// New builds a Scanner. metrics may be nil.
func New(settings *conf.Settings, ds datastore.Interface, cat *catalog.Catalog, identifier Identifier, blobs blobstore.Gateway, metrics *observability.Metrics) *Scanner {
	return &Scanner{
		settings:   settings,
		ds:         ds,
		catalog:    cat,
		identifier: identifier,
		blobs:      blobs,
		metrics:    metrics,
		logger:     logging.ForService("scanner"),
	}
}

// Request is one scan submission.
type Request struct {
	UserID    string
	Filename  string
	ImageData []byte
	// Location overrides the configured default when set.
	Location *Location
}

// SpeciesData is the species snapshot returned with a scan result.
type SpeciesData struct {
	ID               string `json:"id"`
	CommonName       string `json:"common_name"`
	ScientificName   string `json:"scientific_name"`
	Description      string `json:"description"`
	Habitat          string `json:"habitat"`
	Threats          string `json:"threats"`
	Conservation     string `json:"conservation"`
	EndangeredStatus string `json:"endangered_status"`
}

// RewardSummary reports what this scan earned and the user's running totals.
type RewardSummary struct {
	PointsEarned   int `json:"points_earned"`
	CurrencyEarned int `json:"currency_earned"`
	TotalPoints    int `json:"total_points"`
	TotalCurrency  int `json:"total_currency"`
}

// Result is the outcome of a processed scan.
type Result struct {
	Status            string        `json:"status"`
	ScanTimestamp     time.Time     `json:"scan_timestamp"`
	UserID            string        `json:"user_id"`
	Filename          string        `json:"filename"`
	FileSizeBytes     int           `json:"file_size"`
	ImageFormat       string        `json:"image_format"`
	Transcoded        bool          `json:"transcoded,omitempty"`
	Location          Location      `json:"location"`
	LocationString    string        `json:"location_string"`
	Species           SpeciesData   `json:"species_data"`
	Rewards           RewardSummary `json:"rewards"`
	ScanRecordID      string        `json:"scanned_species_id"`
	IsNewRecord       bool          `json:"is_new_record"`
	IsNewSpecies      bool          `json:"is_new_species"`
	ImageURL          string        `json:"image_url"`
	UsedFallbackImage bool          `json:"used_fallback_image"`
	Degraded          bool          `json:"degraded"`
	Message           string        `json:"message"`
}

// Process runs one scan end to end. Identification and upload run
// concurrently once the image is validated. A provider failure fails the
// scan; a malformed model response degrades the identification; an upload
// failure swaps in a curated fallback image.
func (s *Scanner) Process(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	result, err := s.process(ctx, req, start)
	if s.metrics != nil {
		outcome := "error"
		if err == nil {
			if result.IsNewRecord {
				outcome = "new"
			} else {
				outcome = "duplicate"
			}
		}
		s.metrics.Scanner.RecordScan(outcome, time.Since(start).Seconds())
	}
	return result, err
}

func (s *Scanner) process(ctx context.Context, req *Request, start time.Time) (*Result, error) {
	maxBytes := int64(DefaultMaxFileSizeBytes)
	if s.settings != nil && s.settings.Scanner.MaxFileSize > 0 {
		maxBytes = s.settings.Scanner.MaxFileSize
	}

	norm, err := imagery.Normalize(req.ImageData, req.Filename, maxBytes)
	if err != nil {
		return nil, err
	}

	location := DefaultLocation(s.settings)
	if req.Location != nil {
		location = *req.Location
	}
	locationString := location.String()

	// Identification and photo upload are independent; run them together.
	// Errors are captured rather than propagated so one leg cannot cancel
	// the other.
	uploadKey := blobstore.KeyFor(req.Filename, start)
	var (
		ident     *gemini.Identification
		identErr  error
		uploadErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		identStart := time.Now()
		ident, identErr = s.identifier.IdentifySpecies(gctx, norm.Data, norm.MIMEType, location.Label)
		if s.metrics != nil {
			s.metrics.Provider.RecordRequest("identify", time.Since(identStart).Seconds())
			if identErr != nil {
				s.metrics.Provider.IncrementErrors()
			}
		}
		return nil
	})
	g.Go(func() error {
		uploadErr = s.blobs.Put(gctx, uploadKey, norm.Data, norm.MIMEType)
		return nil
	})
	_ = g.Wait()

	// Identification has no fallback: a provider failure fails the scan.
	// Only a malformed response from a reachable provider degrades, and
	// that is decided inside the client (Degraded set, nil error).
	if identErr != nil {
		s.logger.Error("Identification failed",
			"error", identErr,
			"filename", req.Filename)
		return nil, identErr
	}

	degraded := ident.Degraded
	if degraded && s.metrics != nil {
		s.metrics.Scanner.IncrementDegradedScans()
	}

	species, isNewSpecies, err := s.catalog.Resolve(ctx, ident)
	if err != nil {
		return nil, err
	}

	imageURL := uploadKey
	usedFallback := false
	if uploadErr != nil {
		imageURL = blobstore.FallbackImage(species.CommonName)
		usedFallback = true
		s.logger.Warn("Photo upload failed, using fallback image",
			"error", uploadErr,
			"fallback", imageURL)
		if s.metrics != nil {
			s.metrics.Scanner.IncrementFallbackImages()
			s.metrics.Storage.IncrementUploadErrors()
		}
	} else if s.metrics != nil {
		s.metrics.Storage.RecordUpload(len(norm.Data))
	}

	result := &Result{
		Status:         "success",
		ScanTimestamp:  start,
		UserID:         req.UserID,
		Filename:       req.Filename,
		FileSizeBytes:  len(req.ImageData),
		ImageFormat:    norm.Format,
		Transcoded:     norm.Transcoded,
		Location:       location,
		LocationString: locationString,
		Species: SpeciesData{
			ID:               species.ID,
			CommonName:       species.CommonName,
			ScientificName:   species.ScientificName,
			Description:      species.Description,
			Habitat:          species.Habitat,
			Threats:          species.Threats,
			Conservation:     species.Conservation,
			EndangeredStatus: species.EndangeredStatus,
		},
		IsNewSpecies:      isNewSpecies,
		UsedFallbackImage: usedFallback,
		Degraded:          degraded,
	}

	existing, err := s.ds.FindScanRecord(req.UserID, species.ID, locationString)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		result.ScanRecordID = existing.ID
		result.ImageURL = existing.ImageURL
		result.IsNewRecord = false
		result.Message = "Species already scanned in this location - using existing record"
		s.logger.Info("Duplicate scan, no reward granted",
			"user_id", req.UserID,
			"species_id", species.ID,
			"location", locationString,
			"scan_record_id", existing.ID)
	} else {
		record := &datastore.ScanRecord{
			UserID:    req.UserID,
			SpeciesID: species.ID,
			Location:  locationString,
			ImageURL:  imageURL,
			Verified:  false,
		}
		reward := RewardFor(species.EndangeredStatus)
		entry := &datastore.PointsTransaction{
			TransactionType: TransactionTypeScan,
			Points:          reward.Points,
			Currency:        reward.Currency,
			Description:     RewardDescription(species.CommonName, species.EndangeredStatus),
		}
		if err := s.ds.RecordDiscovery(record, reward.Points, reward.Currency, entry); err != nil {
			return nil, err
		}

		result.ScanRecordID = record.ID
		result.ImageURL = imageURL
		result.IsNewRecord = true
		result.Rewards.PointsEarned = reward.Points
		result.Rewards.CurrencyEarned = reward.Currency
		result.Message = "Species scanned and saved successfully"
		if s.metrics != nil {
			s.metrics.Scanner.RecordReward(reward.Points, reward.Currency)
		}
		s.logger.Info("Scan recorded",
			"user_id", req.UserID,
			"species", species.CommonName,
			"location", locationString,
			"points", reward.Points,
			"currency", reward.Currency,
			"new_species", isNewSpecies)
	}

	user, err := s.ds.GetUser(req.UserID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		result.Rewards.TotalPoints = user.Points
		result.Rewards.TotalCurrency = user.Currency
	}

	return result, nil
}

// Capabilities returns the pipeline's accepted formats and limits.
func (s *Scanner) Capabilities() Capabilities {
	return CapabilitiesFromSettings(s.settings)
}
