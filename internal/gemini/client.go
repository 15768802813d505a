// Package gemini provides a client for the Gemini generateContent REST API,
// used for species identification from photos and for taxonomy
// classification of identified species.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/logging"
)

// Package-level logger specific to the gemini service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "gemini.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "gemini", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service file logging
		log.Printf("FATAL: Failed to initialize gemini file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "gemini")
		closeLogger = func() error { return nil }
	}
}

// Config holds the Gemini client configuration.
type Config struct {
	APIKey           string
	Model            string
	Endpoint         string
	Timeout          time.Duration
	ClassifyCacheTTL time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Model:            "gemini-2.0-flash",
		Endpoint:         "https://generativelanguage.googleapis.com/v1beta",
		Timeout:          45 * time.Second,
		ClassifyCacheTTL: 12 * time.Hour,
	}
}

// ConfigFromSettings builds a client config from application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := DefaultConfig()
	cfg.APIKey = settings.Provider.APIKey
	if settings.Provider.Model != "" {
		cfg.Model = settings.Provider.Model
	}
	if settings.Provider.Endpoint != "" {
		cfg.Endpoint = settings.Provider.Endpoint
	}
	if settings.Provider.Timeout > 0 {
		cfg.Timeout = settings.Provider.Timeout
	}
	if settings.Provider.ClassifyCacheTTL > 0 {
		cfg.ClassifyCacheTTL = settings.Provider.ClassifyCacheTTL
	}
	return cfg
}

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache // classification verdicts keyed by scientific name
	debug      bool

	// Metrics
	metrics struct {
		apiCalls      int64
		apiErrors     int64
		cacheHits     int64
		cacheMisses   int64
		totalDuration time.Duration
		mu            sync.RWMutex
	}
}

// NewClient creates a new Gemini API client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("gemini API key is required").
			Category(errors.CategoryConfiguration).
			Component("gemini").
			Build()
	}

	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Endpoint == "" {
		config.Endpoint = defaults.Endpoint
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.ClassifyCacheTTL == 0 {
		config.ClassifyCacheTTL = defaults.ClassifyCacheTTL
	}

	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: cache.New(config.ClassifyCacheTTL, config.ClassifyCacheTTL*2),
		debug: debug,
	}

	logger.Info("Gemini client initialized",
		"endpoint", config.Endpoint,
		"model", config.Model,
		"timeout", config.Timeout,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// Close cleans up client resources.
func (c *Client) Close() {
	logger.Info("Closing Gemini client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing gemini logger: %v", err)
		}
	}
}

// request/response shapes for the generateContent REST API

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// generateContent posts the given parts to the model and returns the text of
// the first candidate.
func (c *Client) generateContent(ctx context.Context, parts []requestPart) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// The API key travels in the query string; never log the full URL.
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.config.Endpoint, c.config.Model, c.config.APIKey)

	payload, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: parts}},
	})
	if err != nil {
		return "", errors.Newf("failed to encode request: %w", err).
			Category(errors.CategoryModelProvider).
			Component("gemini").
			Build()
	}

	start := time.Now()
	c.metrics.mu.Lock()
	c.metrics.apiCalls++
	c.metrics.mu.Unlock()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.trackError()
		return "", errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("model", c.config.Model).
			Component("gemini").
			Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.trackError()
		logger.Error("Gemini API request failed",
			"error", err,
			"model", c.config.Model)
		return "", errors.Newf("gemini request failed: %w", errors.ErrProviderUnavailable).
			Category(errors.CategoryModelProvider).
			Context("model", c.config.Model).
			Component("gemini").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.trackError()
		return "", errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Component("gemini").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.trackError()
		var ae apiError
		detail := string(bodyBytes)
		if err := json.Unmarshal(bodyBytes, &ae); err == nil && ae.Error.Message != "" {
			detail = ae.Error.Message
		}
		if resp.StatusCode == 401 || resp.StatusCode == 403 {
			logger.Error("Gemini API authentication failed",
				"status_code", resp.StatusCode,
				"detail", detail,
				"message", "Check the provider API key in the configuration")
		} else {
			logger.Warn("Gemini API error response",
				"status_code", resp.StatusCode,
				"detail", detail)
		}
		return "", errors.Newf("gemini API error (status %d): %s: %w", resp.StatusCode, detail, errors.ErrProviderUnavailable).
			Category(statusCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("model", c.config.Model).
			Component("gemini").
			Build()
	}

	var parsed generateResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		c.trackError()
		logger.Error("Failed to parse Gemini API response",
			"error", err,
			"response_size", len(bodyBytes))
		return "", errors.Newf("failed to parse gemini response: %w", err).
			Category(errors.CategoryModelProvider).
			Context("response_size", len(bodyBytes)).
			Component("gemini").
			Build()
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		c.trackError()
		return "", errors.Newf("gemini response contains no candidates: %w", errors.ErrProviderUnavailable).
			Category(errors.CategoryModelProvider).
			Context("model", c.config.Model).
			Component("gemini").
			Build()
	}

	duration := time.Since(start)
	c.metrics.mu.Lock()
	c.metrics.totalDuration += duration
	c.metrics.mu.Unlock()

	if c.debug {
		logger.Debug("Gemini API response",
			"status_code", resp.StatusCode,
			"model", c.config.Model,
			"duration_ms", duration.Milliseconds(),
			"response_size", len(bodyBytes))
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) trackError() {
	c.metrics.mu.Lock()
	c.metrics.apiErrors++
	c.metrics.mu.Unlock()
}

// Metrics represents Gemini client performance counters.
type Metrics struct {
	APICalls      int64         `json:"api_calls"`
	APIErrors     int64         `json:"api_errors"`
	CacheHits     int64         `json:"cache_hits"`
	CacheMisses   int64         `json:"cache_misses"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// GetMetrics returns current client counters.
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()

	m := Metrics{
		APICalls:      c.metrics.apiCalls,
		APIErrors:     c.metrics.apiErrors,
		CacheHits:     c.metrics.cacheHits,
		CacheMisses:   c.metrics.cacheMisses,
		TotalDuration: c.metrics.totalDuration,
	}
	if m.APICalls > 0 {
		m.AvgDuration = time.Duration(int64(m.TotalDuration) / m.APICalls)
	}
	return m
}

// statusCategory maps an HTTP status code to an error category.
func statusCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case 401, 403:
		return errors.CategoryConfiguration
	case 404:
		return errors.CategoryNotFound
	default:
		return errors.CategoryModelProvider
	}
}
