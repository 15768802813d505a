package scanner

import (
	"fmt"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/imagery"
)

// DefaultMaxFileSizeBytes caps uploaded photos at 10 MB.
const DefaultMaxFileSizeBytes = 10 * 1024 * 1024

// Capabilities describes what the scan pipeline accepts, surfaced to
// clients so they can validate uploads before submitting.
type Capabilities struct {
	SupportedFormats []string `json:"supported_formats"`
	MaxFileSize      string   `json:"max_file_size"`
	MaxFileSizeBytes int64    `json:"max_file_size_bytes"`
	HEICSupport      bool     `json:"heic_support"`
	APIConfigured    bool     `json:"api_configured"`
	Model            string   `json:"model"`
}

// CapabilitiesFromSettings builds the capabilities descriptor.
func CapabilitiesFromSettings(settings *conf.Settings) Capabilities {
	maxBytes := int64(DefaultMaxFileSizeBytes)
	if settings != nil && settings.Scanner.MaxFileSize > 0 {
		maxBytes = settings.Scanner.MaxFileSize
	}
	model := ""
	apiConfigured := false
	if settings != nil {
		model = settings.Provider.Model
		apiConfigured = settings.Provider.APIKey != ""
	}
	return Capabilities{
		SupportedFormats: imagery.SupportedFormats,
		MaxFileSize:      fmt.Sprintf("%dMB", maxBytes/(1024*1024)),
		MaxFileSizeBytes: maxBytes,
		HEICSupport:      true,
		APIConfigured:    apiConfigured,
		Model:            model,
	}
}
