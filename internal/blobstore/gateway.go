// Package blobstore persists scan photos in long-term object storage and
// supplies curated fallback imagery when the store is unavailable.
package blobstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gateway is the object storage surface the scan pipeline depends on.
type Gateway interface {
	// Put stores data under key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the stored payload and its content type.
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Close releases the underlying client.
	Close() error
}

// KeyFor builds a unique object key for an uploaded photo. The timestamp
// keeps keys sortable by scan time; the random suffix disambiguates
// concurrent scans within the same microsecond.
func KeyFor(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("scanned_species_%s_%s%s", now.Format("20060102_150405"), suffix, ext)
}

// ContentTypeFor maps a key's extension to a content type, defaulting to
// JPEG for unrecognized extensions.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
