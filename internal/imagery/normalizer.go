// Package imagery validates and canonicalizes uploaded image payloads into
// an encoding the identification client and blob storage can handle.
package imagery

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/jdeng/goheif"

	// Register stdlib and extended decoders for validation via image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/semai/wildscan-go/internal/errors"
)

// jpegQuality is used when transcoding HEIC payloads.
const jpegQuality = 90

// SupportedFormats lists the accepted upload encodings, in the order
// reported by the capabilities descriptor.
var SupportedFormats = []string{"JPEG", "PNG", "GIF", "BMP", "TIFF", "WEBP", "HEIC", "HEIF"}

var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
}

var supportedSet = func() map[string]bool {
	m := make(map[string]bool, len(SupportedFormats))
	for _, f := range SupportedFormats {
		m[strings.ToLower(f)] = true
	}
	return m
}()

// Normalized is the result of validating and canonicalizing an upload.
type Normalized struct {
	Data           []byte // payload in the final encoding
	Format         string // final encoding, lowercase ("jpeg", "png", ...)
	OriginalFormat string // encoding of the submitted payload
	MIMEType       string // MIME type of the final encoding
	Width          int
	Height         int
	Transcoded     bool // true when a HEIC payload was re-encoded to JPEG
}

// MIMETypeFor returns the MIME type for a lowercase format name, or
// application/octet-stream when unknown.
func MIMETypeFor(format string) string {
	if mime, ok := mimeTypes[strings.ToLower(format)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Normalize validates data as a supported image and canonicalizes it.
// HEIC/HEIF payloads are transcoded to JPEG since neither the
// identification client nor long-term storage is guaranteed to accept them.
// maxBytes of zero disables the size check. The filename is only a hint for
// error context; detection works on the payload bytes.
func Normalize(data []byte, filename string, maxBytes int64) (*Normalized, error) {
	if len(data) == 0 {
		return nil, errors.Newf("empty payload: %w", errors.ErrInvalidImage).
			Category(errors.CategoryValidation).
			Component("imagery").
			Build()
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, errors.Newf("payload is %d bytes, limit is %d: %w", len(data), maxBytes, errors.ErrOversizeImage).
			Category(errors.CategoryValidation).
			Component("imagery").
			Context("size_bytes", len(data)).
			Build()
	}

	if isHEIC(data) {
		return transcodeHEIC(data)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Newf("cannot identify image %q: %w", filepath.Base(filename), errors.ErrInvalidImage).
			Category(errors.CategoryImageProcessing).
			Component("imagery").
			Context("filename_extension", strings.ToLower(filepath.Ext(filename))).
			Build()
	}
	if !supportedSet[format] {
		return nil, errors.Newf("encoding %q is not supported: %w", format, errors.ErrUnsupportedEncoding).
			Category(errors.CategoryValidation).
			Component("imagery").
			Context("format", format).
			Build()
	}

	return &Normalized{
		Data:           data,
		Format:         format,
		OriginalFormat: format,
		MIMEType:       MIMETypeFor(format),
		Width:          cfg.Width,
		Height:         cfg.Height,
	}, nil
}

// transcodeHEIC decodes a HEIC payload and re-encodes it as a 3-channel JPEG.
func transcodeHEIC(data []byte) (*Normalized, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Newf("cannot decode HEIC payload: %w", errors.ErrInvalidImage).
			Category(errors.CategoryImageProcessing).
			Component("imagery").
			Build()
	}

	// Force RGB; the JPEG encoder drops alpha from RGBA input.
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, errors.Newf("re-encoding HEIC as JPEG: %w", errors.ErrTranscodeFailure).
			Category(errors.CategoryImageProcessing).
			Component("imagery").
			Build()
	}

	return &Normalized{
		Data:           buf.Bytes(),
		Format:         "jpeg",
		OriginalFormat: "heic",
		MIMEType:       MIMETypeFor("jpeg"),
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Transcoded:     true,
	}, nil
}

// heicBrands are the ISO-BMFF major brands that identify HEIC/HEIF content.
var heicBrands = map[string]bool{
	"heic": true, "heix": true, "heim": true, "heis": true,
	"hevc": true, "hevx": true, "hevm": true, "hevs": true,
	"mif1": true, "msf1": true,
}

// isHEIC reports whether data starts with an ISO-BMFF ftyp box carrying a
// HEIC/HEIF brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	return heicBrands[string(data[8:12])]
}
