package imagery

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semai/wildscan-go/internal/errors"
)

func testImage(t *testing.T, w, h int) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: 120, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizePNG(t *testing.T) {
	data := encodePNG(t, testImage(t, 32, 24))

	got, err := Normalize(data, "shoebill.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "png", got.Format)
	assert.Equal(t, "png", got.OriginalFormat)
	assert.Equal(t, "image/png", got.MIMEType)
	assert.Equal(t, 32, got.Width)
	assert.Equal(t, 24, got.Height)
	assert.False(t, got.Transcoded)
	assert.Equal(t, data, got.Data)
}

func TestNormalizeJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(t, 16, 16), nil))

	got, err := Normalize(buf.Bytes(), "tiger.jpg", 0)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", got.Format)
	assert.Equal(t, "image/jpeg", got.MIMEType)
}

func TestNormalizeGIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(t, 8, 8), nil))

	got, err := Normalize(buf.Bytes(), "frog.gif", 0)
	require.NoError(t, err)
	assert.Equal(t, "gif", got.Format)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"), "notes.txt", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidImage)
}

func TestNormalizeRejectsEmptyPayload(t *testing.T) {
	_, err := Normalize(nil, "empty.jpg", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidImage)
}

func TestNormalizeRejectsOversizePayload(t *testing.T) {
	data := encodePNG(t, testImage(t, 64, 64))

	_, err := Normalize(data, "big.png", int64(len(data)-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrOversizeImage)

	// At the limit passes
	_, err = Normalize(data, "big.png", int64(len(data)))
	require.NoError(t, err)
}

func TestNormalizeCorruptHEICIsInvalid(t *testing.T) {
	// A well-formed ftyp box with a heic brand followed by garbage must be
	// routed to the HEIC decoder and rejected there.
	payload := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	payload = append(payload, bytes.Repeat([]byte{0xAB}, 64)...)

	_, err := Normalize(payload, "photo.heic", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidImage)
}

func TestIsHEICBrandDetection(t *testing.T) {
	assert.True(t, isHEIC(append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)))
	assert.True(t, isHEIC(append([]byte{0, 0, 0, 24}, []byte("ftypmif1")...)))
	assert.False(t, isHEIC(append([]byte{0, 0, 0, 24}, []byte("ftypisom")...)))
	assert.False(t, isHEIC([]byte("ftypheic")))
	assert.False(t, isHEIC(nil))
}

func TestMIMETypeFor(t *testing.T) {
	assert.Equal(t, "image/webp", MIMETypeFor("webp"))
	assert.Equal(t, "image/heic", MIMETypeFor("HEIC"))
	assert.Equal(t, "application/octet-stream", MIMETypeFor("pdf"))
}
