package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/errors"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessCover_PNG(t *testing.T) {
	data := encodePNG(t, 200, 300)

	cover, err := ProcessCover(data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", cover.MimeType)
	assert.Equal(t, len(data), cover.Size)
	assert.NotEmpty(t, cover.BlurHash)
	assert.Equal(t, data, cover.Data)
}

func TestProcessCover_Deterministic(t *testing.T) {
	data := encodePNG(t, 120, 80)

	a, err := ProcessCover(data)
	require.NoError(t, err)
	b, err := ProcessCover(data)
	require.NoError(t, err)
	assert.Equal(t, a.BlurHash, b.BlurHash)
}

func TestProcessCover_Rejects(t *testing.T) {
	_, err := ProcessCover(nil)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = ProcessCover([]byte("definitely not an image"))
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = ProcessCover(make([]byte, MaxCoverBytes+1))
	assert.Equal(t, errors.CodeTooLarge, errors.CodeOf(err))
}

func TestThumbnail_KeepsAspect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 160))
	th := thumbnail(img)
	assert.Equal(t, 64, th.Bounds().Dx())
	assert.Equal(t, 16, th.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, thumbnail(small))
}
