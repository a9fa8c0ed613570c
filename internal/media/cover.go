// Package media validates uploaded cover images and derives their BlurHash
// placeholders.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
)

const (
	// MaxCoverBytes bounds an uploaded cover.
	MaxCoverBytes = 5 << 20

	// BlurHash only needs a thumbnail; 64px keeps encoding in milliseconds.
	blurHashSize = 64
	blurHashX    = 4
	blurHashY    = 3
)

var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ProcessCover decodes data, rejects anything that is not a supported image
// and returns the cover with its BlurHash.
func ProcessCover(data []byte) (*domain.Cover, error) {
	if len(data) == 0 {
		return nil, errors.Validation("cover image is empty")
	}
	if len(data) > MaxCoverBytes {
		return nil, errors.TooLarge(fmt.Sprintf("cover exceeds %d bytes", MaxCoverBytes))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Validation("cover is not a supported image").WithCause(err)
	}
	mime, ok := mimeTypes[format]
	if !ok {
		return nil, errors.Validationf("unsupported cover format %q", format)
	}

	hash, err := BlurHash(img)
	if err != nil {
		return nil, err
	}

	return &domain.Cover{
		MimeType: mime,
		BlurHash: hash,
		Size:     len(data),
		Data:     data,
	}, nil
}

// BlurHash encodes a 4x3 component placeholder for img.
func BlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(blurHashX, blurHashY, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= blurHashSize && h <= blurHashSize {
		return img
	}

	dw, dh := blurHashSize, blurHashSize
	if w > h {
		dh = max(1, h*blurHashSize/w)
	} else {
		dw = max(1, w*blurHashSize/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
