// Package imaging probes dimensions and produces bounded-width renditions
// of uploaded photos. Decoders cover the extensions the gallery accepts.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dimensions holds pixel dimensions probed from file bytes.
type Dimensions struct {
	Width  int
	Height int
}

// Probe decodes only the image header and returns its dimensions. It fails
// on non-image data; callers treat that as "dimensions unknown".
func Probe(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode image config: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Optimize re-encodes the image as a JPEG no wider than maxWidth,
// preserving aspect ratio.
func Optimize(data []byte, maxWidth int) ([]byte, error) {
	if maxWidth <= 0 {
		return nil, fmt.Errorf("maxWidth must be positive")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	resized := resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
