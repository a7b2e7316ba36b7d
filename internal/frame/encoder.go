// Package frame turns camera snapshots into the payload expected by the frame endpoint.
package frame

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/nfnt/resize"
)

// Encoder downscales a snapshot to a fixed size and encodes it as base64 PNG.
type Encoder struct {
	Width  int
	Height int
}

// NewEncoder creates an Encoder for width x height frames.
func NewEncoder(width, height int) *Encoder {
	return &Encoder{Width: width, Height: height}
}

// Encode returns the raw base64 PNG of img scaled to the encoder size, with no data-URL prefix.
func (e *Encoder) Encode(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no frame to encode")
	}
	if img.Bounds().Empty() {
		return "", fmt.Errorf("frame is empty")
	}

	resized := resize.Resize(uint(e.Width), uint(e.Height), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return "", fmt.Errorf("failed to encode frame as png: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// StripDataURL removes a "data:<mime>;base64," prefix, returning the payload unchanged otherwise.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return s
}
