package frame

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncode_DownscalesToFixedSize(t *testing.T) {
	enc := NewEncoder(50, 50)

	payload, err := enc.Encode(solid(640, 480, color.RGBA{R: 200, A: 255}))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("Payload is not base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Payload is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("Expected 50x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestEncode_NoDataURLPrefix(t *testing.T) {
	payload, err := NewEncoder(8, 8).Encode(solid(16, 16, color.White))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if StripDataURL(payload) != payload {
		t.Error("Expected encoder output without data-URL prefix")
	}
}

func TestEncode_Invalid(t *testing.T) {
	enc := NewEncoder(50, 50)

	if _, err := enc.Encode(nil); err == nil {
		t.Error("Expected error for nil frame")
	}
	if _, err := enc.Encode(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("Expected error for empty frame")
	}
}

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"data:image/png;base64,iVBORw0KGgo=", "iVBORw0KGgo="},
		{"iVBORw0KGgo=", "iVBORw0KGgo="},
		{"data:image/png;base64,", ""},
		{"data:broken", "data:broken"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripDataURL(tt.input); got != tt.expected {
			t.Errorf("StripDataURL(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
