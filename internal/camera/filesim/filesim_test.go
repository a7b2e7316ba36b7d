package filesim

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"signcam/internal/camera"
	"signcam/internal/logger"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_ReplaysFrames(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "b.png"), color.RGBA{B: 255, A: 255})
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644)

	s, err := NewOpener(dir, 0, logger.Discard()).Open(context.Background(), camera.Constraints{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer camera.StopAll(s)

	img, ok := s.Frame()
	if !ok {
		t.Fatal("Expected a frame")
	}
	r, _, b, _ := img.At(0, 0).RGBA()
	if r == 0 || b != 0 {
		t.Errorf("Expected first frame to be a.png (red), got r=%d b=%d", r, b)
	}
	if s.ID() == "" {
		t.Error("Expected a stream id")
	}
}

func TestOpen_Advances(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.Black)
	writePNG(t, filepath.Join(dir, "b.png"), color.White)

	s, err := NewOpener(dir, 5*time.Millisecond, logger.Discard()).Open(context.Background(), camera.Constraints{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer camera.StopAll(s)

	first, _ := s.Frame()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		img, _ := s.Frame()
		if img != first {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Error("Expected the stream to advance to the next frame")
}

func TestOpen_StoppedStreamHasNoFrame(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.Black)

	s, err := NewOpener(dir, 0, logger.Discard()).Open(context.Background(), camera.Constraints{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	camera.StopAll(s)
	if _, ok := s.Frame(); ok {
		t.Error("Expected no frame after stop")
	}
	if !camera.Ended(s) {
		t.Error("Expected all tracks ended")
	}
}

func TestOpen_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{"missing dir", filepath.Join(t.TempDir(), "missing")},
		{"empty dir", t.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpener(tt.dir, 0, logger.Discard()).Open(context.Background(), camera.Constraints{})
			if !errors.Is(err, camera.ErrUnavailable) {
				t.Errorf("Expected ErrUnavailable, got %v", err)
			}
		})
	}
}
