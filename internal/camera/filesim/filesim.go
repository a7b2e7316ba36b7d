// Package filesim replays a directory of still images as a camera stream.
package filesim

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"signcam/internal/camera"
	"signcam/internal/logger"
)

// Opener serves frames decoded from Dir, advancing every Interval and looping at the end.
type Opener struct {
	Dir      string
	Interval time.Duration
	logger   *logger.Logger
}

// NewOpener creates an Opener for dir.
func NewOpener(dir string, interval time.Duration, logger *logger.Logger) *Opener {
	return &Opener{Dir: dir, Interval: interval, logger: logger}
}

// Open decodes every .png/.jpg/.jpeg file of the directory, sorted by name.
func (o *Opener) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &camera.MediaAccessError{Constraints: c, Err: err}
	}

	frames, err := loadFrames(o.Dir)
	if err != nil {
		return nil, &camera.MediaAccessError{Constraints: c, Err: fmt.Errorf("%w: %v", camera.ErrUnavailable, err)}
	}
	if len(frames) == 0 {
		return nil, &camera.MediaAccessError{Constraints: c, Err: fmt.Errorf("%w: no images in %s", camera.ErrUnavailable, o.Dir)}
	}

	s := &stream{
		id:     uuid.NewString(),
		frames: frames,
		done:   make(chan struct{}),
	}
	s.track = camera.NewVideoTrack(func() { close(s.done) })

	if o.Interval > 0 && len(frames) > 1 {
		go s.advance(o.Interval)
	}

	o.logger.Info("Replaying %d frames from %s (stream %s)", len(frames), o.Dir, s.id)
	return s, nil
}

func loadFrames(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

type stream struct {
	id     string
	frames []image.Image
	track  *camera.VideoTrack
	done   chan struct{}

	mu  sync.Mutex
	pos int
}

func (s *stream) ID() string {
	return s.id
}

func (s *stream) Tracks() []camera.Track {
	return []camera.Track{s.track}
}

func (s *stream) Frame() (image.Image, bool) {
	if s.track.State() == camera.TrackEnded {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[s.pos], true
}

func (s *stream) advance(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.pos = (s.pos + 1) % len(s.frames)
			s.mu.Unlock()
		}
	}
}
