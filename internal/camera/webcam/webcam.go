// Package webcam opens local cameras through OpenCV.
package webcam

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"signcam/internal/camera"
	"signcam/internal/logger"
)

// readRetryDelay is how long the read loop waits after an empty read.
const readRetryDelay = 10 * time.Millisecond

// Opener opens a gocv VideoCapture per stream.
type Opener struct {
	logger *logger.Logger
}

// NewOpener creates an Opener.
func NewOpener(logger *logger.Logger) *Opener {
	return &Opener{logger: logger}
}

// Open starts capturing from the device in c. Local capture devices have no facing mode;
// c.Device picks the camera.
func (o *Opener) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &camera.MediaAccessError{Constraints: c, Err: err}
	}

	capture, err := gocv.OpenVideoCapture(c.Device)
	if err != nil {
		return nil, &camera.MediaAccessError{Constraints: c, Err: fmt.Errorf("%w: %v", camera.ErrUnavailable, err)}
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, &camera.MediaAccessError{Constraints: c, Err: camera.ErrUnavailable}
	}

	s := &stream{
		id:      uuid.NewString(),
		capture: capture,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  o.logger,
	}
	s.track = camera.NewVideoTrack(s.release)

	go s.readLoop()

	o.logger.Info("Opened camera %d (stream %s, facing %s)", c.Device, s.id, c.Facing)
	return s, nil
}

type stream struct {
	id      string
	capture *gocv.VideoCapture
	track   *camera.VideoTrack
	logger  *logger.Logger

	mu     sync.RWMutex
	latest image.Image

	done    chan struct{}
	stopped chan struct{}
}

func (s *stream) ID() string {
	return s.id
}

func (s *stream) Tracks() []camera.Track {
	return []camera.Track{s.track}
}

func (s *stream) Frame() (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// readLoop keeps the most recent decoded frame until the track is stopped.
func (s *stream) readLoop() {
	defer close(s.stopped)

	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if ok := s.capture.Read(&mat); !ok || mat.Empty() {
			time.Sleep(readRetryDelay)
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			s.logger.Warning("Failed to convert frame from stream %s: %v", s.id, err)
			time.Sleep(readRetryDelay)
			continue
		}

		s.mu.Lock()
		s.latest = img
		s.mu.Unlock()
	}
}

// release stops the read loop and closes the device.
func (s *stream) release() {
	close(s.done)
	<-s.stopped

	if err := s.capture.Close(); err != nil {
		s.logger.Error("Failed to close camera for stream %s: %v", s.id, err)
		return
	}
	s.logger.Info("Camera stream %s released", s.id)
}
