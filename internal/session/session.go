package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"signcam/internal/camera"
	"signcam/internal/dto"
	"signcam/internal/logger"
	"signcam/internal/metrics"
)

// ErrClosed is returned by StartLive after Close.
var ErrClosed = errors.New("session closed")

// errUploadAborted stands in for the upload error until the request returns.
var errUploadAborted = errors.New("upload aborted")

// Predictor is the prediction service.
type Predictor interface {
	Predict(ctx context.Context, filename string, image io.Reader) (dto.PredictResponse, error)
	PredictFrame(ctx context.Context, payload string) (dto.PredictResponse, error)
}

// Surface is the video surface a live stream is bound to.
type Surface interface {
	Bind(s camera.Stream)
	Unbind()
	Snapshot() (image.Image, bool)
}

// FrameEncoder turns a snapshot into the frame endpoint payload.
type FrameEncoder interface {
	Encode(img image.Image) (string, error)
}

// Listener is called with the latest state after every change.
type Listener func(State)

// Config wires a Session.
type Config struct {
	Predictor     Predictor
	Opener        camera.Opener
	Surface       Surface
	Encoder       FrameEncoder
	Constraints   camera.Constraints
	FrameInterval time.Duration
	CaptureCutoff time.Duration // 0 disables the cutoff
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
}

// Session holds the state of one user. Every transition happens under mu; network calls
// and camera acquisition never do.
type Session struct {
	id            string
	predictor     Predictor
	opener        camera.Opener
	surface       Surface
	encoder       FrameEncoder
	constraints   camera.Constraints
	frameInterval time.Duration
	captureCutoff time.Duration
	logger        *logger.Logger
	metrics       *metrics.Metrics

	mu         sync.Mutex
	state      State
	live       *capture
	uploadSeq  uint64
	starting   bool
	abortStart bool
	closed     bool
	listeners  []Listener

	notifyMu sync.Mutex
	loops    sync.WaitGroup
	requests sync.WaitGroup
}

// New creates an idle Session in upload mode.
func New(cfg Config) *Session {
	l := cfg.Logger
	if l == nil {
		l = logger.Discard()
	}
	return &Session{
		id:            uuid.NewString(),
		predictor:     cfg.Predictor,
		opener:        cfg.Opener,
		surface:       cfg.Surface,
		encoder:       cfg.Encoder,
		constraints:   cfg.Constraints,
		frameInterval: cfg.FrameInterval,
		captureCutoff: cfg.CaptureCutoff,
		logger:        l,
		metrics:       cfg.Metrics,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l for state changes.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// notify delivers the latest state. Listeners always see the newest state, in order.
func (s *Session) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	st := s.state
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
}

// SelectFile chooses the file for the next Submit and clears the prediction.
// An upload still in flight is abandoned: its result is not shown.
func (s *Session) SelectFile(name string, data []byte) {
	s.mu.Lock()
	s.uploadSeq++
	s.state = s.state.WithFile(File{Name: name, Data: data})
	s.state.Loading = false
	s.mu.Unlock()

	s.logger.Info("Session %s: selected %s (%d bytes)", s.id, name, len(data))
	s.notify()
}

// Submit uploads the selected file and returns the resulting state. Without a selected file,
// or while live mode is active, it does nothing. Only the latest upload clears Loading and
// sets the prediction; an older one that answers late is dropped.
func (s *Session) Submit(ctx context.Context) (result State) {
	s.mu.Lock()
	if s.state.SelectedFile == nil {
		st := s.state
		s.mu.Unlock()
		return st
	}
	if s.state.UseLiveVideo {
		st := s.state
		s.mu.Unlock()
		s.logger.Warning("Session %s: upload ignored while live mode is active", s.id)
		return st
	}
	file := *s.state.SelectedFile
	s.uploadSeq++
	gen := s.uploadSeq
	s.state = s.state.BeginUpload()
	s.mu.Unlock()
	s.notify()

	var resp dto.PredictResponse
	err := errUploadAborted
	defer func() {
		s.mu.Lock()
		latest := gen == s.uploadSeq
		switch {
		case !latest:
		case s.state.UseLiveVideo:
			// Live mode started meanwhile and owns the prediction now.
			s.state.Loading = false
		default:
			s.state = s.state.FinishUpload(resp, err)
		}
		result = s.state
		s.mu.Unlock()
		if !latest {
			s.logger.Info("Session %s: dropping superseded upload of %s", s.id, file.Name)
			return
		}
		s.notify()
	}()

	resp, err = s.predictor.Predict(ctx, file.Name, bytes.NewReader(file.Data))
	if err != nil {
		s.logger.Error("Session %s: upload of %s failed: %v", s.id, file.Name, err)
	} else {
		s.logger.Info("Session %s: %s -> prediction=%q error=%q", s.id, file.Name, resp.Prediction, resp.Error)
	}
	return
}

// Close leaves live mode, releasing the camera, and waits for capture goroutines to finish.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	stopped := s.live != nil
	var stream camera.Stream
	if stopped {
		stream = s.teardownLocked(StopClose)
	}
	s.mu.Unlock()

	if stopped {
		camera.StopAll(stream)
		s.notify()
	}
	s.loops.Wait()
	s.requests.Wait()
}
