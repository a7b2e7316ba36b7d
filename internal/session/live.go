package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"signcam/internal/camera"
	"signcam/internal/dto"
	"signcam/internal/metrics"
)

// Reasons a capture ends.
const (
	StopManual = "manual"
	StopCutoff = "cutoff"
	StopClose  = "close"
)

// capture is one Capturing period: a stream, its periodic task and its cutoff timer.
type capture struct {
	id     string
	stream camera.Stream
	ctx    context.Context
	cancel context.CancelFunc
	cutoff *time.Timer

	// nextSeq numbers dispatched frames; appliedSeq is the newest frame whose response was shown.
	nextSeq    uint64
	appliedSeq uint64
}

// Live reports whether a capture is active.
func (s *Session) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live != nil
}

// Toggle switches between upload and live mode.
func (s *Session) Toggle(ctx context.Context) error {
	if s.Live() {
		s.StopLive()
		return nil
	}
	return s.StartLive(ctx)
}

// StartLive acquires the camera and starts periodic frame capture. If access fails the session
// stays in upload mode and the *camera.MediaAccessError is returned.
func (s *Session) StartLive(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.live != nil {
		s.mu.Unlock()
		return nil
	}
	if s.starting {
		// A start is already opening the camera; let it finish even if it was stopped meanwhile.
		s.abortStart = false
		s.mu.Unlock()
		return nil
	}
	s.starting = true
	s.abortStart = false
	s.mu.Unlock()

	stream, err := s.opener.Open(ctx, s.constraints)

	s.mu.Lock()
	s.starting = false
	if err != nil {
		s.mu.Unlock()
		var mediaErr *camera.MediaAccessError
		if !errors.As(err, &mediaErr) {
			err = &camera.MediaAccessError{Constraints: s.constraints, Err: err}
		}
		s.logger.Error("Session %s: camera access failed: %v", s.id, err)
		return err
	}
	if s.closed || s.abortStart {
		closed := s.closed
		s.mu.Unlock()
		camera.StopAll(stream)
		s.logger.Info("Session %s: live mode cancelled while the camera was opening", s.id)
		if closed {
			return ErrClosed
		}
		return nil
	}

	ctxCapture, cancel := context.WithCancel(context.Background())
	c := &capture{
		id:     uuid.NewString(),
		stream: stream,
		ctx:    ctxCapture,
		cancel: cancel,
	}
	s.live = c
	s.surface.Bind(stream)
	s.state = s.state.BeginLive(stream.ID())

	s.loops.Add(1)
	go s.captureLoop(c)

	if s.captureCutoff > 0 {
		c.cutoff = time.AfterFunc(s.captureCutoff, func() {
			s.stopCapture(c, StopCutoff)
		})
	}
	s.mu.Unlock()

	s.logger.Info("Session %s: live capture %s started on stream %s (every %v, cutoff %v)",
		s.id, c.id, stream.ID(), s.frameInterval, s.captureCutoff)
	s.notify()
	return nil
}

// StopLive returns to upload mode. It is a no-op when not capturing.
func (s *Session) StopLive() {
	s.mu.Lock()
	if s.starting {
		s.abortStart = true
	}
	c := s.live
	s.mu.Unlock()

	if c != nil {
		s.stopCapture(c, StopManual)
	}
}

// stopCapture tears c down unless another exit path already did.
func (s *Session) stopCapture(c *capture, reason string) {
	s.mu.Lock()
	if s.live != c {
		s.mu.Unlock()
		return
	}
	stream := s.teardownLocked(reason)
	s.mu.Unlock()

	camera.StopAll(stream)
	s.notify()
}

// teardownLocked is the single exit path out of Capturing: it cancels the periodic task and the
// cutoff, unbinds the surface and clears the prediction. The returned stream is detached and must
// be stopped by the caller once s.mu is released.
func (s *Session) teardownLocked(reason string) camera.Stream {
	c := s.live
	s.live = nil

	c.cancel()
	if c.cutoff != nil {
		c.cutoff.Stop()
	}
	s.surface.Unbind()
	s.state = s.state.EndLive()

	s.metrics.LiveStopped(reason)
	s.logger.Info("Session %s: live capture %s stopped (%s) after %d frames", s.id, c.id, reason, c.nextSeq)
	return c.stream
}

// captureLoop fires a capture every frame interval until the capture is cancelled.
func (s *Session) captureLoop(c *capture) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			s.captureFrame(c)
		}
	}
}

// captureFrame sends the current frame without waiting for the answer. Frames are skipped
// while the surface has nothing to show.
func (s *Session) captureFrame(c *capture) {
	img, ok := s.surface.Snapshot()
	if !ok {
		s.metrics.FrameResult(metrics.FrameSkipped)
		return
	}

	payload, err := s.encoder.Encode(img)
	if err != nil {
		s.metrics.FrameResult(metrics.FrameFailed)
		s.logger.Warning("Session %s: failed to encode frame: %v", s.id, err)
		return
	}

	s.mu.Lock()
	if s.live != c {
		s.mu.Unlock()
		return
	}
	c.nextSeq++
	seq := c.nextSeq
	s.requests.Add(1)
	s.mu.Unlock()

	s.metrics.FrameResult(metrics.FrameSent)
	go func() {
		defer s.requests.Done()
		resp, err := s.predictor.PredictFrame(c.ctx, payload)
		s.applyFrame(c, seq, resp, err)
	}()
}

// applyFrame shows a frame response unless a newer one was shown already or the capture ended.
// Failures are logged and leave the prediction untouched.
func (s *Session) applyFrame(c *capture, seq uint64, resp dto.PredictResponse, err error) {
	if err != nil {
		s.metrics.FrameResult(metrics.FrameFailed)
		if c.ctx.Err() == nil {
			s.logger.Error("Session %s: frame %d failed: %v", s.id, seq, err)
		}
		return
	}

	s.mu.Lock()
	if s.live != c || seq <= c.appliedSeq {
		s.mu.Unlock()
		s.metrics.FrameResult(metrics.FrameStale)
		return
	}
	c.appliedSeq = seq
	s.state = s.state.ApplyFrame(resp.Prediction)
	s.mu.Unlock()

	s.metrics.FrameResult(metrics.FrameApplied)
	s.notify()
}
