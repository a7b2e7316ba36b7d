package preview

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"sync"

	"signcam/internal/camera"
	"signcam/internal/logger"
)

// JPEGQuality is used when the current frame is served to the page.
const JPEGQuality = 80

// Surface is the video surface a live stream is bound to. It is ready once the bound stream
// has produced a frame.
type Surface struct {
	stream camera.Stream
	mu     sync.RWMutex
	logger *logger.Logger
}

// NewSurface creates an unbound Surface.
func NewSurface(logger *logger.Logger) *Surface {
	return &Surface{logger: logger}
}

// Bind attaches s, replacing any previous stream.
func (p *Surface) Bind(s camera.Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = s
	p.logger.Info("Surface bound to stream %s", s.ID())
}

// Unbind detaches the current stream, if any.
func (p *Surface) Unbind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		p.logger.Info("Surface unbound from stream %s", p.stream.ID())
	}
	p.stream = nil
}

// StreamID returns the id of the bound stream, or "".
func (p *Surface) StreamID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stream == nil {
		return ""
	}
	return p.stream.ID()
}

// Snapshot returns the current frame of the bound stream.
func (p *Surface) Snapshot() (image.Image, bool) {
	p.mu.RLock()
	s := p.stream
	p.mu.RUnlock()

	if s == nil {
		return nil, false
	}
	img, ok := s.Frame()
	if !ok || img == nil || img.Bounds().Empty() {
		return nil, false
	}
	return img, true
}

// Ready reports whether a frame can be captured.
func (p *Surface) Ready() bool {
	_, ok := p.Snapshot()
	return ok
}

// WriteJPEG encodes the current frame to w.
func (p *Surface) WriteJPEG(w io.Writer) error {
	img, ok := p.Snapshot()
	if !ok {
		return ErrNotReady
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}
