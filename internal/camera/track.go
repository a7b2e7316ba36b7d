package camera

import "sync"

// VideoTrack is a Track that runs a release function the first time it is stopped.
type VideoTrack struct {
	mu      sync.Mutex
	state   TrackState
	calls   int
	release func()
}

// NewVideoTrack creates a live track; release may be nil.
func NewVideoTrack(release func()) *VideoTrack {
	return &VideoTrack{state: TrackLive, release: release}
}

func (t *VideoTrack) Kind() string {
	return "video"
}

func (t *VideoTrack) State() TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stop ends the track. Only the first call runs the release function.
func (t *VideoTrack) Stop() {
	t.mu.Lock()
	t.calls++
	if t.state == TrackEnded {
		t.mu.Unlock()
		return
	}
	t.state = TrackEnded
	release := t.release
	t.mu.Unlock()

	if release != nil {
		release()
	}
}

// StopCalls returns how many times Stop was called.
func (t *VideoTrack) StopCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
