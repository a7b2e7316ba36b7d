// Package camera describes live media streams and the sources that open them.
//
// A Stream owns one or more Tracks. Stopping a track releases the underlying device; a stream is
// released once all of its tracks have ended.
package camera

import (
	"context"
	"image"
)

// Facing selects which camera to open when a device has several.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// TrackState mirrors the lifecycle of a media track.
type TrackState string

const (
	TrackLive  TrackState = "live"
	TrackEnded TrackState = "ended"
)

// Constraints describe the stream requested from an Opener.
type Constraints struct {
	Facing Facing
	Device int
}

// Track is a single media track of a stream. Stop is idempotent.
type Track interface {
	Kind() string
	State() TrackState
	Stop()
}

// Stream is an acquired camera stream.
type Stream interface {
	ID() string
	Tracks() []Track
	// Frame returns the most recent frame, or false when none has arrived yet.
	Frame() (image.Image, bool)
}

// Opener acquires camera streams.
type Opener interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, c Constraints) (Stream, error)

func (f OpenerFunc) Open(ctx context.Context, c Constraints) (Stream, error) {
	return f(ctx, c)
}

// StopAll stops every track of s.
func StopAll(s Stream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// Ended reports whether every track of s has ended.
func Ended(s Stream) bool {
	for _, t := range s.Tracks() {
		if t.State() != TrackEnded {
			return false
		}
	}
	return true
}
