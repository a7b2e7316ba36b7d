package camera

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is returned when the camera may not be used.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrUnavailable is returned when no matching camera can be opened.
	ErrUnavailable = errors.New("camera unavailable")
)

// MediaAccessError wraps a failure to acquire a stream.
type MediaAccessError struct {
	Constraints Constraints
	Err         error
}

func (e *MediaAccessError) Error() string {
	return fmt.Sprintf("media access failed (facing=%s device=%d): %v", e.Constraints.Facing, e.Constraints.Device, e.Err)
}

func (e *MediaAccessError) Unwrap() error {
	return e.Err
}
