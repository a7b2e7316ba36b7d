package preview

import "errors"

// ErrNotReady is returned when no stream is bound or it has no frame yet.
var ErrNotReady = errors.New("surface not ready")
