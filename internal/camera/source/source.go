// Package source picks the camera Opener named in the configuration.
package source

import (
	"time"

	"signcam/internal/camera"
	"signcam/internal/camera/filesim"
	"signcam/internal/camera/webcam"
	"signcam/internal/logger"
)

// Webcam selects the local capture device; any other source name is a directory to replay.
const Webcam = "webcam"

// NewOpener returns the Opener for name. Replayed directories advance every interval.
func NewOpener(name string, interval time.Duration, logger *logger.Logger) camera.Opener {
	if name == "" || name == Webcam {
		return webcam.NewOpener(logger)
	}
	return filesim.NewOpener(name, interval, logger)
}
