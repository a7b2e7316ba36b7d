package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"signcam/internal/logger"
	"signcam/internal/service"
	"signcam/internal/service/preview"
)

// PreviewHandler serves the current camera frame as JPEG; 404 while nothing is being captured.
func PreviewHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		var buf bytes.Buffer
		if err := manager.GetSurface().WriteJPEG(&buf); err != nil {
			if errors.Is(err, preview.ErrNotReady) {
				http.NotFound(w, r)
				return
			}
			logger.Error("Preview failed: %v", err)
			http.Error(w, "Preview failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())
	}
}
