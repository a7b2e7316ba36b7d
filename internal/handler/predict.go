package handler

import (
	"errors"
	"io"
	"net/http"

	"signcam/internal/config"
	"signcam/internal/logger"
	"signcam/internal/service"
)

// UploadField is the multipart field carrying the image, both here and towards the service.
const UploadField = "file"

// PredictHandler selects the uploaded image and submits it, answering with the resulting state.
func PredictHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		sess := manager.GetSession()
		if sess.State().UseLiveVideo {
			writeError(w, logger, http.StatusConflict, "Live mode is active")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.UploadLimit())
		if err := r.ParseMultipartForm(cfg.UploadLimit()); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, logger, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			logger.Warning("Invalid upload form: %v", err)
			writeError(w, logger, http.StatusBadRequest, "Invalid form data")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(UploadField)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "No file selected")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("Failed to read upload %s: %v", header.Filename, err)
			writeError(w, logger, http.StatusBadRequest, "Error reading file")
			return
		}

		sess.SelectFile(header.Filename, data)
		st := sess.Submit(r.Context())

		writeJSON(w, logger, http.StatusOK, st.View())
	}
}
