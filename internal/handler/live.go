package handler

import (
	"errors"
	"net/http"

	"signcam/internal/camera"
	"signcam/internal/logger"
	"signcam/internal/service"
	"signcam/internal/session"
)

// StartLiveHandler switches the session to live mode. Camera access failures leave the session
// in upload mode and are reported with 403 (denied) or 503 (unavailable).
func StartLiveHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		sess := manager.GetSession()
		if err := sess.StartLive(r.Context()); err != nil {
			switch {
			case errors.Is(err, camera.ErrPermissionDenied):
				writeError(w, logger, http.StatusForbidden, "Camera access denied")
			case errors.Is(err, session.ErrClosed):
				writeError(w, logger, http.StatusServiceUnavailable, "Server is shutting down")
			default:
				writeError(w, logger, http.StatusServiceUnavailable, "Camera unavailable")
			}
			return
		}

		writeJSON(w, logger, http.StatusOK, sess.State().View())
	}
}

// StopLiveHandler returns the session to upload mode, releasing the camera.
func StopLiveHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		sess := manager.GetSession()
		sess.StopLive()
		writeJSON(w, logger, http.StatusOK, sess.State().View())
	}
}

// StateHandler serves the current session state.
func StateHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, logger, http.StatusOK, manager.GetSession().State().View())
	}
}
