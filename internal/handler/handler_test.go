package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"signcam/internal/camera"
	"signcam/internal/camera/filesim"
	"signcam/internal/config"
	"signcam/internal/dto"
	"signcam/internal/frame"
	"signcam/internal/logger"
	"signcam/internal/predictor"
	"signcam/internal/service"
	"signcam/internal/service/preview"
	"signcam/internal/service/websocket"
	"signcam/internal/session"
)

// ========================================
// Helpers
// ========================================

func newPredictionService(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func writeFrames(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "0001.png"))
	if err != nil {
		t.Fatalf("Failed to create frame: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 48))); err != nil {
		t.Fatalf("Failed to encode frame: %v", err)
	}
	return dir
}

func newTestManager(t *testing.T, serviceURL string, opener camera.Opener) (*service.Manager, *config.Config) {
	t.Helper()

	cfg := config.Defaults()
	cfg.PredictBaseURL = serviceURL
	cfg.UploadLimitMB = 1
	cfg.LogDirectory = t.TempDir()
	cfg.FrameInterval = time.Hour

	log := logger.Discard()
	surface := preview.NewSurface(log)
	sess := session.New(session.Config{
		Predictor:     predictor.NewClient(cfg.PredictBaseURL, time.Second),
		Opener:        opener,
		Surface:       surface,
		Encoder:       frame.NewEncoder(cfg.FrameWidth, cfg.FrameHeight),
		FrameInterval: cfg.FrameInterval,
		Logger:        log,
	})

	manager := service.NewManager(sess, surface, websocket.NewHubService(log), log)
	manager.Start(context.Background())
	t.Cleanup(manager.Stop)
	return manager, cfg
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) dto.StateView {
	t.Helper()
	var view dto.StateView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("Invalid state body: %v", err)
	}
	return view
}

// ========================================
// Upload
// ========================================

func TestPredictHandler_ReturnsPrediction(t *testing.T) {
	svc := newPredictionService(t, `{"prediction":"A"}`)
	manager, cfg := newTestManager(t, svc.URL, &fakeDeniedOpener{})
	h := PredictHandler(manager, cfg, logger.Discard())

	rec := httptest.NewRecorder()
	h(rec, uploadRequest(t, UploadField, "hand.png", []byte("img")))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeView(t, rec)
	if view.Display != "A" || view.SelectedFile != "hand.png" || view.Loading {
		t.Errorf("Unexpected view %+v", view)
	}
}

func TestPredictHandler_ServiceErrorIsDisplayed(t *testing.T) {
	svc := newPredictionService(t, `{"error":"bad image"}`)
	manager, cfg := newTestManager(t, svc.URL, &fakeDeniedOpener{})
	h := PredictHandler(manager, cfg, logger.Discard())

	rec := httptest.NewRecorder()
	h(rec, uploadRequest(t, UploadField, "x.png", []byte("x")))

	if view := decodeView(t, rec); view.Display != "bad image" || view.Prediction.Status != "failure" {
		t.Errorf("Unexpected view %+v", view)
	}
}

func TestPredictHandler_RejectsBadRequests(t *testing.T) {
	svc := newPredictionService(t, `{"prediction":"A"}`)
	manager, cfg := newTestManager(t, svc.URL, &fakeDeniedOpener{})
	h := PredictHandler(manager, cfg, logger.Discard())

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"wrong method", httptest.NewRequest(http.MethodGet, "/api/predict", nil), http.StatusMethodNotAllowed},
		{"wrong field", uploadRequest(t, "image", "x.png", []byte("x")), http.StatusBadRequest},
		{"too large", uploadRequest(t, UploadField, "big.png", make([]byte, 2<<20)), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, tt.req)
			if rec.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

// ========================================
// Live mode
// ========================================

type fakeDeniedOpener struct{}

func (fakeDeniedOpener) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	return nil, &camera.MediaAccessError{Constraints: c, Err: camera.ErrPermissionDenied}
}

func TestStartLiveHandler_PermissionDenied(t *testing.T) {
	manager, _ := newTestManager(t, "http://127.0.0.1:1", fakeDeniedOpener{})

	rec := httptest.NewRecorder()
	StartLiveHandler(manager, logger.Discard())(rec, httptest.NewRequest(http.MethodPost, "/api/live/start", nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
	if st := manager.GetSession().State(); st.UseLiveVideo || st.Loading {
		t.Errorf("Expected idle upload state, got %+v", st)
	}
}

func TestLiveHandlers_StartPreviewStop(t *testing.T) {
	opener := filesim.NewOpener(writeFrames(t), 0, logger.Discard())
	manager, cfg := newTestManager(t, "http://127.0.0.1:1", opener)
	log := logger.Discard()

	rec := httptest.NewRecorder()
	StartLiveHandler(manager, log)(rec, httptest.NewRequest(http.MethodPost, "/api/live/start", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if view := decodeView(t, rec); !view.UseLiveVideo || view.StreamID == "" {
		t.Fatalf("Expected live view, got %+v", view)
	}

	rec = httptest.NewRecorder()
	PreviewHandler(manager, log)(rec, httptest.NewRequest(http.MethodGet, "/api/live/preview", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("Expected jpeg preview, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = httptest.NewRecorder()
	PredictHandler(manager, cfg, log)(rec, uploadRequest(t, UploadField, "x.png", []byte("x")))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for upload in live mode, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	StopLiveHandler(manager, log)(rec, httptest.NewRequest(http.MethodPost, "/api/live/stop", nil))
	if view := decodeView(t, rec); view.UseLiveVideo {
		t.Errorf("Expected upload mode after stop, got %+v", view)
	}

	rec = httptest.NewRecorder()
	PreviewHandler(manager, log)(rec, httptest.NewRequest(http.MethodGet, "/api/live/preview", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after stop, got %d", rec.Code)
	}
}

func TestStateHandler(t *testing.T) {
	manager, _ := newTestManager(t, "http://127.0.0.1:1", fakeDeniedOpener{})
	manager.GetSession().SelectFile("a.png", []byte("a"))

	rec := httptest.NewRecorder()
	StateHandler(manager, logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if view := decodeView(t, rec); view.SelectedFile != "a.png" || view.Prediction.Status != "idle" {
		t.Errorf("Unexpected view %+v", view)
	}
}

// ========================================
// Logs
// ========================================

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	log, err := logger.New(dir)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer log.Close()
	cfg := &config.Config{LogDirectory: dir}

	log.Error("camera exploded")

	rec := httptest.NewRecorder()
	ShowLogsHandler(cfg, logger.ErrorFile)(rec, httptest.NewRequest(http.MethodGet, "/logs/error", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "camera exploded") {
		t.Fatalf("Expected error log content, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ClearLogsHandler(log, logger.ErrorFile)(rec, httptest.NewRequest(http.MethodPost, "/logs/error/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	data, _ := os.ReadFile(filepath.Join(dir, logger.ErrorFile))
	if len(data) != 0 {
		t.Errorf("Expected empty error log, got %q", data)
	}
}

func TestShowLogsHandler_MissingFile(t *testing.T) {
	cfg := &config.Config{LogDirectory: t.TempDir()}

	rec := httptest.NewRecorder()
	ShowLogsHandler(cfg, logger.InfoFile)(rec, httptest.NewRequest(http.MethodGet, "/logs/info", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
