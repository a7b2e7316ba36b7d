package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"signcam/internal/camera"
	"signcam/internal/config"
	"signcam/internal/frame"
	"signcam/internal/logger"
	"signcam/internal/metrics"
	"signcam/internal/predictor"
	"signcam/internal/route"
	"signcam/internal/service"
	"signcam/internal/service/preview"
	"signcam/internal/service/websocket"
	"signcam/internal/session"
)

const shutdownTimeout = 5 * time.Second

// OpenerFactory returns the camera Opener for a source name. The cmd packages pass
// source.NewOpener; nothing under internal/ except camera/webcam imports gocv.
type OpenerFactory func(name string, interval time.Duration, logger *logger.Logger) camera.Opener

type App struct {
	config   *config.Config
	logger   *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	manager  *service.Manager
}

// NewSession builds a session talking to the configured prediction service.
func NewSession(cfg *config.Config, opener camera.Opener, surface session.Surface, log *logger.Logger, m *metrics.Metrics) *session.Session {
	client := predictor.NewClient(cfg.PredictBaseURL, cfg.RequestTimeout, predictor.WithMetrics(m))

	return session.New(session.Config{
		Predictor:     client,
		Opener:        opener,
		Surface:       surface,
		Encoder:       frame.NewEncoder(cfg.FrameWidth, cfg.FrameHeight),
		Constraints:   Constraints(cfg),
		FrameInterval: cfg.FrameInterval,
		CaptureCutoff: cfg.CaptureCutoff,
		Logger:        log,
		Metrics:       m,
	})
}

// Constraints builds the constraints used to open the camera.
func Constraints(cfg *config.Config) camera.Constraints {
	return camera.Constraints{
		Facing: camera.Facing(cfg.CameraFacing),
		Device: cfg.CameraDevice,
	}
}

func NewApp(openers OpenerFactory) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	surface := preview.NewSurface(log)
	opener := openers(cfg.CameraSource, cfg.FrameInterval, log)
	sess := NewSession(cfg, opener, surface, log, m)
	hub := websocket.NewHubService(log)

	return &App{
		config:   cfg,
		logger:   log,
		registry: registry,
		metrics:  m,
		manager:  service.NewManager(sess, surface, hub, log),
	}, nil
}

// Run serves the web UI until ctx is done, then shuts down and releases the camera.
func (a *App) Run(ctx context.Context) error {
	defer a.logger.Close()

	a.manager.Start(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: route.SetupRoutes(a.manager, a.config, a.logger, a.metrics, a.registry),
	}

	fmt.Printf("🚀 Sign Camera Client\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 Prediction service: %s\n", a.config.PredictBaseURL)
	fmt.Printf("📷 Camera: %s\n", a.config.CameraSource)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.manager.Stop()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.manager.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
