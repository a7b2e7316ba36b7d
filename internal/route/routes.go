package route

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signcam/internal/config"
	"signcam/internal/handler"
	"signcam/internal/logger"
	"signcam/internal/metrics"
	"signcam/internal/middleware"
	"signcam/internal/service"
)

var logLevels = []struct{ path, file string }{
	{"/logs/info", logger.InfoFile},
	{"/logs/warning", logger.WarningFile},
	{"/logs/error", logger.ErrorFile},
}

// dynamicHTMLHandler serves /path as {static}/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the page, the session API, log endpoints and /metrics, and wraps the mux
// with the request middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger,
	m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// Session API
	mux.HandleFunc("/api/predict", handler.PredictHandler(manager, cfg, logger))
	mux.HandleFunc("/api/live/start", handler.StartLiveHandler(manager, logger))
	mux.HandleFunc("/api/live/stop", handler.StopLiveHandler(manager, logger))
	mux.HandleFunc("/api/live/preview", handler.PreviewHandler(manager, logger))
	mux.HandleFunc("/api/state", handler.StateHandler(manager, logger))
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(manager, logger))

	// Log endpoints
	for _, level := range logLevels {
		mux.HandleFunc(level.path, handler.ShowLogsHandler(cfg, level.file))
		mux.HandleFunc(level.path+"/clear", handler.ClearLogsHandler(logger, level.file))
	}

	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Automatic HTML handler mapping, for example: /about -> {static}/about.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	return middleware.RequestMiddleware(logger, m)(mux)
}
