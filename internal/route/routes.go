package route

import (
	"net/http"
	"os"
	"path/filepath"

	"objectmonitor/internal/config"
	"objectmonitor/internal/handler"
	"objectmonitor/internal/logger"
	"objectmonitor/internal/middleware"
	"objectmonitor/internal/repository"
	"objectmonitor/internal/service"
	"objectmonitor/internal/service/websocket"
)

// Deps groups what the HTTP layer needs from the application.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Manager       *service.Manager
	Hub           *websocket.HubService
	Auth          *middleware.Auth
	AlertRepo     repository.AlertRepository
	DetectionRepo repository.DetectionRepository
	Metrics       http.Handler
}

// dynamicHTMLHandler serves /path as <staticDir>/path.html if the file exists; otherwise 404.
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

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	cfg, logger := d.Config, d.Logger

	// Static files
	static := http.FileServer(http.Dir(cfg.StaticDir))
	mux.Handle("/static/", http.StripPrefix("/static/", static))
	mux.Handle("/css/", static)
	mux.Handle("/js/", static)

	// Live stream and stats
	mux.HandleFunc("/video", handler.VideoFeedHandler(d.Manager, logger))
	mux.HandleFunc("/detection_stats", handler.DetectionStatsHandler(d.Manager, logger))
	mux.HandleFunc("/ws/stats", handler.StatsWebsocketHandler(d.Hub, d.Manager, logger))

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics)
	}

	// Alert history
	if d.AlertRepo != nil && d.DetectionRepo != nil {
		mux.HandleFunc("/api/alerts", handler.GetAlertsHandler(logger, d.AlertRepo, d.DetectionRepo))
		mux.HandleFunc("/api/alerts/labels", handler.AlertLabelsHandler(logger, d.DetectionRepo))
		mux.HandleFunc("/api/alerts/detections", handler.AlertDetectionsHandler(logger, d.AlertRepo, d.DetectionRepo))
		mux.HandleFunc("/api/alerts/view", handler.ViewAlertHandler(cfg))
		mux.HandleFunc("/api/alerts/delete", handler.DeleteAlertHandler(cfg, logger, d.AlertRepo))
		mux.HandleFunc("/api/alerts/clear", handler.ClearAlertsHandler(cfg, logger, d.AlertRepo))
	}

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(logger, "info.log"))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(logger, "warning.log"))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(logger, "error.log"))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(logger, "info.log"))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(logger, "warning.log"))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(logger, "error.log"))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(d.Auth, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler())

	// Automatic HTML handler mapping for example: /alerts -> <static>/alerts.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDir))

	// Apply middleware
	return d.Auth.Middleware(mux)
}
