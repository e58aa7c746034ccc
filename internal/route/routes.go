package route

import (
	"net/http"
	"os"
	"path/filepath"

	"eppdetect/internal/config"
	"eppdetect/internal/handler"
	"eppdetect/internal/logger"
	"eppdetect/internal/middleware"
	"eppdetect/internal/repository"
	"eppdetect/internal/service"
	"eppdetect/internal/service/chatbot"
)

// Deps groups what the routes need besides the manager.
type Deps struct {
	Bot      *chatbot.Bot
	Analyses repository.AnalysisRepository
	Videos   repository.VideoRepository
	Health   handler.HealthProbe
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving and API endpoints,
// and wraps the mux with the logging, CORS and authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger, deps Deps) http.Handler {
	mux := http.NewServeMux()
	upgrader := handler.NewUpgrader(cfg.AllowedOrigins)

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Detection
	mux.HandleFunc("GET /api/health", handler.HealthHandler(cfg, deps.Health))
	mux.HandleFunc("GET /api/stats", handler.StatsHandler(manager, cfg))
	mux.HandleFunc("/api/detect/image", handler.DetectImageHandler(manager, cfg, logger))
	mux.HandleFunc("/api/detect/video", handler.DetectVideoHandler(manager, cfg, logger))
	mux.HandleFunc("GET /api/image/{name}", handler.ImageFileHandler(manager))
	mux.HandleFunc("GET /api/thumbnail/{name}", handler.ThumbnailHandler(manager))
	mux.HandleFunc("GET /api/video/{name}", handler.VideoFileHandler(manager))

	// Chatbot and last analysis
	mux.HandleFunc("/api/chatbot", handler.ChatbotHandler(deps.Bot, manager.Metrics(), logger))
	mux.HandleFunc("GET /api/last", handler.LastAnalysisHandler(manager.Session(), logger))

	// Stored analyses and videos
	if deps.Analyses != nil {
		mux.HandleFunc("GET /api/analyses", handler.GetAnalysesHandler(manager, cfg, logger, deps.Analyses))
		mux.HandleFunc("GET /api/analyses/view", handler.ViewAnalysisHandler(logger, deps.Analyses))
		mux.HandleFunc("/api/analyses/delete", handler.DeleteAnalysisHandler(manager, logger, deps.Analyses))
		mux.HandleFunc("/api/analyses/clear", handler.ClearAnalysesHandler(manager, cfg, logger, deps.Analyses))
		mux.HandleFunc("GET /api/analyses/stats", handler.AnalysisStatsHandler(logger, deps.Analyses))
	}
	if deps.Videos != nil {
		mux.HandleFunc("GET /api/videos", handler.GetVideosHandler(logger, deps.Videos))
		mux.HandleFunc("GET /api/videos/view", handler.ViewVideoHandler(logger, deps.Videos))
	}

	// Live cameras
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(manager, upgrader, logger))
	mux.HandleFunc("/api/camera", handler.CameraWebsocketHandler(manager, upgrader, logger))
	mux.HandleFunc("GET /api/cameras", handler.CamerasHandler(manager))
	mux.HandleFunc("GET /api/cameras/report", handler.CameraReportHandler(manager))

	// Logs and metrics
	mux.HandleFunc("GET /logs/{level}", handler.ShowLogsHandler(cfg))
	mux.HandleFunc("/logs/{level}/clear", handler.ClearLogsHandler(logger))
	mux.Handle("GET /metrics", manager.Metrics().Handler())

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.AuthMiddleware(cfg.Password, h)
	h = middleware.CORSMiddleware(cfg.AllowedOrigins, h)
	return middleware.LoggingMiddleware(logger, h)
}
