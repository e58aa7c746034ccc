package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"eppdetect/internal/config"
	"eppdetect/internal/handler"
	"eppdetect/internal/logger"
	"eppdetect/internal/metrics"
	"eppdetect/internal/repository/sqlite"
	"eppdetect/internal/route"
	"eppdetect/internal/service"
	"eppdetect/internal/service/ai"
	"eppdetect/internal/service/ai/dnn"
	"eppdetect/internal/service/chatbot"
	"eppdetect/internal/service/session"
	"eppdetect/internal/service/storage"
	"eppdetect/internal/service/video/capture"
	"eppdetect/internal/service/websocket"

	"github.com/redis/go-redis/v9"
)

const remoteTimeout = 30 * time.Second

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	redis   *redis.Client
	buffer  *storage.BufferService
	hub     *websocket.HubService
	manager *service.Manager
	server  *http.Server
}

// NewApp loads the configuration and wires storage, detectors, the manager
// and the HTTP routes.
func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.NewLogger(cfg)

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	analysisRepo := sqlite.NewAnalysisRepository(db)
	videoRepo := sqlite.NewVideoRepository(db)

	detectors, probe := newDetectors(cfg, log)
	annotator := dnn.NewAnnotator()

	buffer := storage.NewBufferService(cfg, log, analysisRepo)
	hub := websocket.NewHubService(log)

	a := &App{config: cfg, logger: log, db: db, buffer: buffer, hub: hub}

	sess := session.New()
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := session.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warning("Redis unavailable, keeping the last verdict in memory only: %v", err)
		} else {
			a.redis = client
			sess.WithMirror(session.NewRedisMirror(client, cfg.RedisKey), log)
			if err := sess.Restore(ctx); err != nil {
				log.Warning("Failed to restore last verdict from redis: %v", err)
			}
		}
		cancel()
	}

	manager, err := service.NewManager(cfg, log, service.Dependencies{
		Detectors: detectors,
		Annotator: annotator,
		Opener:    capture.Opener{Annotator: annotator},
		Buffer:    buffer,
		Videos:    videoRepo,
		Session:   sess,
		Hub:       hub,
		Metrics:   metrics.New(),
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	a.manager = manager

	router := route.SetupRoutes(manager, cfg, log, route.Deps{
		Bot:      chatbot.New(manager.Session()),
		Analyses: analysisRepo,
		Videos:   videoRepo,
		Health:   probe,
	})
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// newDetectors creates one detector per processing worker for the
// configured backend, plus a health probe for the first one.
func newDetectors(cfg *config.Config, log *logger.Logger) ([]ai.Detector, handler.HealthProbe) {
	detectors := make([]ai.Detector, 0, cfg.ProcessingWorkers)

	if cfg.DetectorBackend == config.BackendRemote {
		for i := 0; i < cfg.ProcessingWorkers; i++ {
			detectors = append(detectors, ai.NewRemoteDetector(cfg.InferenceURL, cfg.DetectionThreshold, remoteTimeout))
		}
		first := detectors[0].(*ai.RemoteDetector)
		return detectors, first.CheckHealth
	}

	var first *dnn.Detector
	for i := 0; i < cfg.ProcessingWorkers; i++ {
		d := dnn.NewDetector(cfg, log) // each worker loads its own network
		if first == nil {
			first = d
		}
		detectors = append(detectors, d)
	}
	return detectors, func(context.Context) error {
		if !first.Ready() {
			return errors.New("model not loaded")
		}
		return nil
	}
}

// Run serves HTTP until ctx is cancelled, then shuts everything down in
// order: listener, camera workers, analysis buffer, database.
func (a *App) Run(ctx context.Context) error {
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	var bufferDone sync.WaitGroup
	bufferDone.Add(1)
	go func() {
		defer bufferDone.Done()
		a.buffer.Run(bgCtx)
	}()
	go a.hub.Run(bgCtx)
	go a.manager.Run(bgCtx)
	if a.config.CamerasPort > 0 {
		go handler.UDPCameraHandler(bgCtx, a.manager, a.logger, a.config)
	}

	a.logger.Info("🚀 EPP detection server")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("🤖 Backend: %s (%s)", a.config.DetectorBackend, a.config.ModelPath)
	a.logger.Info("📁 Images: %s, videos: %s", a.config.ImageDirectory, a.config.VideoDirectory)

	serveErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warning("HTTP shutdown: %v", err)
	}

	a.manager.Stop()
	cancelBg()
	bufferDone.Wait()

	if a.redis != nil {
		a.redis.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Failed to close database: %v", err)
	}
	a.logger.Info("👋 Server stopped")
	a.logger.Sync()
	return runErr
}
