package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"eppdetect/internal/config"
	"eppdetect/internal/logger"
	"eppdetect/internal/repository"
	"eppdetect/internal/repository/sqlite"
	"eppdetect/internal/service"
	"eppdetect/internal/service/ai"
	"eppdetect/internal/service/ai/dnn"
	"eppdetect/internal/service/report"
	"eppdetect/internal/service/storage"
	"eppdetect/internal/service/video/capture"
)

func main() {
	imagePath := flag.String("image", "", "Image to analyze")
	videoPath := flag.String("video", "", "Video to analyze")
	outDir := flag.String("out", "", "Directory for annotated output (defaults to IMAGE_DIR / VIDEO_DIR)")
	stride := flag.Int("stride", 0, "Evaluate every Nth video frame (defaults to VIDEO_STRIDE)")
	dbPath := flag.String("db", "", "Store the result in this database")
	flag.Parse()

	if (*imagePath == "") == (*videoPath == "") {
		fmt.Fprintln(os.Stderr, "usage: analyze -image FILE | -video FILE [-out DIR] [-stride N] [-db PATH]")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *outDir != "" {
		cfg.ImageDirectory = *outDir
		cfg.VideoDirectory = *outDir
	}
	cfg.BufferLimit = 1

	deps := service.Dependencies{}
	var analyses repository.AnalysisRepository
	if *dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
		db, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		analyses = sqlite.NewAnalysisRepository(db)
		deps.Videos = sqlite.NewVideoRepository(db)
	}

	lg := logger.NewLogger(cfg)
	defer lg.Sync()

	var detector ai.Detector
	if cfg.DetectorBackend == config.BackendRemote {
		detector = ai.NewRemoteDetector(cfg.InferenceURL, cfg.DetectionThreshold, 0)
	} else {
		d := dnn.NewDetector(cfg, lg)
		if !d.Ready() {
			log.Fatalf("Model %s could not be loaded", cfg.ModelPath)
		}
		detector = d
	}
	annotator := dnn.NewAnnotator()

	deps.Detectors = []ai.Detector{detector}
	deps.Annotator = annotator
	deps.Opener = capture.Opener{Annotator: annotator}
	deps.Buffer = storage.NewBufferService(cfg, lg, analyses)

	manager, err := service.NewManager(cfg, lg, deps)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer manager.Stop()

	ctx := context.Background()

	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *imagePath, err)
		}
		result, err := manager.AnalyzeImage(ctx, filepath.Base(*imagePath), data)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		fmt.Print(report.RenderVerdict(result.Verdict))
		fmt.Printf("🖼️  Annotated image: %s\n", filepath.Join(cfg.ImageDirectory, result.Filename))
		return
	}

	result, err := manager.AnalyzeVideo(ctx, filepath.Base(*videoPath), *videoPath, *stride)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	output := ""
	if result.Filename != "" {
		output = filepath.Join(cfg.VideoDirectory, result.Filename)
	}
	fmt.Print(report.RenderVideo(result.Report, output))
	if result.RecordID > 0 {
		fmt.Printf("💾 Stored as video #%d\n", result.RecordID)
	}
}
