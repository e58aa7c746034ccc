package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"eppdetect/internal/config"
	"eppdetect/internal/dto"
	"eppdetect/internal/logger"
	"eppdetect/internal/model"
	"eppdetect/internal/service"
	"eppdetect/internal/service/media"
	"eppdetect/internal/service/report"
	"eppdetect/internal/service/storage"
)

const sniffLen = 512

// HealthProbe reports whether the detector backend can serve requests.
type HealthProbe func(ctx context.Context) error

// HealthHandler handles GET /api/health.
func HealthHandler(cfg *config.Config, probe HealthProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loaded := true
		status := "healthy"
		if probe != nil {
			if err := probe(r.Context()); err != nil {
				loaded = false
				status = "degraded"
			}
		}
		respondJSON(w, map[string]interface{}{
			"status":       status,
			"model_loaded": loaded,
			"model_path":   cfg.ModelPath,
			"backend":      cfg.DetectorBackend,
		}, http.StatusOK)
	}
}

// StatsHandler handles GET /api/stats with the model classes and the policy in use.
func StatsHandler(manager *service.Manager, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classes := make(map[int]string, len(cfg.ModelClasses))
		for i, c := range cfg.ModelClasses {
			classes[i] = c
		}
		policy := manager.Policy()
		respondJSON(w, map[string]interface{}{
			"model": map[string]interface{}{
				"path":    cfg.ModelPath,
				"format":  cfg.ModelFormat,
				"backend": cfg.DetectorBackend,
				"classes": classes,
			},
			"policy": map[string]interface{}{
				"mandatory":         report.DisplayNames(policy.Mandatory),
				"optional":          report.DisplayNames(policy.Optional),
				"overlap_threshold": policy.Threshold,
				"strict_markers":    policy.StrictMarkers,
			},
		}, http.StatusOK)
	}
}

// DetectImageHandler handles POST /api/detect/image (multipart field "file").
func DetectImageHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		file, header, ok := formFile(w, r, cfg)
		if !ok {
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(w, "Failed to read file", http.StatusBadRequest)
			return
		}
		if err := requireKind(header, data, media.KindImage); err != nil {
			manager.Metrics().RejectedUploads.Add(1)
			respondStageError(w, logger, model.NewStageError(model.StageUpload, header.Filename, err))
			return
		}

		result, err := manager.AnalyzeImage(r.Context(), header.Filename, data)
		if err != nil {
			respondStageError(w, logger, err)
			return
		}

		respondJSON(w, dto.ImageDetectionResponse{
			Success:         true,
			Detections:      result.Verdict.Detections,
			Compliance:      report.Summarize(result.Verdict),
			ProcessedImage:  result.Filename,
			Thumbnail:       result.Thumbnail,
			TotalDetections: result.Verdict.TotalDetections,
		}, http.StatusOK)
	}
}

// DetectVideoHandler handles POST /api/detect/video (multipart field "file",
// optional "stride" query parameter).
func DetectVideoHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		file, header, ok := formFile(w, r, cfg)
		if !ok {
			return
		}
		defer file.Close()

		head := make([]byte, sniffLen)
		n, _ := io.ReadFull(file, head)
		if err := requireKind(header, head[:n], media.KindVideo); err != nil {
			manager.Metrics().RejectedUploads.Add(1)
			respondStageError(w, logger, model.NewStageError(model.StageUpload, header.Filename, err))
			return
		}

		tmp, err := os.CreateTemp("", "upload-*"+strings.ToLower(filepath.Ext(header.Filename)))
		if err != nil {
			respondStageError(w, logger, model.NewStageError(model.StageUpload, header.Filename, err))
			return
		}
		defer os.Remove(tmp.Name())

		_, err = io.Copy(tmp, io.MultiReader(bytes.NewReader(head[:n]), file))
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			respondStageError(w, logger, model.NewStageError(model.StageUpload, header.Filename, fmt.Errorf("failed to store upload: %w", err)))
			return
		}

		stride := atoiDefault(r.URL.Query().Get("stride"), 0)
		result, err := manager.AnalyzeVideo(r.Context(), header.Filename, tmp.Name(), stride)
		if err != nil {
			respondStageError(w, logger, err)
			return
		}

		respondJSON(w, dto.VideoDetectionResponse{
			Success:        true,
			Report:         result.Report,
			ProcessedVideo: result.Filename,
			TextReport:     report.RenderVideo(result.Report, result.Filename),
		}, http.StatusOK)
	}
}

func formFile(w http.ResponseWriter, r *http.Request, cfg *config.Config) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, "Failed to parse form", http.StatusBadRequest)
		return nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return nil, nil, false
	}
	return file, header, true
}

func requireKind(header *multipart.FileHeader, head []byte, want media.Kind) error {
	kind, err := media.Classify(header.Header.Get("Content-Type"), header.Filename, head)
	if err != nil {
		return err
	}
	if kind != want {
		return fmt.Errorf("%w: expected %s, got %s", model.ErrUnsupportedMedia, want, kind)
	}
	return nil
}

// ImageFileHandler serves GET /api/image/{name}.
func ImageFileHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveStored(w, r, manager.Buffer().ImagePath, r.PathValue("name"), "Imagen no encontrada")
	}
}

// ThumbnailHandler serves GET /api/thumbnail/{name}, where name is the
// processed image name.
func ThumbnailHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if name != "" {
			name = storage.ThumbnailName(name)
		}
		serveStored(w, r, manager.Buffer().ImagePath, name, "Miniatura no encontrada")
	}
}

// VideoFileHandler serves GET /api/video/{name}.
func VideoFileHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveStored(w, r, manager.Buffer().VideoFilePath, r.PathValue("name"), "Video no encontrado")
	}
}

func serveStored(w http.ResponseWriter, r *http.Request, resolve func(string) (string, bool), name, notFound string) {
	path, ok := resolve(name)
	if !ok {
		respondError(w, "Invalid file name", http.StatusBadRequest)
		return
	}
	if _, err := os.Stat(path); err != nil {
		respondError(w, notFound, http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}
