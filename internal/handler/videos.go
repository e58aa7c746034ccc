package handler

import (
	"net/http"
	"strconv"

	"eppdetect/internal/dto"
	"eppdetect/internal/logger"
	"eppdetect/internal/repository"
	"eppdetect/internal/service"
	"eppdetect/internal/service/report"
)

// GetVideosHandler returns the stored video and camera reports, newest first.
func GetVideosHandler(logger *logger.Logger, videoRepo repository.VideoRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)
		violating, _ := strconv.ParseBool(q.Get("violating"))

		filter := &dto.VideoFilters{
			Source:        q.Get("source"),
			OnlyViolating: violating,
			DateAfter:     parseDate(q.Get("dateAfter")),
			DateBefore:    parseDate(q.Get("dateBefore")),
			Limit:         limit,
			Offset:        (page - 1) * limit,
		}

		videos, err := videoRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying videos from database: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		total, err := videoRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting videos: %v", err)
			total = len(videos)
		}

		respondJSON(w, dto.VideosData{
			Videos:      videos,
			Length:      total,
			TotalPages:  dto.TotalPages(total, limit),
			CurrentPage: page,
			Limit:       limit,
		}, http.StatusOK)
	}
}

// ViewVideoHandler returns one stored report with its violation events.
func ViewVideoHandler(logger *logger.Logger, videoRepo repository.VideoRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			respondError(w, "Valid id required", http.StatusBadRequest)
			return
		}

		video, err := videoRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading video %d: %v", id, err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if video == nil {
			respondError(w, "Video not found", http.StatusNotFound)
			return
		}

		violations, err := videoRepo.GetViolations(id)
		if err != nil {
			logger.Error("Error loading violations of video %d: %v", id, err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, dto.VideoDetail{Video: *video, Violations: violations}, http.StatusOK)
	}
}

// CamerasHandler lists the cameras that sent frames since startup.
func CamerasHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]interface{}{"cameras": manager.Cameras()}, http.StatusOK)
	}
}

// CameraReportHandler returns the running report of one live camera. The
// "format=text" query returns the plain-text report.
func CameraReportHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("id")
		if camera == "" {
			respondError(w, "Camera id required", http.StatusBadRequest)
			return
		}
		rep, ok := manager.CameraReport(camera)
		if !ok {
			respondError(w, "Camera not found", http.StatusNotFound)
			return
		}

		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte(report.RenderVideo(rep, "")))
			return
		}
		respondJSON(w, rep, http.StatusOK)
	}
}
