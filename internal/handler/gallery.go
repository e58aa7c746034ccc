package handler

import (
	"net/http"
	"sort"

	"eppdetect/internal/config"
	"eppdetect/internal/dto"
	"eppdetect/internal/logger"
	"eppdetect/internal/repository"
	"eppdetect/internal/service"
	"eppdetect/internal/service/storage"
)

// GetAnalysesHandler returns the filtered, paginated analysis gallery.
func GetAnalysesHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger,
	analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &dto.AnalysisFilters{
			Source:     q.Get("source"),
			Compliance: q.Get("compliance"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			TimeAfter:  parseTimeOfDay(q.Get("timeAfter")),
			TimeBefore: parseTimeOfDay(q.Get("timeBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		analyses, err := analysisRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying analyses from database: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalSize, err := analysisRepo.GetDirectorySize()
		if err != nil {
			logger.Error("Error getting image directory size: %v", err)
			totalSize = 0
		}

		totalCount, err := analysisRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting analyses: %v", err)
			totalCount = len(analyses)
		}

		infos := make([]dto.AnalysisInfo, 0, len(analyses))
		for _, a := range analyses {
			persons, err := analysisRepo.GetPersons(a.ID)
			if err != nil {
				logger.Error("Error getting persons for analysis %d: %v", a.ID, err)
			}
			seen := make(map[string]bool)
			missing := []string{}
			for _, p := range persons {
				for _, item := range p.MissingItems {
					if !seen[item] {
						seen[item] = true
						missing = append(missing, item)
					}
				}
			}
			sort.Strings(missing)

			infos = append(infos, dto.AnalysisInfo{
				ID:           a.ID,
				Name:         a.Filename,
				Thumbnail:    storage.ThumbnailName(a.Filename),
				Date:         a.Timestamp,
				TimeOfDay:    a.Timestamp,
				Source:       a.Source,
				TotalPersons: a.TotalPersons,
				Compliant:    a.Compliant,
				NonCompliant: a.NonCompliant,
				MissingItems: missing,
			})
		}

		respondJSON(w, dto.AnalysesData{
			Analyses:    infos,
			ImagesDir:   cfg.ImageDirectory,
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  dto.TotalPages(totalCount, limit),
			CurrentPage: page,
			Limit:       limit,
		}, http.StatusOK)
	}
}

// ViewAnalysisHandler returns one stored analysis with its person rows.
func ViewAnalysisHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			respondError(w, "Valid id required", http.StatusBadRequest)
			return
		}

		analysis, err := analysisRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading analysis %d: %v", id, err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if analysis == nil {
			respondError(w, "Analysis not found", http.StatusNotFound)
			return
		}

		persons, err := analysisRepo.GetPersons(id)
		if err != nil {
			logger.Error("Error loading persons of analysis %d: %v", id, err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, dto.AnalysisDetail{Analysis: *analysis, Persons: persons}, http.StatusOK)
	}
}

// DeleteAnalysisHandler removes an analysis and its image files.
func DeleteAnalysisHandler(manager *service.Manager, logger *logger.Logger,
	analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost, http.MethodDelete) {
			return
		}
		id, ok := parseID(r)
		if !ok {
			respondError(w, "Valid id required", http.StatusBadRequest)
			return
		}

		analysis, err := analysisRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading analysis %d: %v", id, err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if analysis == nil {
			respondError(w, "Analysis not found", http.StatusNotFound)
			return
		}

		manager.Buffer().RemoveImage(analysis.Filename)
		if err := analysisRepo.Delete(id); err != nil {
			logger.Error("Failed to delete analysis %d from database: %v", id, err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted analysis %d (%s)", id, analysis.Filename)
		respondJSON(w, map[string]interface{}{"status": "deleted", "id": id}, http.StatusOK)
	}
}

// ClearAnalysesHandler deletes every processed image and clears the analysis table.
func ClearAnalysesHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger,
	analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost, http.MethodDelete) {
			return
		}
		if err := manager.Buffer().ClearImages(); err != nil {
			logger.Error("Error clearing images: %v", err)
			respondError(w, "Unable to clear images directory", http.StatusInternalServerError)
			return
		}
		if err := analysisRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing database: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("All analyses cleared from directory: %s", cfg.ImageDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// AnalysisStatsHandler returns aggregate compliance statistics.
func AnalysisStatsHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := analysisRepo.GetStats()
		if err != nil {
			logger.Error("Error computing analysis stats: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, stats, http.StatusOK)
	}
}
