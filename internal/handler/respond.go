package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"eppdetect/internal/dto"
	"eppdetect/internal/logger"
	"eppdetect/internal/model"
)

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, dto.ErrorResponse{Success: false, Error: message}, status)
}

// respondStageError maps an engine error to an HTTP status and logs
// server-side failures.
func respondStageError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := errorStatus(err)
	body := dto.ErrorResponse{Success: false, Error: err.Error()}

	var stageErr *model.StageError
	if errors.As(err, &stageErr) {
		body.Stage = stageErr.Stage
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	} else {
		logger.Warning("Request rejected: %v", err)
	}
	respondJSON(w, body, status)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrUnsupportedMedia),
		errors.Is(err, model.ErrUnreadableMedia),
		errors.Is(err, model.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoAnalysis):
		return http.StatusNotFound
	case errors.Is(err, model.ErrSourceOpen):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrDetection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// allowMethod answers 405 unless r uses one of methods.
func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseID reads a positive int64 id query parameter.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	return id, err == nil && id > 0
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimeOfDay parses a time-of-day string in the format "15:04" from the request (HTML input format).
func parseTimeOfDay(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
