package dto

import (
	"eppdetect/internal/model"
	"eppdetect/internal/service/report"
)

// ImageDetectionResponse is returned by the image endpoint.
type ImageDetectionResponse struct {
	Success         bool                     `json:"success"`
	Detections      []model.Detection        `json:"detections"`
	Compliance      report.ComplianceSummary `json:"compliance"`
	ProcessedImage  string                   `json:"processed_image"`
	Thumbnail       string                   `json:"thumbnail,omitempty"`
	TotalDetections int                      `json:"total_detections"`
}

// VideoDetectionResponse is returned by the video endpoint.
type VideoDetectionResponse struct {
	Success        bool              `json:"success"`
	Report         model.VideoReport `json:"report"`
	ProcessedVideo string            `json:"processed_video,omitempty"`
	TextReport     string            `json:"text_report"`
}

// ChatRequest is the chatbot request body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the chatbot answer.
type ChatResponse struct {
	Success  bool   `json:"success"`
	Query    string `json:"query"`
	Response string `json:"response"`
	Rule     string `json:"rule"`
}

// VideoDetail is a stored video report with its violation events.
type VideoDetail struct {
	Video      model.VideoRecord      `json:"video"`
	Violations []model.ViolationEvent `json:"violations"`
}

// AnalysisDetail is a stored analysis with its person rows.
type AnalysisDetail struct {
	Analysis model.Analysis       `json:"analysis"`
	Persons  []model.PersonResult `json:"persons"`
}

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
}
