// AnalysesData is a paginated response payload for the analysis gallery.
package dto

import "eppdetect/internal/model"

type AnalysesData struct {
	Analyses    []AnalysisInfo `json:"analyses"`
	ImagesDir   string         `json:"imagesDir"`
	Size        int64          `json:"size"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}

// VideosData is a paginated response payload for stored video reports.
type VideosData struct {
	Videos      []model.VideoRecord `json:"videos"`
	Length      int                 `json:"length"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
	Limit       int                 `json:"pageSize"`
}

// TotalPages returns the page count for length items, at least 1 when there
// is anything to show.
func TotalPages(length, limit int) int {
	if length <= 0 || limit <= 0 {
		return 0
	}
	return (length + limit - 1) / limit
}
