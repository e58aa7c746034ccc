package dto

import (
	"encoding/json"
	"time"
)

// AnalysisInfo is one row of the analysis gallery.
type AnalysisInfo struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Thumbnail    string    `json:"thumbnail"`
	Date         time.Time `json:"date"`
	TimeOfDay    time.Time `json:"timeOfDay"`
	Source       string    `json:"source"`
	TotalPersons int       `json:"totalPersons"`
	Compliant    int       `json:"compliant"`
	NonCompliant int       `json:"nonCompliant"`
	MissingItems []string  `json:"missingItems"`
}

// MarshalJSON formats date and time-of-day for the gallery.
func (a AnalysisInfo) MarshalJSON() ([]byte, error) {
	type Alias AnalysisInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Date.Format("02-01-2006"),
		TimeOfDay: a.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(a),
	})
}
