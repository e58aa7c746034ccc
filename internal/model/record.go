package model

import "time"

// Analysis represents a stored image analysis record.
type Analysis struct {
	ID              int64     `json:"id"`
	Source          string    `json:"source"`
	Filename        string    `json:"filename"`
	FilePath        string    `json:"filepath"`
	FileSize        int64     `json:"filesize"`
	Timestamp       time.Time `json:"timestamp"`
	TotalPersons    int       `json:"total_persons"`
	TotalDetections int       `json:"total_detections"`
	Compliant       int       `json:"compliant"`
	NonCompliant    int       `json:"non_compliant"`
}

// PersonResult is one stored PersonRecord of an analysis.
type PersonResult struct {
	ID           int64    `json:"id"`
	AnalysisID   int64    `json:"analysis_id"`
	PersonIndex  int      `json:"person_id"`
	Confidence   float64  `json:"confidence"`
	X1           float64  `json:"x1"`
	Y1           float64  `json:"y1"`
	X2           float64  `json:"x2"`
	Y2           float64  `json:"y2"`
	Complies     bool     `json:"complies"`
	Present      []string `json:"present"`
	MissingItems []string `json:"missing_items"`
}

// AnalysisStats contains statistics about stored analyses.
type AnalysisStats struct {
	TotalAnalyses     int            `json:"total_analyses"`
	TotalPersons      int            `json:"total_persons"`
	CompliantPersons  int            `json:"compliant_persons"`
	PerSource         map[string]int `json:"per_source"`
	MissingItemCounts map[string]int `json:"missing_item_counts"`
}

// VideoRecord is a stored VideoReport header. Live camera reports use the
// camera id as Source and are updated in place.
type VideoRecord struct {
	ID              int64     `json:"id"`
	Source          string    `json:"source"`
	Filename        string    `json:"filename"`
	Timestamp       time.Time `json:"timestamp"`
	FramesRead      int       `json:"total_frames"`
	FramesProcessed int       `json:"processed_frames"`
	CompliantFrames int       `json:"compliant_frames"`
	ViolationCount  int       `json:"violation_count"`
	ComplianceRate  float64   `json:"compliance_rate"`
	RateAvailable   bool      `json:"rate_available"`
	FPS             float64   `json:"fps"`
	Stride          int       `json:"stride"`
	Truncated       bool      `json:"truncated"`
	StopReason      string    `json:"stop_reason,omitempty"`
}

// NewAnalysis builds the header record of a verdict.
func NewAnalysis(v ComplianceVerdict, filename, path string, size int64, ts time.Time) *Analysis {
	return &Analysis{
		Source:          v.Source,
		Filename:        filename,
		FilePath:        path,
		FileSize:        size,
		Timestamp:       ts,
		TotalPersons:    v.TotalPersons,
		TotalDetections: v.TotalDetections,
		Compliant:       v.Summary.Compliant,
		NonCompliant:    v.Summary.NonCompliant,
	}
}

// NewPersonResults converts the verdict's person records to storage rows.
func NewPersonResults(analysisID int64, v ComplianceVerdict) []PersonResult {
	rows := make([]PersonResult, 0, len(v.Persons))
	for _, p := range v.Persons {
		present := make([]string, 0, len(p.Present))
		for _, c := range []Class{ClassHelmet, ClassVest, ClassGloves, ClassGoggles, ClassBoots} {
			if p.Present[c] {
				present = append(present, string(c))
			}
		}
		missing := make([]string, 0, len(p.MissingItems))
		for _, c := range p.MissingItems {
			missing = append(missing, string(c))
		}
		rows = append(rows, PersonResult{
			AnalysisID:   analysisID,
			PersonIndex:  p.Index,
			Confidence:   p.Confidence,
			X1:           p.Box.X1,
			Y1:           p.Box.Y1,
			X2:           p.Box.X2,
			Y2:           p.Box.Y2,
			Complies:     p.Complies,
			Present:      present,
			MissingItems: missing,
		})
	}
	return rows
}

// NewVideoRecord builds the stored header of a video report.
func NewVideoRecord(r VideoReport, filename string, ts time.Time) *VideoRecord {
	return &VideoRecord{
		Source:          r.Source,
		Filename:        filename,
		Timestamp:       ts,
		FramesRead:      r.FramesRead,
		FramesProcessed: r.FramesProcessed,
		CompliantFrames: r.CompliantFrames,
		ViolationCount:  len(r.Violations),
		ComplianceRate:  r.ComplianceRate,
		RateAvailable:   r.RateAvailable,
		FPS:             r.FPS,
		Stride:          r.Stride,
		Truncated:       r.Truncated,
		StopReason:      r.StopReason,
	}
}
