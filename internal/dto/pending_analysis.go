package dto

import (
	"time"

	"eppdetect/internal/model"
)

// PendingAnalysis holds a verdict whose processed image is already on disk
// but whose database rows have not been flushed yet.
type PendingAnalysis struct {
	Timestamp time.Time
	Verdict   model.ComplianceVerdict
	Filename  string
	FilePath  string
	FileSize  int64
}
