package model

// ViolationEvent records an evaluated frame that failed the count-based rule
// while at least one person was visible.
type ViolationEvent struct {
	FrameNumber      int         `json:"frame"`
	TimestampSeconds float64     `json:"time"`
	PersonCount      int         `json:"persons"`
	Counts           ClassCounts `json:"counts"`
}

// PositionalSummary aggregates spatial presence flags for one positional
// person index across the evaluated frames of a video. The index is not an
// identity: person 2 in frame 10 and person 2 in frame 40 may differ.
type PositionalSummary struct {
	Index        int            `json:"person_id"`
	Frames       int            `json:"frames"`
	Present      map[Class]bool `json:"present"`
	Complies     bool           `json:"complies"`
	MissingItems []Class        `json:"missing_items"`
}

// ClassConfidence is the mean confidence of one class across a video.
type ClassConfidence struct {
	Class      string  `json:"class"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// VideoReport is the temporal compliance result for a frame sequence.
type VideoReport struct {
	Source          string              `json:"source"`
	FramesRead      int                 `json:"total_frames"`
	FramesProcessed int                 `json:"processed_frames"`
	CompliantFrames int                 `json:"compliant_frames"`
	Violations      []ViolationEvent    `json:"violations"`
	ComplianceRate  float64             `json:"compliance_rate"`
	RateAvailable   bool                `json:"rate_available"`
	FPS             float64             `json:"fps"`
	Stride          int                 `json:"stride"`
	Truncated       bool                `json:"truncated"`
	StopReason      string              `json:"stop_reason,omitempty"`
	AvgDetections   float64             `json:"avg_detections"`
	ClassConfidence []ClassConfidence   `json:"detections"`
	Positional      []PositionalSummary `json:"positional,omitempty"`
}

// ViolatingFrames is the number of evaluated frames with persons that failed.
func (r VideoReport) ViolatingFrames() int {
	return len(r.Violations)
}
