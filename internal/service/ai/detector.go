package ai

import (
	"context"
	"fmt"

	"eppdetect/internal/model"
)

// Detector runs object detection on one encoded image.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]model.Detection, error)
	Close() error
}

// Annotator draws detections and compliance status onto encoded images.
type Annotator interface {
	// AnnotateImage draws person boxes colored by compliance and the
	// equipment boxes of an image verdict.
	AnnotateImage(image []byte, verdict model.ComplianceVerdict) ([]byte, error)
	// AnnotateFrame draws a video frame. Frames that were not evaluated are
	// returned unchanged.
	AnnotateFrame(frame []byte, detections []model.Detection, evaluated, compliant bool) ([]byte, error)
}

// ClassLabel maps a model class index to its name.
func ClassLabel(classes []string, classID int) string {
	if classID >= 0 && classID < len(classes) {
		return classes[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// FilterConfidence drops detections below min, keeping order.
func FilterConfidence(detections []model.Detection, min float64) []model.Detection {
	out := make([]model.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= min {
			out = append(out, d)
		}
	}
	return out
}
