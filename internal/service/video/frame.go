package video

import (
	"context"

	"eppdetect/internal/model"
)

// FrameSource yields encoded frames in order. Read returns io.EOF once the
// stream is exhausted.
type FrameSource interface {
	Read() ([]byte, error)
	// FPS is the nominal frame rate, or 0 when unknown.
	FPS() float64
	Close() error
}

// FrameResult is handed to the sink for every frame read, evaluated or not.
type FrameResult struct {
	Number     int
	Data       []byte
	Evaluated  bool
	Compliant  bool
	Detections []model.Detection
}

// FrameSink receives every frame in order, e.g. to re-encode an annotated video.
type FrameSink interface {
	Write(FrameResult) error
	Close() error
}

// Opener opens frame sources and creates sinks for files on disk.
type Opener interface {
	Open(path string) (FrameSource, error)
	Create(path string, src FrameSource) (FrameSink, error)
}

// Detector returns the detections of one encoded frame.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]model.Detection, error)
}
