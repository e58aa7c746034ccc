package video

import (
	"context"
	"errors"
	"fmt"
	"io"

	"eppdetect/internal/logger"
	"eppdetect/internal/model"
	"eppdetect/internal/service/compliance"
)

// Aggregator runs the detector over a frame stream and builds a VideoReport
// with the count-based frame rule.
type Aggregator struct {
	detector   Detector
	policy     compliance.Policy
	stride     int
	positional bool
	logger     *logger.Logger
}

// NewAggregator creates an Aggregator evaluating every stride-th frame.
func NewAggregator(detector Detector, policy compliance.Policy, stride int, logger *logger.Logger) *Aggregator {
	if stride < 1 {
		stride = 1
	}
	return &Aggregator{
		detector: detector,
		policy:   policy,
		stride:   stride,
		logger:   logger,
	}
}

// WithPositional enables the per-index spatial summary in reports.
func (a *Aggregator) WithPositional(enabled bool) *Aggregator {
	a.positional = enabled
	return a
}

// Stride returns the sampling stride.
func (a *Aggregator) Stride() int {
	return a.stride
}

// Analyze reads src to the end. Frames are numbered from 1 and frame n is
// evaluated when n%stride == 0; every frame read is passed to sink (which may
// be nil). A read error, detector error, sink error or cancelled ctx stops the
// loop and the partial report is returned with Truncated set.
func (a *Aggregator) Analyze(ctx context.Context, source string, src FrameSource, sink FrameSink) model.VideoReport {
	tally := NewTally(source, src.FPS(), a.stride, a.policy)
	if a.positional {
		tally.TrackPositions(compliance.NewEvaluator(a.policy))
	}

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			tally.Stop(fmt.Sprintf("cancelled before frame %d: %v", n, err))
			break
		}

		data, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			tally.Stop(model.NewStageError(model.StageDecode, fmt.Sprintf("%s frame %d", source, n), err).Error())
			break
		}
		tally.FrameRead(n)

		result := FrameResult{Number: n, Data: data}
		if n%a.stride == 0 {
			detections, err := a.detector.Detect(ctx, data)
			if err != nil {
				tally.Stop(model.NewStageError(model.StageDetect, fmt.Sprintf("%s frame %d", source, n), err).Error())
				break
			}
			out := tally.Observe(n, detections)
			result.Evaluated = true
			result.Compliant = out.Compliant
			result.Detections = detections
		}

		if sink != nil {
			if err := sink.Write(result); err != nil {
				tally.Stop(model.NewStageError(model.StageOutput, fmt.Sprintf("%s frame %d", source, n), err).Error())
				break
			}
		}
	}

	report := tally.Report()
	if report.Truncated {
		a.logger.Warning("Video %s stopped early after %d frames: %s", source, report.FramesRead, report.StopReason)
	} else {
		a.logger.Info("Video %s analyzed: %d frames read, %d evaluated, %d compliant",
			source, report.FramesRead, report.FramesProcessed, report.CompliantFrames)
	}
	return report
}
