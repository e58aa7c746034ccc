package video

import (
	"sort"
	"sync"

	"eppdetect/internal/model"
	"eppdetect/internal/service/compliance"
)

// maxClassConfidence caps the per-class confidence list in a report.
const maxClassConfidence = 15

// Outcome is the count-based result of one evaluated frame.
type Outcome struct {
	Counts    model.ClassCounts
	Compliant bool
	// Violation is set when the frame failed with at least one person visible.
	Violation *model.ViolationEvent
}

type confidenceSum struct {
	count int
	sum   float64
}

type positionalState struct {
	frames  int
	present map[model.Class]bool
}

// Tally accumulates frame outcomes into a VideoReport. It is safe for
// concurrent use; frames may be observed out of order.
type Tally struct {
	mu sync.Mutex

	source string
	fps    float64
	stride int
	policy compliance.Policy

	framesRead int
	processed  int
	compliant  int
	detections int
	violations []model.ViolationEvent
	confidence map[string]*confidenceSum

	positional map[int]*positionalState
	evaluator  *compliance.Evaluator

	truncated  bool
	stopReason string
}

// NewTally creates an empty tally for one stream.
func NewTally(source string, fps float64, stride int, policy compliance.Policy) *Tally {
	if stride < 1 {
		stride = 1
	}
	return &Tally{
		source:     source,
		fps:        fps,
		stride:     stride,
		policy:     policy,
		confidence: make(map[string]*confidenceSum),
	}
}

// TrackPositions enables the per-index spatial summary. Indexes are positions
// in the detector output of each frame, not identities.
func (t *Tally) TrackPositions(e *compliance.Evaluator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evaluator = e
	t.positional = make(map[int]*positionalState)
}

// FrameRead records that frame number n was read from the stream.
func (t *Tally) FrameRead(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n > t.framesRead {
		t.framesRead = n
	}
}

// Observe applies the count-based rule to an evaluated frame.
func (t *Tally) Observe(n int, detections []model.Detection) Outcome {
	counts := model.CountClasses(detections)
	out := Outcome{Counts: counts, Compliant: t.policy.FrameCompliant(counts)}

	t.mu.Lock()
	defer t.mu.Unlock()

	if n > t.framesRead {
		t.framesRead = n
	}
	t.processed++
	t.detections += len(detections)
	for _, d := range detections {
		cs, ok := t.confidence[d.Label]
		if !ok {
			cs = &confidenceSum{}
			t.confidence[d.Label] = cs
		}
		cs.count++
		cs.sum += d.Confidence
	}

	persons := counts[model.ClassPerson]
	if out.Compliant {
		t.compliant++
	} else if persons > 0 {
		event := model.ViolationEvent{
			FrameNumber:      n,
			TimestampSeconds: t.timestamp(n),
			PersonCount:      persons,
			Counts:           counts,
		}
		t.violations = append(t.violations, event)
		out.Violation = &event
	}

	if t.evaluator != nil {
		t.observePositions(detections)
	}
	return out
}

func (t *Tally) observePositions(detections []model.Detection) {
	verdict := t.evaluator.Evaluate(t.source, detections)
	for _, p := range verdict.Persons {
		st, ok := t.positional[p.Index]
		if !ok {
			st = &positionalState{present: make(map[model.Class]bool)}
			t.positional[p.Index] = st
		}
		st.frames++
		for c, present := range p.Present {
			if present {
				st.present[c] = true
			}
		}
	}
}

func (t *Tally) timestamp(n int) float64 {
	if t.fps <= 0 {
		return 0
	}
	return float64(n) / t.fps
}

// Stop marks the report as truncated. The first reason wins.
func (t *Tally) Stop(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.truncated {
		return
	}
	t.truncated = true
	t.stopReason = reason
}

// Report returns a finalized snapshot. Violations are ordered by frame number.
// The tally can keep observing frames afterwards.
func (t *Tally) Report() model.VideoReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	violations := make([]model.ViolationEvent, len(t.violations))
	copy(violations, t.violations)
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].FrameNumber < violations[j].FrameNumber
	})

	report := model.VideoReport{
		Source:          t.source,
		FramesRead:      t.framesRead,
		FramesProcessed: t.processed,
		CompliantFrames: t.compliant,
		Violations:      violations,
		FPS:             t.fps,
		Stride:          t.stride,
		Truncated:       t.truncated,
		StopReason:      t.stopReason,
		ClassConfidence: t.classConfidence(),
		Positional:      t.positionalSummary(),
	}
	if t.processed > 0 {
		report.ComplianceRate = float64(t.compliant) / float64(t.processed)
		report.RateAvailable = true
	}
	if t.framesRead > 0 {
		report.AvgDetections = float64(t.detections) / float64(t.framesRead)
	}
	return report
}

func (t *Tally) classConfidence() []model.ClassConfidence {
	out := make([]model.ClassConfidence, 0, len(t.confidence))
	for label, cs := range t.confidence {
		out = append(out, model.ClassConfidence{
			Class:      label,
			Count:      cs.count,
			Confidence: cs.sum / float64(cs.count),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Class < out[j].Class
	})
	if len(out) > maxClassConfidence {
		out = out[:maxClassConfidence]
	}
	return out
}

func (t *Tally) positionalSummary() []model.PositionalSummary {
	if t.positional == nil {
		return nil
	}
	indexes := make([]int, 0, len(t.positional))
	for i := range t.positional {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]model.PositionalSummary, 0, len(indexes))
	for _, i := range indexes {
		st := t.positional[i]
		summary := model.PositionalSummary{
			Index:        i,
			Frames:       st.frames,
			Present:      make(map[model.Class]bool, len(st.present)),
			Complies:     true,
			MissingItems: []model.Class{},
		}
		for c, v := range st.present {
			summary.Present[c] = v
		}
		for _, c := range t.policy.Mandatory {
			if !st.present[c] {
				summary.Complies = false
				summary.MissingItems = append(summary.MissingItems, c)
			}
		}
		out = append(out, summary)
	}
	return out
}
