package compliance

import "eppdetect/internal/model"

// Evaluator applies a Policy to the detections of one image.
type Evaluator struct {
	policy Policy
}

// NewEvaluator creates an Evaluator. A non-positive threshold falls back to
// DefaultOverlapThreshold.
func NewEvaluator(policy Policy) *Evaluator {
	if policy.Threshold <= 0 {
		policy.Threshold = DefaultOverlapThreshold
	}
	return &Evaluator{policy: policy}
}

// Policy returns the policy the evaluator applies.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Evaluate builds the verdict for one image. Persons keep detector order and
// get 1-based indexes. Classes the engine does not know only count toward
// TotalDetections. The result depends on nothing but its arguments.
func (e *Evaluator) Evaluate(source string, detections []model.Detection) model.ComplianceVerdict {
	var persons []model.Detection
	boxes := make(map[model.Class][]model.BoundingBox)
	for _, d := range detections {
		c := d.Kind()
		if c == model.ClassPerson {
			persons = append(persons, d)
			continue
		}
		boxes[c] = append(boxes[c], d.Box)
	}

	verdict := model.ComplianceVerdict{
		Source:          source,
		TotalPersons:    len(persons),
		TotalDetections: len(detections),
		Persons:         make([]model.PersonRecord, 0, len(persons)),
		Detections:      detections,
	}

	for i, p := range persons {
		record := e.evaluatePerson(i+1, p, boxes)
		if record.Complies {
			verdict.Summary.Compliant++
		} else {
			verdict.Summary.NonCompliant++
		}
		verdict.Persons = append(verdict.Persons, record)
	}
	return verdict
}

func (e *Evaluator) evaluatePerson(index int, person model.Detection, boxes map[model.Class][]model.BoundingBox) model.PersonRecord {
	record := model.PersonRecord{
		Index:           index,
		Box:             person.Box,
		Confidence:      person.Confidence,
		Present:         make(map[model.Class]bool),
		MissingItems:    []model.Class{},
		OptionalMissing: []model.Class{},
	}

	for _, c := range e.policy.Tracked() {
		present := Overlaps(person.Box, boxes[c], e.policy.Threshold)
		if marker, ok := model.MarkerFor(c); ok && Overlaps(person.Box, boxes[marker], e.policy.Threshold) {
			record.Markers = append(record.Markers, marker)
			if e.policy.StrictMarkers {
				present = false
			}
		}
		record.Present[c] = present
	}

	record.Complies = true
	for _, c := range e.policy.Mandatory {
		if !record.Present[c] {
			record.Complies = false
			record.MissingItems = append(record.MissingItems, c)
		}
	}
	for _, c := range e.policy.Optional {
		if !record.Present[c] {
			record.OptionalMissing = append(record.OptionalMissing, c)
		}
	}
	return record
}
