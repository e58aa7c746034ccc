package compliance

import "eppdetect/internal/model"

// Policy decides which equipment classes a person must wear.
type Policy struct {
	// Mandatory classes in the order they are reported as missing.
	Mandatory []model.Class
	// Optional classes are tracked but never affect Complies.
	Optional  []model.Class
	Threshold float64
	// StrictMarkers lets an overlapping violation marker (e.g. no_helmet)
	// clear the matching presence flag.
	StrictMarkers bool
}

// DefaultPolicy requires helmet, vest, gloves and goggles; boots are optional.
func DefaultPolicy() Policy {
	return Policy{
		Mandatory: []model.Class{model.ClassHelmet, model.ClassVest, model.ClassGloves, model.ClassGoggles},
		Optional:  []model.Class{model.ClassBoots},
		Threshold: DefaultOverlapThreshold,
	}
}

// Tracked returns mandatory followed by optional classes.
func (p Policy) Tracked() []model.Class {
	out := make([]model.Class, 0, len(p.Mandatory)+len(p.Optional))
	out = append(out, p.Mandatory...)
	return append(out, p.Optional...)
}

// FrameCompliant is the count-based rule used for video frames: at least one
// person is visible and every mandatory class was detected at least as many
// times as there are persons. It does not check which person wears what.
func (p Policy) FrameCompliant(counts model.ClassCounts) bool {
	persons := counts[model.ClassPerson]
	if persons == 0 {
		return false
	}
	for _, c := range p.Mandatory {
		if counts[c] < persons {
			return false
		}
	}
	return true
}
