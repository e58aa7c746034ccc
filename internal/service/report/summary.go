package report

import (
	"fmt"

	"eppdetect/internal/model"
)

// PersonMissing lists the missing mandatory items of one person by display name.
type PersonMissing struct {
	PersonID int      `json:"person_id"`
	Missing  []string `json:"missing"`
}

// ComplianceSummary is the user-facing compliance block of an image analysis.
type ComplianceSummary struct {
	Compliant    bool                    `json:"compliant"`
	Message      string                  `json:"message"`
	TotalPersons int                     `json:"total_persons"`
	MissingItems []PersonMissing         `json:"missing_items"`
	Details      model.ComplianceVerdict `json:"details"`
}

// ComplianceMessage is the one-line status of a verdict.
func ComplianceMessage(v model.ComplianceVerdict) string {
	return fmt.Sprintf("✅ %d personas cumplen / ❌ %d no cumplen", v.Summary.Compliant, v.Summary.NonCompliant)
}

// MissingByPerson returns the non-compliant persons with their missing items.
func MissingByPerson(v model.ComplianceVerdict) []PersonMissing {
	out := []PersonMissing{}
	for _, p := range v.Persons {
		if len(p.MissingItems) == 0 {
			continue
		}
		out = append(out, PersonMissing{PersonID: p.Index, Missing: DisplayNames(p.MissingItems)})
	}
	return out
}

// Summarize builds the compliance block returned by the image endpoint.
func Summarize(v model.ComplianceVerdict) ComplianceSummary {
	return ComplianceSummary{
		Compliant:    v.AllComply(),
		Message:      ComplianceMessage(v),
		TotalPersons: v.TotalPersons,
		MissingItems: MissingByPerson(v),
		Details:      v,
	}
}

// RateLevel grades a compliance percentage.
func RateLevel(percent float64) string {
	switch {
	case percent > 80:
		return "ALTA"
	case percent > 50:
		return "MEDIA"
	default:
		return "BAJA"
	}
}

// Recommendation is the closing advice of a video report.
func Recommendation(percent float64) string {
	if percent > 90 {
		return "Mantener prácticas actuales"
	}
	return "Reforzar capacitación en EPP"
}
