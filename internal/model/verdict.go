package model

// PersonRecord is the compliance result for one person box. Index is the
// 1-based position of the person in the detector output, not an identity.
type PersonRecord struct {
	Index           int            `json:"person_id"`
	Box             BoundingBox    `json:"box"`
	Confidence      float64        `json:"confidence"`
	Present         map[Class]bool `json:"present"`
	Complies        bool           `json:"complies"`
	MissingItems    []Class        `json:"missing_items"`
	OptionalMissing []Class        `json:"optional_missing"`
	Markers         []Class        `json:"markers,omitempty"`
}

// Has reports whether the given equipment class was matched to the person.
func (p PersonRecord) Has(c Class) bool {
	return p.Present[c]
}

// Summary counts compliant and non-compliant persons.
type Summary struct {
	Compliant    int `json:"compliant"`
	NonCompliant int `json:"non_compliant"`
}

// ComplianceVerdict is the result of one image analysis.
type ComplianceVerdict struct {
	Source          string         `json:"image"`
	TotalPersons    int            `json:"total_persons"`
	TotalDetections int            `json:"total_detections"`
	Persons         []PersonRecord `json:"compliance_results"`
	Summary         Summary        `json:"summary"`
	Detections      []Detection    `json:"detections"`
}

// NonCompliantPersons returns the persons failing at least one mandatory item.
func (v ComplianceVerdict) NonCompliantPersons() []PersonRecord {
	var out []PersonRecord
	for _, p := range v.Persons {
		if !p.Complies {
			out = append(out, p)
		}
	}
	return out
}

// AllComply is true when at least one person was found and every person complies.
func (v ComplianceVerdict) AllComply() bool {
	return v.TotalPersons > 0 && v.Summary.NonCompliant == 0
}
