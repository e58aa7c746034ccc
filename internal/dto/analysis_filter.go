// AnalysisFilters describe user-provided filters to narrow the analysis list.
package dto

import "time"

// Compliance filter values.
const (
	ComplianceAll          = ""
	ComplianceCompliant    = "compliant"
	ComplianceNonCompliant = "non_compliant"
)

type AnalysisFilters struct {
	Source     string
	Compliance string
	DateAfter  time.Time
	DateBefore time.Time
	TimeAfter  time.Time
	TimeBefore time.Time
	Limit      int
	Offset     int
}
