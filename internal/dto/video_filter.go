// VideoFilters narrow the stored video report list.
package dto

import "time"

type VideoFilters struct {
	Source        string
	OnlyViolating bool
	DateAfter     time.Time
	DateBefore    time.Time
	Limit         int
	Offset        int
}
