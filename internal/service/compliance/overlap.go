package compliance

import (
	"math"

	"eppdetect/internal/model"
)

// DefaultOverlapThreshold is the minimum share of a candidate box that must
// fall inside the reference box.
const DefaultOverlapThreshold = 0.3

// Overlaps reports whether any candidate has more than threshold of its own
// area inside ref. The ratio is asymmetric: a small helmet box fully inside a
// large person box scores 1.0. Zero-area boxes never match.
func Overlaps(ref model.BoundingBox, candidates []model.BoundingBox, threshold float64) bool {
	if ref.Area() <= 0 {
		return false
	}
	for _, c := range candidates {
		if OverlapRatio(ref, c) > threshold {
			return true
		}
	}
	return false
}

// OverlapRatio returns intersection(ref, candidate) / area(candidate), or 0
// when either box is degenerate or they do not intersect.
func OverlapRatio(ref, candidate model.BoundingBox) float64 {
	area := candidate.Area()
	if area <= 0 || ref.Area() <= 0 {
		return 0
	}
	w := math.Min(ref.X2, candidate.X2) - math.Max(ref.X1, candidate.X1)
	h := math.Min(ref.Y2, candidate.Y2) - math.Max(ref.Y1, candidate.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	return (w * h) / area
}
