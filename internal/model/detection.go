package model

import "strings"

// Class is a detector label normalized to the set the compliance engine knows.
type Class string

const (
	ClassPerson    Class = "Person"
	ClassHelmet    Class = "helmet"
	ClassVest      Class = "vest"
	ClassGloves    Class = "gloves"
	ClassGoggles   Class = "goggles"
	ClassBoots     Class = "boots"
	ClassNoHelmet  Class = "no_helmet"
	ClassNoVest    Class = "no_vest"
	ClassNoBoots   Class = "no_boots"
	ClassNoGloves  Class = "no_gloves"
	ClassNoGoggles Class = "no_goggles"
	ClassUnknown   Class = "unknown"
)

var knownClasses = map[string]Class{
	"person":     ClassPerson,
	"helmet":     ClassHelmet,
	"vest":       ClassVest,
	"gloves":     ClassGloves,
	"goggles":    ClassGoggles,
	"boots":      ClassBoots,
	"no_helmet":  ClassNoHelmet,
	"no_vest":    ClassNoVest,
	"no_boots":   ClassNoBoots,
	"no_gloves":  ClassNoGloves,
	"no_glove":   ClassNoGloves,
	"no_goggles": ClassNoGoggles,
	"no_goggle":  ClassNoGoggles,
}

// ParseClass maps a raw detector label to a Class. Matching is case-insensitive
// and tolerates "no-helmet" / "no helmet" spellings.
func ParseClass(label string) Class {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if c, ok := knownClasses[key]; ok {
		return c
	}
	return ClassUnknown
}

// MarkerFor returns the violation-marker class that negates an equipment class,
// if the detector has one.
func MarkerFor(c Class) (Class, bool) {
	switch c {
	case ClassHelmet:
		return ClassNoHelmet, true
	case ClassVest:
		return ClassNoVest, true
	case ClassBoots:
		return ClassNoBoots, true
	case ClassGloves:
		return ClassNoGloves, true
	case ClassGoggles:
		return ClassNoGoggles, true
	}
	return "", false
}

// IsMarker reports whether c is an explicit violation marker class.
func (c Class) IsMarker() bool {
	switch c {
	case ClassNoHelmet, ClassNoVest, ClassNoBoots, ClassNoGloves, ClassNoGoggles:
		return true
	}
	return false
}

// BoundingBox is an axis-aligned rectangle in pixel coordinates.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns X2-X1, or 0 for a degenerate box.
func (b BoundingBox) Width() float64 {
	if w := b.X2 - b.X1; w > 0 {
		return w
	}
	return 0
}

// Height returns Y2-Y1, or 0 for a degenerate box.
func (b BoundingBox) Height() float64 {
	if h := b.Y2 - b.Y1; h > 0 {
		return h
	}
	return 0
}

// Area is 0 for degenerate boxes.
func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Detection is one labeled box produced by a detector pass.
type Detection struct {
	Label      string      `json:"class"`
	Class      Class       `json:"-"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// NewDetection builds a Detection and normalizes its class.
func NewDetection(label string, confidence float64, box BoundingBox) Detection {
	return Detection{
		Label:      label,
		Class:      ParseClass(label),
		Confidence: confidence,
		Box:        box,
	}
}

// Kind returns the normalized class, parsing the raw label when the
// detection was built without NewDetection (e.g. decoded from JSON).
func (d Detection) Kind() Class {
	if d.Class != "" {
		return d.Class
	}
	return ParseClass(d.Label)
}

// ClassCounts holds the number of detections per class in one frame.
type ClassCounts map[Class]int

// CountClasses tallies detections by class. Unknown labels are counted under
// ClassUnknown.
func CountClasses(detections []Detection) ClassCounts {
	counts := make(ClassCounts)
	for _, d := range detections {
		counts[d.Kind()]++
	}
	return counts
}
