package compliance

import (
	"testing"

	"eppdetect/internal/model"
)

func box(x1, y1, x2, y2 float64) model.BoundingBox {
	return model.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// ========================================
// Overlap Tests
// ========================================

func TestOverlaps(t *testing.T) {
	person := box(0, 0, 100, 200)

	tests := []struct {
		name       string
		ref        model.BoundingBox
		candidates []model.BoundingBox
		threshold  float64
		expected   bool
	}{
		{"candidate fully inside", person, []model.BoundingBox{box(20, 0, 60, 30)}, 0.3, true},
		{"candidate outside", person, []model.BoundingBox{box(200, 200, 260, 260)}, 0.3, false},
		{"half inside", person, []model.BoundingBox{box(80, 0, 120, 40)}, 0.3, true},
		{"exactly at threshold", person, []model.BoundingBox{box(70, 0, 170, 10)}, 0.3, false},
		{"just above threshold", person, []model.BoundingBox{box(69, 0, 169, 10)}, 0.3, true},
		{"touching edges", person, []model.BoundingBox{box(100, 0, 150, 50)}, 0.3, false},
		{"empty list", person, nil, 0.3, false},
		{"degenerate candidate", person, []model.BoundingBox{box(10, 10, 10, 50)}, 0.3, false},
		{"inverted candidate", person, []model.BoundingBox{box(50, 50, 10, 10)}, 0.3, false},
		{"degenerate reference", box(0, 0, 0, 100), []model.BoundingBox{box(0, 0, 10, 10)}, 0.3, false},
		{"any candidate matches", person, []model.BoundingBox{box(300, 300, 310, 310), box(10, 10, 20, 20)}, 0.3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Overlaps(tt.ref, tt.candidates, tt.threshold)
			if result != tt.expected {
				t.Errorf("Overlaps() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestOverlapRatio_IsAsymmetric(t *testing.T) {
	large := box(0, 0, 100, 100)
	small := box(10, 10, 20, 20)

	if r := OverlapRatio(large, small); r != 1.0 {
		t.Errorf("Expected ratio 1.0 for small box inside large, got %f", r)
	}

	if r := OverlapRatio(small, large); r != 0.01 {
		t.Errorf("Expected ratio 0.01 for large box against small, got %f", r)
	}
}

func TestOverlaps_MatchesRatioDefinition(t *testing.T) {
	ref := box(0, 0, 50, 50)
	for x := 0.0; x <= 60; x += 5 {
		for y := 0.0; y <= 60; y += 5 {
			c := box(x, y, x+20, y+10)
			ix := min(ref.X2, c.X2) - max(ref.X1, c.X1)
			iy := min(ref.Y2, c.Y2) - max(ref.Y1, c.Y1)
			expected := ix > 0 && iy > 0 && (ix*iy)/c.Area() > DefaultOverlapThreshold

			if got := Overlaps(ref, []model.BoundingBox{c}, DefaultOverlapThreshold); got != expected {
				t.Errorf("Overlaps(%v, %v) = %v, expected %v", ref, c, got, expected)
			}
		}
	}
}
