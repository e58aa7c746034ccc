package compliance

import (
	"reflect"
	"testing"

	"eppdetect/internal/model"
)

func det(label string, b model.BoundingBox) model.Detection {
	return model.NewDetection(label, 0.9, b)
}

// fullyEquipped returns a person and all four mandatory items inside its box.
func fullyEquipped(x float64) []model.Detection {
	return []model.Detection{
		det("Person", box(x, 0, x+100, 200)),
		det("helmet", box(x+30, 0, x+70, 30)),
		det("vest", box(x+10, 50, x+90, 120)),
		det("gloves", box(x+5, 110, x+25, 130)),
		det("goggles", box(x+35, 20, x+65, 35)),
	}
}

// ========================================
// Evaluator Tests
// ========================================

func TestEvaluate_FullyCompliantPerson(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())
	v := e.Evaluate("img.jpg", fullyEquipped(0))

	if v.TotalPersons != 1 {
		t.Fatalf("Expected 1 person, got %d", v.TotalPersons)
	}
	p := v.Persons[0]
	if !p.Complies {
		t.Error("Expected person to comply")
	}
	if len(p.MissingItems) != 0 {
		t.Errorf("Expected no missing items, got %v", p.MissingItems)
	}
	if p.Index != 1 {
		t.Errorf("Expected index 1, got %d", p.Index)
	}
	if !reflect.DeepEqual(p.OptionalMissing, []model.Class{model.ClassBoots}) {
		t.Errorf("Expected boots in optional missing, got %v", p.OptionalMissing)
	}
	if v.Summary.Compliant != 1 || v.Summary.NonCompliant != 0 {
		t.Errorf("Unexpected summary %+v", v.Summary)
	}
}

func TestEvaluate_OnlyHelmet(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())
	v := e.Evaluate("img.jpg", []model.Detection{
		det("Person", box(0, 0, 100, 200)),
		det("helmet", box(30, 0, 70, 30)),
	})

	p := v.Persons[0]
	if p.Complies {
		t.Error("Expected person not to comply")
	}
	expected := []model.Class{model.ClassVest, model.ClassGloves, model.ClassGoggles}
	if !reflect.DeepEqual(p.MissingItems, expected) {
		t.Errorf("Expected missing %v, got %v", expected, p.MissingItems)
	}
	if !p.Has(model.ClassHelmet) {
		t.Error("Expected helmet present")
	}
	if p.Has(model.ClassBoots) {
		t.Error("Expected boots absent")
	}
	if !reflect.DeepEqual(p.OptionalMissing, []model.Class{model.ClassBoots}) {
		t.Errorf("Expected boots noted as optional, got %v", p.OptionalMissing)
	}
}

func TestEvaluate_TwoPersonsOneMissingGloves(t *testing.T) {
	dets := fullyEquipped(0)
	for _, d := range fullyEquipped(500) {
		if d.Kind() != model.ClassGloves {
			dets = append(dets, d)
		}
	}

	v := NewEvaluator(DefaultPolicy()).Evaluate("img.jpg", dets)

	if v.Summary.Compliant != 1 || v.Summary.NonCompliant != 1 {
		t.Fatalf("Expected 1 compliant / 1 non-compliant, got %+v", v.Summary)
	}
	if !reflect.DeepEqual(v.Persons[1].MissingItems, []model.Class{model.ClassGloves}) {
		t.Errorf("Expected second person missing gloves, got %v", v.Persons[1].MissingItems)
	}
	if len(v.NonCompliantPersons()) != 1 {
		t.Errorf("Expected 1 non-compliant person")
	}
}

func TestEvaluate_NoPersons(t *testing.T) {
	v := NewEvaluator(DefaultPolicy()).Evaluate("img.jpg", []model.Detection{
		det("helmet", box(0, 0, 10, 10)),
		det("vest", box(0, 0, 10, 10)),
	})

	if v.TotalPersons != 0 {
		t.Errorf("Expected 0 persons, got %d", v.TotalPersons)
	}
	if v.Summary.Compliant != 0 || v.Summary.NonCompliant != 0 {
		t.Errorf("Expected empty summary, got %+v", v.Summary)
	}
	if v.TotalDetections != 2 {
		t.Errorf("Expected 2 detections, got %d", v.TotalDetections)
	}
	if v.AllComply() {
		t.Error("AllComply should be false without persons")
	}
}

func TestEvaluate_BootsNeverAffectCompliance(t *testing.T) {
	with := append(fullyEquipped(0), det("boots", box(10, 180, 90, 200)))
	without := fullyEquipped(0)

	e := NewEvaluator(DefaultPolicy())
	a := e.Evaluate("a", with).Persons[0]
	b := e.Evaluate("b", without).Persons[0]

	if a.Complies != b.Complies {
		t.Errorf("Boots changed compliance: %v vs %v", a.Complies, b.Complies)
	}
	if len(a.OptionalMissing) != 0 {
		t.Errorf("Expected no optional missing with boots, got %v", a.OptionalMissing)
	}
}

func TestEvaluate_UnknownClassesOnlyCounted(t *testing.T) {
	dets := append(fullyEquipped(0), det("none", box(0, 0, 50, 50)), det("forklift", box(0, 0, 50, 50)))
	v := NewEvaluator(DefaultPolicy()).Evaluate("img.jpg", dets)

	if v.TotalDetections != 7 {
		t.Errorf("Expected 7 detections, got %d", v.TotalDetections)
	}
	if v.TotalPersons != 1 || !v.Persons[0].Complies {
		t.Errorf("Unknown classes changed the verdict: %+v", v.Persons)
	}
}

func TestEvaluate_CaseInsensitiveLabels(t *testing.T) {
	v := NewEvaluator(DefaultPolicy()).Evaluate("img.jpg", []model.Detection{
		det("person", box(0, 0, 100, 200)),
		det("Helmet", box(30, 0, 70, 30)),
		det("Vest", box(10, 50, 90, 120)),
		det("Gloves", box(5, 110, 25, 130)),
		det("Goggles", box(35, 20, 65, 35)),
	})

	if v.TotalPersons != 1 || !v.Persons[0].Complies {
		t.Errorf("Expected capitalized labels to be recognized, got %+v", v.Persons)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	dets := append(fullyEquipped(0), fullyEquipped(300)[:3]...)
	e := NewEvaluator(DefaultPolicy())

	first := e.Evaluate("img.jpg", dets)
	second := e.Evaluate("img.jpg", dets)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical verdicts for identical input")
	}
}

func TestEvaluate_PersonsKeepDetectorOrder(t *testing.T) {
	dets := []model.Detection{
		det("Person", box(500, 0, 600, 200)),
		det("Person", box(0, 0, 100, 200)),
	}
	v := NewEvaluator(DefaultPolicy()).Evaluate("img.jpg", dets)

	if v.Persons[0].Box.X1 != 500 || v.Persons[0].Index != 1 {
		t.Errorf("Expected first detector person as index 1, got %+v", v.Persons[0])
	}
	if v.Persons[1].Index != 2 {
		t.Errorf("Expected index 2, got %d", v.Persons[1].Index)
	}
}

// ========================================
// Violation Marker Tests
// ========================================

func TestEvaluate_MarkersRecorded(t *testing.T) {
	dets := append(fullyEquipped(0), det("no_helmet", box(30, 0, 70, 30)))

	lenient := NewEvaluator(DefaultPolicy()).Evaluate("img.jpg", dets).Persons[0]
	if !lenient.Complies {
		t.Error("Markers must not affect compliance unless strict")
	}
	if !reflect.DeepEqual(lenient.Markers, []model.Class{model.ClassNoHelmet}) {
		t.Errorf("Expected no_helmet marker, got %v", lenient.Markers)
	}

	policy := DefaultPolicy()
	policy.StrictMarkers = true
	strict := NewEvaluator(policy).Evaluate("img.jpg", dets).Persons[0]
	if strict.Complies {
		t.Error("Expected strict marker to veto helmet")
	}
	if !reflect.DeepEqual(strict.MissingItems, []model.Class{model.ClassHelmet}) {
		t.Errorf("Expected helmet missing, got %v", strict.MissingItems)
	}
}

// ========================================
// Frame Rule Tests
// ========================================

func TestFrameCompliant(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name     string
		counts   model.ClassCounts
		expected bool
	}{
		{"no persons", model.ClassCounts{model.ClassHelmet: 3}, false},
		{"all present", model.ClassCounts{model.ClassPerson: 2, model.ClassHelmet: 2, model.ClassVest: 2, model.ClassGloves: 4, model.ClassGoggles: 2}, true},
		{"one helmet short", model.ClassCounts{model.ClassPerson: 2, model.ClassHelmet: 1, model.ClassVest: 2, model.ClassGloves: 2, model.ClassGoggles: 2}, false},
		{"boots ignored", model.ClassCounts{model.ClassPerson: 1, model.ClassHelmet: 1, model.ClassVest: 1, model.ClassGloves: 1, model.ClassGoggles: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.FrameCompliant(tt.counts); got != tt.expected {
				t.Errorf("FrameCompliant() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
