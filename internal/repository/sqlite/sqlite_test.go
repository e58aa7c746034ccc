package sqlite

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"eppdetect/internal/dto"
	"eppdetect/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleVerdict(source string, compliant, nonCompliant int) model.ComplianceVerdict {
	v := model.ComplianceVerdict{Source: source}
	for i := 0; i < compliant; i++ {
		v.Persons = append(v.Persons, model.PersonRecord{
			Index:    len(v.Persons) + 1,
			Present:  map[model.Class]bool{model.ClassHelmet: true, model.ClassVest: true, model.ClassGloves: true, model.ClassGoggles: true},
			Complies: true,
		})
	}
	for i := 0; i < nonCompliant; i++ {
		v.Persons = append(v.Persons, model.PersonRecord{
			Index:        len(v.Persons) + 1,
			Present:      map[model.Class]bool{model.ClassHelmet: true},
			MissingItems: []model.Class{model.ClassVest, model.ClassGloves, model.ClassGoggles},
		})
	}
	v.TotalPersons = len(v.Persons)
	v.TotalDetections = v.TotalPersons * 3
	v.Summary = model.Summary{Compliant: compliant, NonCompliant: nonCompliant}
	return v
}

func insertAnalysis(t *testing.T, repo *AnalysisRepository, filename string, ts time.Time, v model.ComplianceVerdict) int64 {
	t.Helper()
	a := model.NewAnalysis(v, filename, "/images/"+filename, 1024, ts)
	id, err := repo.Insert(a, model.NewPersonResults(0, v))
	if err != nil {
		t.Fatalf("Failed to insert analysis %s: %v", filename, err)
	}
	return id
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestDatabase_MigrationIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := New(dbPath)
		if err != nil {
			t.Fatalf("Open %d failed: %v", i+1, err)
		}
		db.Close()
	}
}

// ========================================
// Analysis Repository Tests
// ========================================

func TestAnalysisRepository_InsertAndGet(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))
	ts := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	id := insertAnalysis(t, repo, "processed_a.jpg", ts, sampleVerdict("obra.jpg", 1, 1))

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected analysis, got nil")
	}
	if got.Source != "obra.jpg" || got.TotalPersons != 2 || got.Compliant != 1 || got.NonCompliant != 1 {
		t.Errorf("Unexpected analysis: %+v", got)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Expected timestamp %v, got %v", ts, got.Timestamp)
	}

	byName, err := repo.GetByFilename("processed_a.jpg")
	if err != nil || byName == nil || byName.ID != id {
		t.Errorf("Expected GetByFilename to return id %d, got %+v (%v)", id, byName, err)
	}
}

func TestAnalysisRepository_GetMissing(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))

	got, err := repo.GetByID(42)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing analysis, got %+v", got)
	}
}

func TestAnalysisRepository_Persons(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))
	id := insertAnalysis(t, repo, "processed_b.jpg", time.Now(), sampleVerdict("b.jpg", 1, 1))

	persons, err := repo.GetPersons(id)
	if err != nil {
		t.Fatalf("GetPersons failed: %v", err)
	}
	if len(persons) != 2 {
		t.Fatalf("Expected 2 persons, got %d", len(persons))
	}
	if !persons[0].Complies || persons[1].Complies {
		t.Errorf("Expected person 1 compliant and person 2 not, got %+v", persons)
	}
	want := []string{"vest", "gloves", "goggles"}
	if !reflect.DeepEqual(persons[1].MissingItems, want) {
		t.Errorf("Expected missing %v, got %v", want, persons[1].MissingItems)
	}
	if len(persons[0].MissingItems) != 0 {
		t.Errorf("Expected no missing items, got %v", persons[0].MissingItems)
	}
}

func TestAnalysisRepository_Filters(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))
	day1 := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 12, 17, 0, 0, 0, time.UTC)

	insertAnalysis(t, repo, "p1.jpg", day1, sampleVerdict("cam1", 2, 0))
	insertAnalysis(t, repo, "p2.jpg", day2, sampleVerdict("cam1", 0, 1))
	insertAnalysis(t, repo, "p3.jpg", day2, sampleVerdict("upload", 0, 0))

	tests := []struct {
		name     string
		filter   *dto.AnalysisFilters
		expected int
	}{
		{"no filter", &dto.AnalysisFilters{}, 3},
		{"nil filter", nil, 3},
		{"by source", &dto.AnalysisFilters{Source: "cam1"}, 2},
		{"compliant only", &dto.AnalysisFilters{Compliance: dto.ComplianceCompliant}, 1},
		{"non compliant only", &dto.AnalysisFilters{Compliance: dto.ComplianceNonCompliant}, 1},
		{"date after", &dto.AnalysisFilters{DateAfter: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)}, 2},
		{"date before", &dto.AnalysisFilters{DateBefore: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}, 1},
		{"time after", &dto.AnalysisFilters{TimeAfter: time.Date(0, 1, 1, 12, 0, 0, 0, time.UTC)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetAll(tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if len(got) != tt.expected {
				t.Errorf("Expected %d analyses, got %d", tt.expected, len(got))
			}
			count, err := repo.GetTotalCount(tt.filter)
			if err != nil {
				t.Fatalf("GetTotalCount failed: %v", err)
			}
			if count != tt.expected {
				t.Errorf("Expected count %d, got %d", tt.expected, count)
			}
		})
	}
}

func TestAnalysisRepository_Pagination(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertAnalysis(t, repo, "page_"+string(rune('a'+i))+".jpg", base.Add(time.Duration(i)*time.Hour), sampleVerdict("cam", 1, 0))
	}

	page, err := repo.GetAll(&dto.AnalysisFilters{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 analyses, got %d", len(page))
	}
	// Newest first: e, d, [c, b], a.
	if page[0].Filename != "page_c.jpg" || page[1].Filename != "page_b.jpg" {
		t.Errorf("Expected page_c and page_b, got %s and %s", page[0].Filename, page[1].Filename)
	}
}

func TestAnalysisRepository_Stats(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))
	insertAnalysis(t, repo, "s1.jpg", time.Now(), sampleVerdict("cam1", 1, 2))
	insertAnalysis(t, repo, "s2.jpg", time.Now(), sampleVerdict("upload", 2, 0))

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalAnalyses != 2 || stats.TotalPersons != 5 || stats.CompliantPersons != 3 {
		t.Errorf("Unexpected totals: %+v", stats)
	}
	if stats.PerSource["cam1"] != 1 || stats.PerSource["upload"] != 1 {
		t.Errorf("Unexpected per-source counts: %v", stats.PerSource)
	}
	if stats.MissingItemCounts["vest"] != 2 || stats.MissingItemCounts["helmet"] != 0 {
		t.Errorf("Unexpected missing counts: %v", stats.MissingItemCounts)
	}

	size, err := repo.GetDirectorySize()
	if err != nil || size != 2048 {
		t.Errorf("Expected directory size 2048, got %d (%v)", size, err)
	}
}

func TestAnalysisRepository_Delete(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))
	id := insertAnalysis(t, repo, "d1.jpg", time.Now(), sampleVerdict("cam", 1, 1))
	insertAnalysis(t, repo, "d2.jpg", time.Now(), sampleVerdict("cam", 1, 0))

	if err := repo.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := repo.GetByID(id); got != nil {
		t.Error("Expected analysis to be deleted")
	}
	if persons, _ := repo.GetPersons(id); len(persons) != 0 {
		t.Errorf("Expected person rows to be deleted, got %d", len(persons))
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if count, _ := repo.GetTotalCount(nil); count != 0 {
		t.Errorf("Expected empty table, got %d", count)
	}
}

func TestAnalysisRepository_DuplicateFilename(t *testing.T) {
	repo := NewAnalysisRepository(setupTestDB(t))
	insertAnalysis(t, repo, "dup.jpg", time.Now(), sampleVerdict("cam", 1, 0))

	v := sampleVerdict("cam", 1, 1)
	if _, err := repo.Insert(model.NewAnalysis(v, "dup.jpg", "/x", 1, time.Now()), model.NewPersonResults(0, v)); err == nil {
		t.Error("Expected unique constraint error")
	}
	if count, _ := repo.GetTotalCount(nil); count != 1 {
		t.Errorf("Expected failed insert to roll back, got %d analyses", count)
	}
}

// ========================================
// Video Repository Tests
// ========================================

func sampleReport() model.VideoReport {
	return model.VideoReport{
		Source:          "clip.mp4",
		FramesRead:      9,
		FramesProcessed: 3,
		CompliantFrames: 1,
		ComplianceRate:  1.0 / 3,
		RateAvailable:   true,
		FPS:             30,
		Stride:          3,
		Violations: []model.ViolationEvent{
			{FrameNumber: 3, TimestampSeconds: 0.1, PersonCount: 1, Counts: model.ClassCounts{model.ClassPerson: 1}},
			{FrameNumber: 9, TimestampSeconds: 0.3, PersonCount: 2, Counts: model.ClassCounts{model.ClassPerson: 2, model.ClassHelmet: 1}},
		},
	}
}

func TestVideoRepository_SaveAndGet(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	r := sampleReport()

	rec := model.NewVideoRecord(r, "processed_clip.mp4", time.Now())
	id, err := repo.Save(rec, r.Violations)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.ID != id {
		t.Errorf("Expected record id %d, got %d", id, rec.ID)
	}

	got, err := repo.GetByID(id)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ViolationCount != 2 || !got.RateAvailable || got.Stride != 3 {
		t.Errorf("Unexpected video record: %+v", got)
	}

	events, err := repo.GetViolations(id)
	if err != nil {
		t.Fatalf("GetViolations failed: %v", err)
	}
	if !reflect.DeepEqual(events, r.Violations) {
		t.Errorf("Expected violations %+v, got %+v", r.Violations, events)
	}
}

func TestVideoRepository_UpdateAppendsViolations(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	rec := &model.VideoRecord{Source: "cam1", Timestamp: time.Now(), Stride: 1}

	id, err := repo.Save(rec, []model.ViolationEvent{{FrameNumber: 1, PersonCount: 1, Counts: model.ClassCounts{}}})
	if err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	rec.FramesRead = 10
	rec.ViolationCount = 2
	if _, err := repo.Save(rec, []model.ViolationEvent{{FrameNumber: 5, PersonCount: 1, Counts: model.ClassCounts{}}}); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, _ := repo.GetByID(id)
	if got.FramesRead != 10 || got.ViolationCount != 2 {
		t.Errorf("Expected updated header, got %+v", got)
	}
	events, _ := repo.GetViolations(id)
	if len(events) != 2 || events[1].FrameNumber != 5 {
		t.Errorf("Expected appended violation, got %+v", events)
	}
	if count, _ := repo.GetTotalCount(nil); count != 1 {
		t.Errorf("Expected a single video row, got %d", count)
	}
}

func TestVideoRepository_UpdateMissing(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))

	if _, err := repo.Save(&model.VideoRecord{ID: 99, Source: "x", Timestamp: time.Now()}, nil); err == nil {
		t.Error("Expected error updating a missing video")
	}
}

func TestVideoRepository_FiltersAndDelete(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	r := sampleReport()
	violating, _ := repo.Save(model.NewVideoRecord(r, "a.mp4", time.Now()), r.Violations)

	clean := r
	clean.Violations = nil
	clean.Source = "other.mp4"
	repo.Save(model.NewVideoRecord(clean, "b.mp4", time.Now()), nil)

	if got, _ := repo.GetAll(&dto.VideoFilters{OnlyViolating: true}); len(got) != 1 {
		t.Errorf("Expected 1 violating video, got %d", len(got))
	}
	if got, _ := repo.GetAll(&dto.VideoFilters{Source: "other.mp4"}); len(got) != 1 {
		t.Errorf("Expected 1 video for source, got %d", len(got))
	}

	if err := repo.Delete(violating); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if events, _ := repo.GetViolations(violating); len(events) != 0 {
		t.Errorf("Expected violations to be deleted, got %d", len(events))
	}
	if got, _ := repo.GetAll(nil); len(got) != 1 {
		t.Errorf("Expected 1 remaining video, got %d", len(got))
	}
}
