package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"eppdetect/internal/dto"
	"eppdetect/internal/model"
)

const analysisColumns = `a.id, a.filename, a.source, a.timestamp, a.filepath, a.filesize,
	a.total_persons, a.total_detections, a.compliant, a.non_compliant`

// AnalysisRepository implements repository.AnalysisRepository for SQLite.
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new SQLite analysis repository.
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Insert stores the analysis and its person rows in one transaction.
func (r *AnalysisRepository) Insert(a *model.Analysis, persons []model.PersonResult) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO analyses (filename, source, timestamp, filepath, filesize,
			total_persons, total_detections, compliant, non_compliant)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.Filename, a.Source, a.Timestamp, a.FilePath, a.FileSize,
		a.TotalPersons, a.TotalDetections, a.Compliant, a.NonCompliant)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO person_results (analysis_id, person_index, confidence, x1, y1, x2, y2, complies, present, missing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range persons {
		if _, err := stmt.Exec(id, p.PersonIndex, p.Confidence, p.X1, p.Y1, p.X2, p.Y2,
			p.Complies, strings.Join(p.Present, ","), strings.Join(p.MissingItems, ",")); err != nil {
			return 0, fmt.Errorf("failed to insert person result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit analysis: %w", err)
	}
	a.ID = id
	return id, nil
}

// GetByID retrieves an analysis by its ID; nil when absent.
func (r *AnalysisRepository) GetByID(id int64) (*model.Analysis, error) {
	return r.getOne(`SELECT `+analysisColumns+` FROM analyses a WHERE a.id = ?`, id)
}

// GetByFilename retrieves an analysis by its processed file name; nil when absent.
func (r *AnalysisRepository) GetByFilename(filename string) (*model.Analysis, error) {
	return r.getOne(`SELECT `+analysisColumns+` FROM analyses a WHERE a.filename = ?`, filename)
}

func (r *AnalysisRepository) getOne(query string, arg interface{}) (*model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	a, err := scanAnalysis(r.db.Conn().QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*model.Analysis, error) {
	var a model.Analysis
	err := row.Scan(&a.ID, &a.Filename, &a.Source, &a.Timestamp, &a.FilePath, &a.FileSize,
		&a.TotalPersons, &a.TotalDetections, &a.Compliant, &a.NonCompliant)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// analysisWhere builds the WHERE clause shared by GetAll and GetTotalCount.
func analysisWhere(filter *dto.AnalysisFilters) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}

	if filter.Source != "" {
		where += " AND a.source = ?"
		args = append(args, filter.Source)
	}

	switch filter.Compliance {
	case dto.ComplianceCompliant:
		where += " AND a.total_persons > 0 AND a.non_compliant = 0"
	case dto.ComplianceNonCompliant:
		where += " AND a.non_compliant > 0"
	}

	if !filter.DateAfter.IsZero() {
		where += " AND DATE(a.timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		where += " AND DATE(a.timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	if !filter.TimeAfter.IsZero() {
		where += " AND TIME(a.timestamp) >= TIME(?)"
		args = append(args, filter.TimeAfter.Format("15:04"))
	}

	if !filter.TimeBefore.IsZero() {
		where += " AND TIME(a.timestamp) <= TIME(?)"
		args = append(args, filter.TimeBefore.Format("15:04"))
	}

	return where, args
}

// GetAll retrieves analyses matching the filter, newest first.
func (r *AnalysisRepository) GetAll(filter *dto.AnalysisFilters) ([]model.Analysis, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := analysisWhere(filter)
	query := `SELECT ` + analysisColumns + ` FROM analyses a` + where + ` ORDER BY a.timestamp DESC, a.id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := []model.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

// GetTotalCount returns the number of analyses matching the filter.
func (r *AnalysisRepository) GetTotalCount(filter *dto.AnalysisFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := analysisWhere(filter)
	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM analyses a`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// GetPersons returns the person rows of an analysis ordered by index.
func (r *AnalysisRepository) GetPersons(analysisID int64) ([]model.PersonResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, analysis_id, person_index, confidence, x1, y1, x2, y2, complies, present, missing
		FROM person_results WHERE analysis_id = ? ORDER BY person_index
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query person results: %w", err)
	}
	defer rows.Close()

	persons := []model.PersonResult{}
	for rows.Next() {
		var p model.PersonResult
		var present, missing string
		if err := rows.Scan(&p.ID, &p.AnalysisID, &p.PersonIndex, &p.Confidence,
			&p.X1, &p.Y1, &p.X2, &p.Y2, &p.Complies, &present, &missing); err != nil {
			return nil, fmt.Errorf("failed to scan person result: %w", err)
		}
		p.Present = splitList(present)
		p.MissingItems = splitList(missing)
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// GetStats aggregates totals, analyses per source and missing item counts.
func (r *AnalysisRepository) GetStats() (*model.AnalysisStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.AnalysisStats{
		PerSource:         make(map[string]int),
		MissingItemCounts: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(total_persons), 0), COALESCE(SUM(compliant), 0) FROM analyses
	`).Scan(&stats.TotalAnalyses, &stats.TotalPersons, &stats.CompliantPersons); err != nil {
		return nil, err
	}

	rows, err := r.db.Conn().Query(`SELECT source, COUNT(*) FROM analyses GROUP BY source`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.PerSource[source] = count
	}
	// The pool holds a single connection; release it before the next query.
	rows.Close()

	missingRows, err := r.db.Conn().Query(`SELECT missing FROM person_results WHERE missing != ''`)
	if err != nil {
		return nil, err
	}
	defer missingRows.Close()
	for missingRows.Next() {
		var missing string
		if err := missingRows.Scan(&missing); err != nil {
			return nil, err
		}
		for _, item := range splitList(missing) {
			stats.MissingItemCounts[item]++
		}
	}

	return stats, nil
}

// GetDirectorySize returns the summed size of stored processed images.
func (r *AnalysisRepository) GetDirectorySize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size int64
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(SUM(filesize), 0) FROM analyses`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum file sizes: %w", err)
	}
	return size, nil
}

// Delete removes an analysis and its person rows.
func (r *AnalysisRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM person_results WHERE analysis_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete person results: %w", err)
	}
	if _, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// DeleteAll removes all analyses and person rows.
func (r *AnalysisRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM person_results`); err != nil {
		return fmt.Errorf("failed to delete person results: %w", err)
	}
	if _, err := r.db.Conn().Exec(`DELETE FROM analyses`); err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
