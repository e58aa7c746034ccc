package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"eppdetect/internal/dto"
	"eppdetect/internal/model"
)

const videoColumns = `id, source, filename, timestamp, frames_read, frames_processed, compliant_frames,
	violation_count, compliance_rate, rate_available, fps, stride, truncated, stop_reason`

// VideoRepository implements repository.VideoRepository for SQLite.
type VideoRepository struct {
	db *DB
}

// NewVideoRepository creates a new SQLite video repository.
func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Save inserts or updates the header and appends violations in one transaction.
func (r *VideoRepository) Save(v *model.VideoRecord, violations []model.ViolationEvent) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := v.ID
	if id == 0 {
		result, err := tx.Exec(`
			INSERT INTO videos (source, filename, timestamp, frames_read, frames_processed, compliant_frames,
				violation_count, compliance_rate, rate_available, fps, stride, truncated, stop_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, v.Source, v.Filename, v.Timestamp, v.FramesRead, v.FramesProcessed, v.CompliantFrames,
			v.ViolationCount, v.ComplianceRate, v.RateAvailable, v.FPS, v.Stride, v.Truncated, v.StopReason)
		if err != nil {
			return 0, fmt.Errorf("failed to insert video: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return 0, err
		}
	} else {
		result, err := tx.Exec(`
			UPDATE videos SET frames_read = ?, frames_processed = ?, compliant_frames = ?, violation_count = ?,
				compliance_rate = ?, rate_available = ?, fps = ?, truncated = ?, stop_reason = ?
			WHERE id = ?
		`, v.FramesRead, v.FramesProcessed, v.CompliantFrames, v.ViolationCount,
			v.ComplianceRate, v.RateAvailable, v.FPS, v.Truncated, v.StopReason, id)
		if err != nil {
			return 0, fmt.Errorf("failed to update video %d: %w", id, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("video %d not found", id)
		}
	}

	if len(violations) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO violations (video_id, frame_number, timestamp_seconds, person_count, counts)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, e := range violations {
			counts, err := json.Marshal(e.Counts)
			if err != nil {
				return 0, fmt.Errorf("failed to encode counts: %w", err)
			}
			if _, err := stmt.Exec(id, e.FrameNumber, e.TimestampSeconds, e.PersonCount, string(counts)); err != nil {
				return 0, fmt.Errorf("failed to insert violation: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit video: %w", err)
	}
	v.ID = id
	return id, nil
}

func scanVideo(row rowScanner) (*model.VideoRecord, error) {
	var v model.VideoRecord
	err := row.Scan(&v.ID, &v.Source, &v.Filename, &v.Timestamp, &v.FramesRead, &v.FramesProcessed,
		&v.CompliantFrames, &v.ViolationCount, &v.ComplianceRate, &v.RateAvailable, &v.FPS,
		&v.Stride, &v.Truncated, &v.StopReason)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID retrieves a video report header; nil when absent.
func (r *VideoRepository) GetByID(id int64) (*model.VideoRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	v, err := scanVideo(r.db.Conn().QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

func videoWhere(filter *dto.VideoFilters) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}
	if filter.Source != "" {
		where += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.OnlyViolating {
		where += " AND violation_count > 0"
	}
	if !filter.DateAfter.IsZero() {
		where += " AND DATE(timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}
	if !filter.DateBefore.IsZero() {
		where += " AND DATE(timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}
	return where, args
}

// GetAll retrieves video headers matching the filter, newest first.
func (r *VideoRepository) GetAll(filter *dto.VideoFilters) ([]model.VideoRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := videoWhere(filter)
	query := `SELECT ` + videoColumns + ` FROM videos` + where + ` ORDER BY timestamp DESC, id DESC`
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
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := []model.VideoRecord{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// GetTotalCount returns the number of videos matching the filter.
func (r *VideoRepository) GetTotalCount(filter *dto.VideoFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := videoWhere(filter)
	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM videos`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

// GetViolations returns the violation events of a video ordered by frame.
func (r *VideoRepository) GetViolations(videoID int64) ([]model.ViolationEvent, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT frame_number, timestamp_seconds, person_count, counts
		FROM violations WHERE video_id = ? ORDER BY frame_number
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	events := []model.ViolationEvent{}
	for rows.Next() {
		var e model.ViolationEvent
		var counts string
		if err := rows.Scan(&e.FrameNumber, &e.TimestampSeconds, &e.PersonCount, &counts); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &e.Counts); err != nil {
			return nil, fmt.Errorf("failed to decode counts of frame %d: %w", e.FrameNumber, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Delete removes a video report and its violations.
func (r *VideoRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM violations WHERE video_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete violations: %w", err)
	}
	if _, err := r.db.Conn().Exec(`DELETE FROM videos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return nil
}
