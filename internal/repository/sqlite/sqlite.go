package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens the database at dbPath and creates the schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		filepath TEXT NOT NULL,
		filesize INTEGER DEFAULT 0,
		total_persons INTEGER DEFAULT 0,
		total_detections INTEGER DEFAULT 0,
		compliant INTEGER DEFAULT 0,
		non_compliant INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS person_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id INTEGER NOT NULL,
		person_index INTEGER NOT NULL,
		confidence REAL DEFAULT 0,
		x1 REAL DEFAULT 0,
		y1 REAL DEFAULT 0,
		x2 REAL DEFAULT 0,
		y2 REAL DEFAULT 0,
		complies INTEGER NOT NULL,
		present TEXT DEFAULT '',
		missing TEXT DEFAULT '',
		FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		filename TEXT DEFAULT '',
		timestamp DATETIME NOT NULL,
		frames_read INTEGER DEFAULT 0,
		frames_processed INTEGER DEFAULT 0,
		compliant_frames INTEGER DEFAULT 0,
		violation_count INTEGER DEFAULT 0,
		compliance_rate REAL DEFAULT 0,
		rate_available INTEGER DEFAULT 0,
		fps REAL DEFAULT 0,
		stride INTEGER DEFAULT 1,
		truncated INTEGER DEFAULT 0,
		stop_reason TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS violations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id INTEGER NOT NULL,
		frame_number INTEGER NOT NULL,
		timestamp_seconds REAL DEFAULT 0,
		person_count INTEGER DEFAULT 0,
		counts TEXT DEFAULT '{}',
		FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_source ON analyses(source);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
	CREATE INDEX IF NOT EXISTS idx_person_results_analysis_id ON person_results(analysis_id);
	CREATE INDEX IF NOT EXISTS idx_videos_timestamp ON videos(timestamp);
	CREATE INDEX IF NOT EXISTS idx_violations_video_id ON violations(video_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Ping checks that the database answers.
func (db *DB) Ping() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Ping()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Lock() { db.mu.Lock() }
func (db *DB) Unlock() { db.mu.Unlock() }
func (db *DB) RLock() { db.mu.RLock() }
func (db *DB) RUnlock() { db.mu.RUnlock() }
