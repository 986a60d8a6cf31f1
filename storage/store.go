// Package storage persists collected datasets between runs, so analysis can
// re-run without re-collecting.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/X-Olivia/bilibili-content-analyzer/collector"
)

// Sentinel errors for storage operations.
var (
	// ErrNotFound indicates no stored run matched the query.
	ErrNotFound = errors.New("storage: run not found")
)

// Store is a sqlite-backed cache of collection runs and their merged videos.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and applies
// the schema. Intermediate directories are created automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		created_at   DATETIME NOT NULL,
		started_at   DATETIME,
		finished_at  DATETIME,
		video_count  INTEGER NOT NULL DEFAULT 0,
		failed_units INTEGER NOT NULL DEFAULT 0,
		units        TEXT NOT NULL DEFAULT '[]',
		canceled     INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS videos (
		run_id TEXT NOT NULL,
		bvid   TEXT NOT NULL,
		data   TEXT NOT NULL,
		PRIMARY KEY (run_id, bvid)
	);

	CREATE INDEX IF NOT EXISTS idx_videos_run ON videos(run_id);
	`)
	return err
}

// SaveRun stores a collection run and returns its generated id.
func (s *Store) SaveRun(res *collector.RunResult) (string, error) {
	if res == nil {
		return "", fmt.Errorf("storage: nil run result")
	}

	unitsJSON, err := json.Marshal(res.Units)
	if err != nil {
		return "", fmt.Errorf("storage: marshal units: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	canceled := 0
	if res.Canceled {
		canceled = 1
	}
	_, err = tx.Exec(
		`INSERT INTO runs (id, created_at, started_at, finished_at, video_count, failed_units, units, canceled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), res.StartedAt.UTC(), res.FinishedAt.UTC(),
		len(res.Videos), res.FailedUnits, string(unitsJSON), canceled,
	)
	if err != nil {
		return "", fmt.Errorf("storage: insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO videos (run_id, bvid, data) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("storage: prepare: %w", err)
	}
	defer stmt.Close()

	for _, v := range res.Videos {
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("storage: marshal video %s: %w", v.BVID, err)
		}
		if _, err := stmt.Exec(id, v.BVID, string(data)); err != nil {
			return "", fmt.Errorf("storage: insert video %s: %w", v.BVID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: commit: %w", err)
	}
	return id, nil
}

// LoadRun loads a stored run by id. Returns ErrNotFound if absent.
func (s *Store) LoadRun(id string) (*collector.RunResult, error) {
	row := s.db.QueryRow(
		`SELECT started_at, finished_at, failed_units, units, canceled FROM runs WHERE id = ?`, id)

	var res collector.RunResult
	var unitsJSON string
	var canceled int
	err := row.Scan(&res.StartedAt, &res.FinishedAt, &res.FailedUnits, &unitsJSON, &canceled)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load run %s: %w", id, err)
	}
	res.Canceled = canceled != 0

	if err := json.Unmarshal([]byte(unitsJSON), &res.Units); err != nil {
		return nil, fmt.Errorf("storage: unmarshal units: %w", err)
	}
	for _, u := range res.Units {
		if u.Status != collector.UnitComplete.String() {
			res.FailedKeywords = appendUnique(res.FailedKeywords, u.Keyword)
		}
	}

	rows, err := s.db.Query(`SELECT data FROM videos WHERE run_id = ? ORDER BY bvid`, id)
	if err != nil {
		return nil, fmt.Errorf("storage: load videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("storage: scan video: %w", err)
		}
		var v collector.MergedVideo
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("storage: unmarshal video: %w", err)
		}
		res.Videos = append(res.Videos, v)
	}
	return &res, rows.Err()
}

// LatestRunID returns the id of the most recently saved run.
// Returns ErrNotFound when the store is empty.
func (s *Store) LatestRunID() (string, error) {
	row := s.db.QueryRow(`SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`)
	var id string
	if err := row.Scan(&id); err == sql.ErrNoRows {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("storage: latest run: %w", err)
	}
	return id, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
