// Package storage persists scan history, manual checklists, and settings in
// a local SQLite database. History is capped per URL; saving past the cap
// prunes the oldest entries.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/a11ydeck/pkg/metrics"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// MaxScansPerURL bounds how many scans (and checklists) are kept per page.
const MaxScansPerURL = 10

// ErrNotFound is returned when a URL has no stored data.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	url        TEXT NOT NULL,
	scanned_at TIMESTAMP NOT NULL,
	result     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_url ON scans(url, scanned_at DESC);

CREATE TABLE IF NOT EXISTS checklists (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	url       TEXT NOT NULL,
	saved_at  TIMESTAMP NOT NULL,
	checklist TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checklists_url ON checklists(url, saved_at DESC);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Settings are the persisted user preferences.
type Settings struct {
	AnalyticsEnabled bool `json:"analyticsEnabled"`
	FirstRunComplete bool `json:"firstRunComplete"`
}

// Store is the audit history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// SaveScanResult appends a scan to the URL's history and prunes past the cap.
func (s *Store) SaveScanResult(result model.ScanResult) error {
	defer metrics.Timer(metrics.StorageSave)()

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode scan result: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO scans (url, scanned_at, result) VALUES (?, ?, ?)`,
		result.URL, result.Timestamp, string(raw))
	if err != nil {
		return fmt.Errorf("save scan result: %w", err)
	}
	return s.pruneScans(result.URL)
}

func (s *Store) pruneScans(url string) error {
	_, err := s.db.Exec(`
		DELETE FROM scans WHERE url = ? AND id NOT IN (
			SELECT id FROM scans WHERE url = ?
			ORDER BY scanned_at DESC, id DESC LIMIT ?
		)`, url, url, MaxScansPerURL)
	if err != nil {
		return fmt.Errorf("prune scans for %s: %w", url, err)
	}
	return nil
}

// ScanHistory returns a URL's stored scans, newest first.
func (s *Store) ScanHistory(url string) ([]model.ScanResult, error) {
	defer metrics.Timer(metrics.StorageLoad)()

	rows, err := s.db.Query(
		`SELECT result FROM scans WHERE url = ? ORDER BY scanned_at DESC, id DESC`, url)
	if err != nil {
		return nil, fmt.Errorf("load scan history: %w", err)
	}
	defer rows.Close()

	var results []model.ScanResult
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var result model.ScanResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			continue
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %w", err)
	}
	return results, nil
}

// LatestScan returns the newest stored scan for a URL.
func (s *Store) LatestScan(url string) (model.ScanResult, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT result FROM scans WHERE url = ? ORDER BY scanned_at DESC, id DESC LIMIT 1`,
		url).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScanResult{}, fmt.Errorf("latest scan for %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("latest scan for %s: %w", url, err)
	}
	var result model.ScanResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return model.ScanResult{}, fmt.Errorf("decode latest scan: %w", err)
	}
	return result, nil
}

// URLs lists every URL with stored scans, most recently scanned first.
func (s *Store) URLs() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT url FROM scans GROUP BY url ORDER BY MAX(scanned_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			continue
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating urls: %w", err)
	}
	return urls, nil
}

// UpdateIssueStatus applies a triage decision to the newest stored scan for
// the URL. A URL with no history, or an unknown issue id, is a no-op: triage
// persistence must never block the in-memory flow.
func (s *Store) UpdateIssueStatus(url, issueID string, status model.Status, notes string) error {
	var id int64
	var raw string
	err := s.db.QueryRow(
		`SELECT id, result FROM scans WHERE url = ? ORDER BY scanned_at DESC, id DESC LIMIT 1`,
		url).Scan(&id, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load scan for status update: %w", err)
	}

	var result model.ScanResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fmt.Errorf("decode scan for status update: %w", err)
	}

	updated := false
	for i := range result.Issues {
		if result.Issues[i].ID == issueID {
			result.Issues[i] = result.Issues[i].WithStatus(status, notes)
			updated = true
			break
		}
	}
	if !updated {
		return nil
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode scan for status update: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE scans SET result = ? WHERE id = ?`, string(encoded), id); err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	return nil
}

// SaveChecklist appends a checklist to the URL's history and prunes past the
// cap.
func (s *Store) SaveChecklist(checklist model.ManualChecklist) error {
	raw, err := json.Marshal(checklist)
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO checklists (url, saved_at, checklist) VALUES (?, ?, ?)`,
		checklist.URL, checklist.Timestamp, string(raw))
	if err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	_, err = s.db.Exec(`
		DELETE FROM checklists WHERE url = ? AND id NOT IN (
			SELECT id FROM checklists WHERE url = ?
			ORDER BY saved_at DESC, id DESC LIMIT ?
		)`, checklist.URL, checklist.URL, MaxScansPerURL)
	if err != nil {
		return fmt.Errorf("prune checklists for %s: %w", checklist.URL, err)
	}
	return nil
}

// LatestChecklist returns the newest stored checklist for a URL.
func (s *Store) LatestChecklist(url string) (model.ManualChecklist, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT checklist FROM checklists WHERE url = ? ORDER BY saved_at DESC, id DESC LIMIT 1`,
		url).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ManualChecklist{}, fmt.Errorf("latest checklist for %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return model.ManualChecklist{}, fmt.Errorf("latest checklist for %s: %w", url, err)
	}
	var checklist model.ManualChecklist
	if err := json.Unmarshal([]byte(raw), &checklist); err != nil {
		return model.ManualChecklist{}, fmt.Errorf("decode checklist: %w", err)
	}
	return checklist, nil
}

// GetSettings loads settings, defaulting everything off on first run.
func (s *Store) GetSettings() (Settings, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = 'settings'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// SaveSettings stores the settings wholesale.
func (s *Store) SaveSettings(settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO settings (key, value) VALUES ('settings', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, string(raw))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ClearURL drops all stored data for one URL.
func (s *Store) ClearURL(url string) error {
	if _, err := s.db.Exec(`DELETE FROM scans WHERE url = ?`, url); err != nil {
		return fmt.Errorf("clear scans for %s: %w", url, err)
	}
	if _, err := s.db.Exec(`DELETE FROM checklists WHERE url = ?`, url); err != nil {
		return fmt.Errorf("clear checklists for %s: %w", url, err)
	}
	return nil
}

// ClearAll wipes every table.
func (s *Store) ClearAll() error {
	for _, table := range []string{"scans", "checklists", "settings"} {
		if _, err := s.db.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
