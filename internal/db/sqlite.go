package db

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fluencykaizen/backend/internal/auth"
	"github.com/fluencykaizen/backend/internal/db/models"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'editor',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS caption_runs (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		asset_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		stage TEXT NOT NULL DEFAULT '',
		progress INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Database) EnsureAdmin(username, password string) error {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		"INSERT INTO users (username, password, role) VALUES (?, ?, 'admin')",
		username, hash,
	)
	return err
}

func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetSetting returns a setting value by key, or defaultVal if not set.
func (d *Database) GetSetting(key, defaultVal string) string {
	var val string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return defaultVal
	}
	return val
}

// SetSetting upserts a setting.
func (d *Database) SetSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP`,
		key, value, value,
	)
	return err
}

// GetAllSettings returns all settings as a map.
func (d *Database) GetAllSettings() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, nil
}

// CreateRun records the start of a caption generation run.
func (d *Database) CreateRun(id, projectID, assetName string) error {
	_, err := d.db.Exec(`
		INSERT INTO caption_runs (id, project_id, asset_name, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, projectID, assetName, models.RunRunning, time.Now(),
	)
	return err
}

// UpdateRunProgress records the current stage and percent of a run.
// Progress is advisory, so a write failure is logged rather than
// surfaced to the pipeline.
func (d *Database) UpdateRunProgress(id, stage string, progress int) {
	if _, err := d.db.Exec("UPDATE caption_runs SET stage = ?, progress = ? WHERE id = ?", stage, progress, id); err != nil {
		log.Printf("[db] failed to update progress for run %s: %v", id, err)
	}
}

// FinishRun marks a run terminal with the given status.
func (d *Database) FinishRun(id string, status models.RunStatus, errMsg string) error {
	_, err := d.db.Exec(`
		UPDATE caption_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, errMsg, time.Now(), id,
	)
	return err
}

func (d *Database) GetRun(id string) (*models.CaptionRun, error) {
	return scanRun(d.db.QueryRow(`
		SELECT id, project_id, asset_name, status, stage, progress, error, created_at, completed_at
		FROM caption_runs WHERE id = ?`, id))
}

// ListRuns returns run history, newest first.
func (d *Database) ListRuns(limit int) ([]*models.CaptionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(`
		SELECT id, project_id, asset_name, status, stage, progress, error, created_at, completed_at
		FROM caption_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.CaptionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.CaptionRun, error) {
	run := &models.CaptionRun{}
	var errMsg sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.ProjectID, &run.AssetName, &run.Status, &run.Stage,
		&run.Progress, &errMsg, &run.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
