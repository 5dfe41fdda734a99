package repository

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout keeps updated_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// ScoreboardRecord is one stored serialized match.
type ScoreboardRecord struct {
	Key       string
	CourtID   string
	Payload   []byte
	UpdatedAt time.Time
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scoreboards (
			namespace TEXT PRIMARY KEY,
			court_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS published_scoreboards (
			court_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scoreboards_court ON scoreboards(court_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Scoreboard Methods ====================

// SaveScoreboard stores a court's serialized match under its namespace, replacing any previous value.
func (r *Repository) SaveScoreboard(ctx context.Context, namespace, courtID string, payload []byte) (time.Time, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scoreboards (namespace, court_id, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET court_id = excluded.court_id, payload = excluded.payload, updated_at = excluded.updated_at`,
		namespace, courtID, string(payload), now.Format(timeLayout))
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// GetScoreboard returns the stored match for a namespace
func (r *Repository) GetScoreboard(ctx context.Context, namespace string) (*ScoreboardRecord, error) {
	var rec ScoreboardRecord
	var payload, updated string
	err := r.db.QueryRowContext(ctx,
		`SELECT namespace, court_id, payload, updated_at FROM scoreboards WHERE namespace = ?`, namespace).
		Scan(&rec.Key, &rec.CourtID, &payload, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Payload = []byte(payload)
	rec.UpdatedAt = parseTime(updated)
	return &rec, nil
}

// ListScoreboards returns every stored match ordered by court
func (r *Repository) ListScoreboards(ctx context.Context) ([]ScoreboardRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT namespace, court_id, payload, updated_at FROM scoreboards ORDER BY court_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScoreboardRecord
	for rows.Next() {
		var rec ScoreboardRecord
		var payload, updated string
		if err := rows.Scan(&rec.Key, &rec.CourtID, &payload, &updated); err != nil {
			return nil, err
		}
		rec.Payload = []byte(payload)
		rec.UpdatedAt = parseTime(updated)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteScoreboard removes a stored match. Deleting a missing namespace is not an error.
func (r *Repository) DeleteScoreboard(ctx context.Context, namespace string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM scoreboards WHERE namespace = ?`, namespace)
	return err
}

// ==================== Published Scoreboard Methods ====================

// PublishScoreboard stores the last payload posted to the remote endpoint for a court
func (r *Repository) PublishScoreboard(ctx context.Context, courtID string, payload []byte) (time.Time, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO published_scoreboards (court_id, payload, updated_at) VALUES (?, ?, ?)`,
		courtID, string(payload), now.Format(timeLayout))
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// GetPublishedScoreboard returns the last payload posted for a court
func (r *Repository) GetPublishedScoreboard(ctx context.Context, courtID string) (*ScoreboardRecord, error) {
	rec := ScoreboardRecord{Key: courtID, CourtID: courtID}
	var payload, updated string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM published_scoreboards WHERE court_id = ?`, courtID).
		Scan(&payload, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Payload = []byte(payload)
	rec.UpdatedAt = parseTime(updated)
	return &rec, nil
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// validTables lists tables that can be cleared
var validTables = map[string]bool{
	"scoreboards":           true,
	"published_scoreboards": true,
}

// ClearTable clears all data from a table
// Only allows clearing whitelisted tables to prevent SQL injection
func (r *Repository) ClearTable(ctx context.Context, table string) error {
	if !validTables[table] {
		return ErrInvalidTable
	}

	_, err := r.db.ExecContext(ctx, "DELETE FROM "+table)
	return err
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
