// Package store keeps a SQLite history of pipeline runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded pipeline invocation. Error is empty on success.
type Run struct {
	ID           string
	AudioPath    string
	Transcript   string
	Emotion      string
	Probability  float64
	Style        string
	Prompt       string
	ArtifactPath string
	Error        string
	CreatedAt    time.Time
}

// timeLayout is fixed width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type History struct {
	db *sql.DB
}

// Open connects to the database at path and creates the schema if needed.
func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return h, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) Save(ctx context.Context, r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO runs (id, audio_path, transcript, emotion, probability, style, prompt, artifact_path, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			audio_path = excluded.audio_path,
			transcript = excluded.transcript,
			emotion = excluded.emotion,
			probability = excluded.probability,
			style = excluded.style,
			prompt = excluded.prompt,
			artifact_path = excluded.artifact_path,
			error = excluded.error
	`,
		r.ID, r.AudioPath, r.Transcript, r.Emotion, r.Probability, r.Style, r.Prompt, r.ArtifactPath, r.Error,
		r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns at most limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, audio_path, transcript, emotion, probability, style, prompt, artifact_path, error, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.AudioPath, &r.Transcript, &r.Emotion, &r.Probability,
			&r.Style, &r.Prompt, &r.ArtifactPath, &r.Error, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(timeLayout, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

func (h *History) migrate() error {
	_, err := h.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		audio_path TEXT NOT NULL DEFAULT '',
		transcript TEXT NOT NULL DEFAULT '',
		emotion TEXT NOT NULL DEFAULT '',
		probability REAL NOT NULL DEFAULT 0,
		style TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL DEFAULT '',
		artifact_path TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
	`)
	return err
}
