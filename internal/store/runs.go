package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Fixed width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Run records one ingest or fetch pass.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // ingest | fetch | refresh
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Files      int       `json:"files"`
	Rows       int       `json:"rows"`
	Added      int       `json:"added"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}

func RecordRun(ctx context.Context, db *sql.DB, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.FinishedAt
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO ingest_runs (id, kind, started_at, finished_at, files, rows, added, skipped, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, r.Kind,
		r.StartedAt.UTC().Format(tsLayout), r.FinishedAt.UTC().Format(tsLayout),
		r.Files, r.Rows, r.Added, r.Skipped, r.Error)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return r, nil
}

// LastRun returns the most recently finished run; ok is false when none exist.
func LastRun(ctx context.Context, db *sql.DB) (r Run, ok bool, err error) {
	var started, finished string
	err = db.QueryRowContext(ctx, `
SELECT id, kind, started_at, finished_at, files, rows, added, skipped, error
FROM ingest_runs
ORDER BY finished_at DESC
LIMIT 1;`).Scan(&r.ID, &r.Kind, &started, &finished, &r.Files, &r.Rows, &r.Added, &r.Skipped, &r.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	r.StartedAt, _ = time.Parse(tsLayout, started)
	r.FinishedAt, _ = time.Parse(tsLayout, finished)
	return r, true, nil
}

// Fingerprint identifies the current contents of the posting table. It
// changes whenever postings are added or a run is recorded.
func Fingerprint(ctx context.Context, db *sql.DB) (string, error) {
	n, err := CountPostings(ctx, db)
	if err != nil {
		return "", err
	}
	run, ok, err := LastRun(ctx, db)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("%d:none", n), nil
	}
	return fmt.Sprintf("%d:%s", n, run.ID), nil
}
