package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"joetracker-engine/internal/domain"
)

const dateLayout = "2006-01-02"

// SavePostings inserts postings keyed by source_id, ignoring ones already
// stored, and reports how many were new.
func SavePostings(ctx context.Context, db *sql.DB, postings []domain.Posting) (added int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO postings
  (source_id, jp_id, title, body, section, institution, date_active, opening_count, source_file, ingested_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range postings {
		if p.SourceID == "" {
			continue
		}
		var date any
		if p.DateActive != nil {
			date = p.DateActive.Format(dateLayout)
		}
		res, err := stmt.ExecContext(ctx,
			p.SourceID, p.JPID, p.Title, p.Body, p.Section, p.Institution,
			date, p.OpeningCount, p.SourceFile, now)
		if err != nil {
			return 0, fmt.Errorf("insert posting %s: %w", p.SourceID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// ListPostings returns every stored posting ordered by date, undated last.
func ListPostings(ctx context.Context, db *sql.DB) ([]domain.Posting, error) {
	rows, err := db.QueryContext(ctx, `
SELECT source_id, jp_id, title, body, section, institution, date_active, opening_count, source_file
FROM postings
ORDER BY date_active IS NULL, date_active, source_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Posting
	for rows.Next() {
		var p domain.Posting
		var date sql.NullString
		if err := rows.Scan(
			&p.SourceID,
			&p.JPID,
			&p.Title,
			&p.Body,
			&p.Section,
			&p.Institution,
			&date,
			&p.OpeningCount,
			&p.SourceFile,
		); err != nil {
			return nil, err
		}
		if date.Valid {
			if t, err := time.Parse(dateLayout, date.String); err == nil {
				p.DateActive = &t
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func CountPostings(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings;`).Scan(&n)
	return n, err
}
