package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

// LogRepo handles persistence for lab log entries.
type LogRepo struct{}

// Append inserts a single lab log entry.
func (r *LogRepo) Append(ctx context.Context, db *sql.DB, entry domain.LabLogEntry) error {
	const q = `INSERT INTO lab_logs (id, seq_no, text, custom, created_at)
VALUES (?, ?, ?, ?, ?)`
	custom := 0
	if entry.Custom {
		custom = 1
	}
	_, err := db.ExecContext(ctx, q,
		entry.ID,
		entry.Seq,
		entry.Text,
		custom,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append lab log: %w", err)
	}
	return nil
}

// ListSince returns entries with sequence numbers greater than sinceSeq,
// ordered ascending.
func (r *LogRepo) ListSince(ctx context.Context, db *sql.DB, sinceSeq int64) ([]domain.LabLogEntry, error) {
	const q = `SELECT id, seq_no, text, custom, created_at
FROM lab_logs
WHERE seq_no > ?
ORDER BY seq_no ASC`

	rows, err := db.QueryContext(ctx, q, sinceSeq)
	if err != nil {
		return nil, fmt.Errorf("list lab logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.LabLogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear removes every persisted lab log entry.
func (r *LogRepo) Clear(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM lab_logs`); err != nil {
		return fmt.Errorf("clear lab logs: %w", err)
	}
	return nil
}

func scanLogEntry(rows *sql.Rows) (domain.LabLogEntry, error) {
	var entry domain.LabLogEntry
	var custom int
	if err := rows.Scan(&entry.ID, &entry.Seq, &entry.Text, &custom, &entry.CreatedAt); err != nil {
		return domain.LabLogEntry{}, fmt.Errorf("scan lab log: %w", err)
	}
	entry.Custom = custom != 0
	return entry, nil
}

// PersistentLog binds a LogRepo to a database so it satisfies the engine's
// log sink interface.
type PersistentLog struct {
	DB   *sql.DB
	Repo LogRepo
}

func (p *PersistentLog) Append(ctx context.Context, entry domain.LabLogEntry) error {
	return p.Repo.Append(ctx, p.DB, entry)
}

func (p *PersistentLog) Clear(ctx context.Context) error {
	return p.Repo.Clear(ctx, p.DB)
}
