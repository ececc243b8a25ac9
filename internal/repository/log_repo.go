package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"receipt_relay/internal/models"
)

type LogSQLite struct {
	db *sql.DB
}

func NewLogSQLite(db *sql.DB) *LogSQLite { return &LogSQLite{db: db} }

var _ LogRepo = (*LogSQLite)(nil)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Append inserts a new entry. If EntryID or OccurredAt are empty, they're set.
func (r *LogSQLite) Append(ctx context.Context, e models.LogEntry) error {
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, occurred_at, severity, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`,
		e.EntryID,
		e.OccurredAt.Format(sqliteTimeLayout),
		strings.ToUpper(strings.TrimSpace(e.Severity)),
		e.Message,
		metaPtr,
	)

	return err
}

// List returns entries filtered by [from, to] (inclusive) and/or severity,
// ordered ASC; the order entries arrived is the audit trail.
func (r *LogSQLite) List(ctx context.Context, from, to time.Time, severity string) ([]models.LogEntry, error) {
	var (
		conds []string
		args  []any
	)

	// Bounds are compared as text against the stored layout; binding a raw
	// time.Time would serialize differently and break inclusivity at exact
	// bound equality.
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}
	if severity = strings.ToUpper(strings.TrimSpace(severity)); severity != "" {
		conds = append(conds, "severity = ?")
		args = append(args, severity)
	}

	q := `SELECT id, occurred_at, severity, message, meta FROM activity_log`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.LogEntry, 0, 64)
	for rows.Next() {
		var e models.LogEntry
		var metaStr sql.NullString
		if err := rows.Scan(&e.EntryID, &e.OccurredAt, &e.Severity, &e.Message, &metaStr); err != nil {
			return nil, err
		}
		e.OccurredAt = e.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				e.Metadata = v
			} else {
				e.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
