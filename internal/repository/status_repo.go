package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"receipt_relay/internal/models"
)

type StatusSQLite struct {
	db *sql.DB
}

func NewStatusSQLite(db *sql.DB) *StatusSQLite {
	return &StatusSQLite{db: db}
}

var _ StatusRepo = (*StatusSQLite)(nil)

const (
	pipelineStatusRowID = 1

	upsertStatusSQL = `
		INSERT INTO pipeline_status (id, printer_connected, device_name, transport_connected, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			printer_connected=excluded.printer_connected,
			device_name=excluded.device_name,
			transport_connected=excluded.transport_connected,
			active=excluded.active,
			updated_at=excluded.updated_at
	`

	selectStatusSQL = `
		SELECT id, printer_connected, device_name, transport_connected, active, updated_at
		FROM pipeline_status WHERE id=?
	`
)

// Save updates or inserts the pipeline_status row (id always 1).
func (r *StatusSQLite) Save(ctx context.Context, s models.PipelineStatus) error {
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertStatusSQL,
		pipelineStatusRowID,
		s.Printer.IsConnected,
		s.Printer.DeviceName,
		s.TransportConnected,
		s.Active,
		tsUTC,
	)
	return err
}

// Load fetches the single pipeline_status row (id=1). Returns a zero value
// when no status has been recorded yet.
func (r *StatusSQLite) Load(ctx context.Context) (models.PipelineStatus, error) {
	row := r.db.QueryRowContext(ctx, selectStatusSQL, pipelineStatusRowID)

	var s models.PipelineStatus
	if err := row.Scan(
		&s.ID,
		&s.Printer.IsConnected,
		&s.Printer.DeviceName,
		&s.TransportConnected,
		&s.Active,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PipelineStatus{}, nil
		}
		return models.PipelineStatus{}, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
