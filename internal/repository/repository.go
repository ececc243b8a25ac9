package repository

import (
	"context"
	"database/sql"
	"time"

	"receipt_relay/internal/models"
	"receipt_relay/internal/repository/db"
)

// LogRepo is the durable, append-only sink for pipeline activity entries.
type LogRepo interface {
	Append(ctx context.Context, e models.LogEntry) error
	List(ctx context.Context, from, to time.Time, severity string) ([]models.LogEntry, error)
}

// StatusRepo persists the last observed pipeline status (single row), so the
// dashboard sees the last-known state across restarts.
type StatusRepo interface {
	Save(ctx context.Context, s models.PipelineStatus) error
	Load(ctx context.Context) (models.PipelineStatus, error)
}

// Authorization persists operator accounts.
type Authorization interface {
	Create(username, passwordHash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

type Repository struct {
	LogRepo    LogRepo
	StatusRepo StatusRepo
	Auth       Authorization
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		LogRepo:    NewLogSQLite(conn),
		StatusRepo: NewStatusSQLite(conn),
		Auth:       NewOperatorRepository(conn),
	}
}

// InitDB re-exports the bootstrap so main only imports this package.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
