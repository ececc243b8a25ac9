package service

import (
	"context"
	"time"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
	"receipt_relay/internal/peripheral"
	"receipt_relay/internal/repository"
	"receipt_relay/internal/transport"
)

// ConnectionManager owns the printer connect/disconnect state machine. It is
// the only writer of ConnectionState; everyone else reads snapshots.
type ConnectionManager interface {
	// State returns the current snapshot synchronously, so dependents can
	// seed their view without waiting for the next transition.
	State() models.ConnectionState
	Connect(ctx context.Context) (models.ConnectionState, error)
	Disconnect(ctx context.Context) error
	// OnConnectionChange registers a listener for state transitions and
	// returns a subscription id; a listener receives every transition until
	// removed with OffConnectionChange.
	OnConnectionChange(fn func(connected bool)) int
	OffConnectionChange(id int)
}

// Subscriber brackets the pipeline's live subscriptions: Activate/Deactivate
// correspond to the hosting UI opening/closing the print view.
type Subscriber interface {
	Activate(ctx context.Context) error
	Deactivate()
	IsActive() bool
}

// Orchestrator turns one order-created event into at most one print attempt.
type Orchestrator interface {
	HandleOrderCreated(ctx context.Context, evt models.OrderCreatedEvent)
}

// ActivityLog is the append-only, injectable sink recording every pipeline
// step for operator visibility.
type ActivityLog interface {
	Append(severity, message string)
	Entries() []models.LogEntry
	Reset()
	// Subscribe returns a buffered channel receiving entries appended after
	// the call. Slow consumers lose entries rather than blocking the pipeline.
	Subscribe() (int, <-chan models.LogEntry)
	Unsubscribe(id int)
}

// LogHistory exposes the durable audit copy of the log with filtering access.
type LogHistory interface {
	List(ctx context.Context, f LogFilter) ([]models.LogEntry, error)
}

// Status exposes a read-only snapshot of the whole pipeline.
type Status interface {
	GetStatus() models.PipelineStatus
}

// StatusRecorder runs the background loop persisting status transitions.
// Stop via context cancellation in main() for graceful shutdown.
type StatusRecorder interface {
	Run(ctx context.Context, tick time.Duration)
}

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// OrderFetcher is the order-lookup collaborator: given an order id it returns
// the full order, fetched fresh per call.
type OrderFetcher interface {
	OrderByID(ctx context.Context, id int) (models.OrderDetail, error)
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	ConnectionManager
	Subscriber
	Orchestrator
	ActivityLog
	LogHistory
	Status
	StatusRecorder
	Authorization
}

// Deps carries the external collaborators the pipeline fronts.
type Deps struct {
	Repos      *repository.Repository
	Driver     peripheral.Driver
	Transport  transport.Transport
	Orders     OrderFetcher
	Notifier   Notifier
	SigningKey string
	Log        *logger.Logger
}

// NewService wires the collaborators into concrete services.
func NewService(d Deps) *Service {
	activity := NewActivityLogService(d.Repos.LogRepo, d.Log)
	conn := NewConnectionManagerService(d.Driver, activity, d.Notifier, d.Log)
	orch := NewPrintOrchestratorService(conn, d.Orders, d.Driver, activity, d.Notifier, d.Log)
	sub := NewSubscriberService(d.Transport, conn, orch, activity, d.Log)
	status := NewStatusService(conn, d.Transport, sub)

	return &Service{
		ConnectionManager: conn,
		Subscriber:        sub,
		Orchestrator:      orch,
		ActivityLog:       activity,
		LogHistory:        NewLogHistoryService(d.Repos.LogRepo),
		Status:            status,
		StatusRecorder:    NewStatusRecorderService(status, d.Repos.StatusRepo, d.Log),
		Authorization:     NewAuthService(d.Repos.Auth, d.SigningKey),
	}
}

// LogFilter supports audit-log filtering by time range and severity.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Severity string    // "", "INFO", "SUCCESS", "WARNING", "ERROR"
}
