package models

import "time"

// Log severities. Classification only; severity never gates behavior.
const (
	SeverityInfo    = "INFO"
	SeveritySuccess = "SUCCESS"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// LogEntry is one line of the pipeline activity log. Entries are append-only
// and chronological within an activation; they form the audit trail.
type LogEntry struct {
	EntryID    string    `json:"entry_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Severity   string    `json:"severity"` // INFO | SUCCESS | WARNING | ERROR
	Message    string    `json:"message"`
	Metadata   any       `json:"metadata,omitempty"`
}
