package service

import "receipt_relay/internal/logger"

// Alert variants map to the dashboard's banner styles.
type AlertVariant string

const (
	AlertInfo    AlertVariant = "info"
	AlertSuccess AlertVariant = "success"
	AlertWarning AlertVariant = "warning"
	AlertError   AlertVariant = "error"
)

// Alert is a fire-and-forget operator-facing notice.
type Alert struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Variant     AlertVariant `json:"variant,omitempty"`
}

// Notifier is the operator alerting surface. Implementations must not block;
// no return value is consumed.
type Notifier interface {
	Notify(a Alert)
}

// LogNotifier surfaces alerts through the structured log. It stands in for
// the dashboard's toast UI when the agent runs headless.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Notify(a Alert) {
	if n.log == nil {
		return
	}
	switch a.Variant {
	case AlertError:
		n.log.Errorw("operator_alert", "title", a.Title, "description", a.Description)
	case AlertWarning:
		n.log.Warnw("operator_alert", "title", a.Title, "description", a.Description)
	default:
		n.log.Infow("operator_alert", "title", a.Title, "description", a.Description)
	}
}
