package peripheral

import (
	"context"
	"errors"

	"receipt_relay/internal/models"
)

// Driver abstracts the physical receipt printer. The pipeline only ever
// talks to this interface; the concrete transport (network ESC/POS, spooler,
// bluetooth) lives behind it.
type Driver interface {
	// IsConnected reports the driver's current view of the link.
	IsConnected() bool
	// DeviceName returns the identity of the connected device, or "" when
	// disconnected.
	DeviceName() string
	// Connect establishes the link and returns the device name on success.
	// On failure the driver stays disconnected.
	Connect(ctx context.Context) (string, error)
	// Disconnect releases the link. Idempotent.
	Disconnect(ctx context.Context) error
	// PrintReceipt renders and prints one receipt. A nil error means the
	// device accepted the full job.
	PrintReceipt(ctx context.Context, payload models.ReceiptPayload) error
	// OnConnectionChange registers a callback fired on every link transition
	// (including device-initiated drops) and returns a subscription id.
	OnConnectionChange(fn func(connected bool)) int
	// OffConnectionChange removes a previously registered callback.
	OffConnectionChange(id int)
}

// Driver errors.
var (
	ErrNotConnected = errors.New("printer is not connected")
	ErrEmptyReceipt = errors.New("receipt has no lines")
)
