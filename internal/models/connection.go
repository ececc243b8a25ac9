package models

import "time"

// ConnectionState is the printer connection snapshot. Owned exclusively by
// the connection manager; everyone else reads it.
type ConnectionState struct {
	IsConnected bool   `json:"is_connected"`
	DeviceName  string `json:"device_name,omitempty"`
}

// PipelineStatus is the dashboard snapshot of the whole print pipeline.
type PipelineStatus struct {
	ID                 int             `json:"id"`
	Printer            ConnectionState `json:"printer"`
	TransportConnected bool            `json:"transport_connected"`
	Active             bool            `json:"active"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
