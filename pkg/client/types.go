package client

import "time"

// FarmRequest is the wire shape for add and edit calls. For edits, nil
// fields are left unchanged.
type FarmRequest struct {
	Name           string   `json:"name,omitempty"`
	Coords         *string  `json:"coords,omitempty"`
	Output         *string  `json:"output,omitempty"`
	RuntimeMinutes *int     `json:"runtime_minutes,omitempty"`
	RegrowHours    *float64 `json:"regrow_hours,omitempty"`
}

// FarmStatus represents one tracked farm as returned by the status endpoint.
type FarmStatus struct {
	Name      string        `json:"name"`
	Coords    string        `json:"coords,omitempty"`
	Output    string        `json:"total_output,omitempty"`
	Runtime   time.Duration `json:"runtime"`
	Regrow    time.Duration `json:"regrow_time"`
	NextReady *time.Time    `json:"next_ready,omitempty"`
	Status    string        `json:"status"`
}

// IngestMessage is one chat-feed line pushed to the ingest endpoint.
type IngestMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
