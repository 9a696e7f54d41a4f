package mockapi

import (
	"time"

	"mower-status-backend/internal/state"
)

// Mower is the backend's view of a mower.
type Mower struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Model        string               `json:"model"`
	SerialNumber string               `json:"serialNumber"`
	BatteryLevel int                  `json:"batteryLevel"`
	Status       state.DeviceActivity `json:"status"`
	LastSeen     time.Time            `json:"lastSeen"`
	Firmware     string               `json:"firmware"`
	Connected    bool                 `json:"connected"`
	ErrorCode    string               `json:"errorCode,omitempty"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
}

// Message is an entry of a mower's message log.
type Message struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      state.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
}

// StayOutZone is a polygon the mower must not enter.
type StayOutZone struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Points    []state.Location `json:"points"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Priority ranks work areas.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// WorkArea is a mowable region.
type WorkArea struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Boundary        []state.Location `json:"boundary"`
	Size            float64          `json:"size"` // square meters
	LastMowed       time.Time        `json:"lastMowed"`
	MowingFrequency int              `json:"mowingFrequency"` // days
	Priority        Priority         `json:"priority"`
}

// MowingRecord is one historical mow of a work area.
type MowingRecord struct {
	Date     time.Time `json:"date"`
	Duration int       `json:"duration"`
	Coverage float64   `json:"coverage"`
}

// DetailedWorkArea adds completion tracking to a WorkArea.
type DetailedWorkArea struct {
	WorkArea
	CompletionRate   float64        `json:"completionRate"`
	NextScheduledMow time.Time      `json:"nextScheduledMow"`
	MowingHistory    []MowingRecord `json:"mowingHistory"`
}

// Result is the reply to a start/stop command.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WorkAreaUpdate is a partial WorkArea; nil fields are kept.
type WorkAreaUpdate struct {
	Name            *string           `json:"name,omitempty"`
	Boundary        *[]state.Location `json:"boundary,omitempty"`
	Size            *float64          `json:"size,omitempty"`
	MowingFrequency *int              `json:"mowingFrequency,omitempty"`
	Priority        *Priority         `json:"priority,omitempty"`
}

// StayOutZoneUpdate is a partial StayOutZone; nil fields are kept.
type StayOutZoneUpdate struct {
	Name   *string           `json:"name,omitempty"`
	Points *[]state.Location `json:"points,omitempty"`
	Active *bool             `json:"active,omitempty"`
}

// Details is the combined payload the mower details view loads at once.
type Details struct {
	Mower     Mower         `json:"mower"`
	Messages  []Message     `json:"messages"`
	Zones     []StayOutZone `json:"zones"`
	WorkAreas []WorkArea    `json:"workAreas"`
}
