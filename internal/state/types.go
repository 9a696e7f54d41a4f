package state

import "time"

// OperationalStatus is the mower's coarse machine state.
type OperationalStatus string

const (
	StatusActive   OperationalStatus = "active"
	StatusIdle     OperationalStatus = "idle"
	StatusCharging OperationalStatus = "charging"
	StatusError    OperationalStatus = "error"
)

// NotificationType classifies a notification for display.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationWarning, NotificationError, NotificationSuccess:
		return true
	}
	return false
}

// OperatingMode is the mower's power profile.
type OperatingMode string

const (
	ModeEco      OperatingMode = "eco"
	ModeStandard OperatingMode = "standard"
	ModePower    OperatingMode = "power"
)

// Valid reports whether m is a known operating mode.
func (m OperatingMode) Valid() bool {
	return m == ModeEco || m == ModeStandard || m == ModePower
}

// DeviceStatus is the connectivity of a registered device.
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "online"
	DeviceOffline DeviceStatus = "offline"
)

// Valid reports whether s is online or offline.
func (s DeviceStatus) Valid() bool {
	return s == DeviceOnline || s == DeviceOffline
}

// DeviceActivity is what a registered device reports it is doing.
type DeviceActivity string

const (
	ActivityMowing   DeviceActivity = "mowing"
	ActivityCharging DeviceActivity = "charging"
	ActivityIdle     DeviceActivity = "idle"
	ActivityError    DeviceActivity = "error"
)

// Location is a WGS84 position.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BatterySample is one entry of the battery history.
type BatterySample struct {
	Timestamp time.Time `json:"timestamp"`
	Level     int       `json:"level"`
}

// Schedule is the single recurring mowing window.
type Schedule struct {
	StartTime  string   `json:"startTime"`
	EndTime    string   `json:"endTime"`
	DaysOfWeek []string `json:"daysOfWeek"`
}

// Session is one continuous mowing operation.
type Session struct {
	ID              string     `json:"id"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	BatteryUsage    float64    `json:"batteryUsage"`
	DistanceCovered float64    `json:"distanceCovered"`
	Distance        float64    `json:"distance"`
	Duration        int        `json:"duration"` // minutes
	Location        Location   `json:"location"`
}

// Notification is an alert shown on the dashboard.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

// Settings is the device configuration edited on the settings page.
type Settings struct {
	ScheduledTime        []string      `json:"scheduledTime"`
	OperatingMode        OperatingMode `json:"operatingMode"`
	MowingHeight         float64       `json:"mowingHeight"`
	NotificationsEnabled bool          `json:"notificationsEnabled"`
}

// Device is a physical unit known to the dashboard.
type Device struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Status            DeviceStatus   `json:"status"`
	BatteryLevel      int            `json:"batteryLevel"`
	LastConnected     time.Time      `json:"lastConnected"`
	Model             string         `json:"model"`
	SerialNumber      string         `json:"serialNumber"`
	Firmware          string         `json:"firmware"`
	Connected         bool           `json:"connected"`
	OperationalStatus DeviceActivity `json:"operationalStatus"`
}

// MowerState is the whole state tree. Values are treated as immutable once
// published by the Store; the reducer copies any slice it changes.
type MowerState struct {
	BatteryLevel      int               `json:"batteryLevel"`
	BatteryHistory    []BatterySample   `json:"batteryHistory"`
	CurrentLocation   Location          `json:"currentLocation"`
	OperationalStatus OperationalStatus `json:"operationalStatus"`
	Status            string            `json:"status"`
	CurrentSessionID  string            `json:"currentSessionId,omitempty"`
	Sessions          []Session         `json:"sessions"`
	Notifications     []Notification    `json:"notifications"`
	Settings          Settings          `json:"settings"`
	Schedule          *Schedule         `json:"schedule"`
	ConnectedDevices  []Device          `json:"connectedDevices"`
}

// InitialState returns the state the dashboard boots with.
func InitialState(now time.Time) MowerState {
	return MowerState{
		BatteryLevel:      100,
		BatteryHistory:    []BatterySample{},
		CurrentLocation:   Location{Lat: 60.16750, Lng: 24.94778},
		OperationalStatus: StatusIdle,
		Status:            string(StatusIdle),
		Sessions:          []Session{},
		Notifications:     []Notification{},
		Settings: Settings{
			ScheduledTime:        []string{},
			OperatingMode:        ModeStandard,
			MowingHeight:         2.5,
			NotificationsEnabled: true,
		},
		ConnectedDevices: []Device{
			{
				ID:                "mower-1",
				Name:              "Front Yard Mower",
				Status:            DeviceOnline,
				BatteryLevel:      85,
				LastConnected:     now,
				Model:             "AutoMow 500X",
				SerialNumber:      "AM500X-123456",
				Firmware:          "2.1.0",
				Connected:         true,
				OperationalStatus: ActivityMowing,
			},
			{
				ID:                "mower-2",
				Name:              "Backyard Mower",
				Status:            DeviceOnline,
				BatteryLevel:      30,
				LastConnected:     now.Add(-time.Hour),
				Model:             "AutoMow 300",
				SerialNumber:      "AM300-789012",
				Firmware:          "2.0.9",
				Connected:         true,
				OperationalStatus: ActivityCharging,
			},
			{
				ID:                "mower-3",
				Name:              "Side Yard Mower",
				Status:            DeviceOffline,
				BatteryLevel:      0,
				LastConnected:     now.Add(-24 * time.Hour),
				Model:             "AutoMow 300",
				SerialNumber:      "AM300-345678",
				Firmware:          "2.0.9",
				Connected:         false,
				OperationalStatus: ActivityIdle,
			},
		},
	}
}
