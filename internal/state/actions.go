package state

// Action is a write request against the mower state.
type Action interface {
	Type() string
}

// SessionUpdate carries the fields of a partial session update. Nil fields
// are left untouched.
type SessionUpdate struct {
	BatteryUsage    *float64  `json:"batteryUsage,omitempty"`
	DistanceCovered *float64  `json:"distanceCovered,omitempty"`
	Distance        *float64  `json:"distance,omitempty"`
	Duration        *int      `json:"duration,omitempty"`
	Location        *Location `json:"location,omitempty"`
}

// SettingsUpdate carries the fields of a partial settings update.
type SettingsUpdate struct {
	ScheduledTime        *[]string      `json:"scheduledTime,omitempty"`
	OperatingMode        *OperatingMode `json:"operatingMode,omitempty"`
	MowingHeight         *float64       `json:"mowingHeight,omitempty"`
	NotificationsEnabled *bool          `json:"notificationsEnabled,omitempty"`
}

// UpdateBatteryLevel records a battery reading in percent.
type UpdateBatteryLevel struct{ Level int }

// StartSession opens a new mowing session, ending any active one.
type StartSession struct{}

// EndSession closes the active session.
type EndSession struct{}

// UpdateSession merges Updates into the session with ID.
type UpdateSession struct {
	ID      string
	Updates SessionUpdate
}

// UpdateCurrentSession merges Updates into the session with ID only while it
// is still the current session.
type UpdateCurrentSession struct {
	ID      string
	Updates SessionUpdate
}

// UpdateStatus sets the free-form status text.
type UpdateStatus struct{ Status string }

// UpdateLocation replaces the current position.
type UpdateLocation struct{ Location Location }

// AddNotification appends a notification of the given kind.
type AddNotification struct {
	Kind    NotificationType
	Message string
}

// MarkNotificationAsRead flags one notification as read.
type MarkNotificationAsRead struct{ ID string }

// ClearNotifications drops every notification.
type ClearNotifications struct{}

// UpdateSettings merges Updates into the settings.
type UpdateSettings struct{ Updates SettingsUpdate }

// ScheduleMowing replaces the mowing schedule.
type ScheduleMowing struct{ Schedule Schedule }

// AddDevice registers a device.
type AddDevice struct{ Device Device }

// RemoveDevice unregisters the device with ID.
type RemoveDevice struct{ ID string }

// UpdateDeviceStatus sets the connectivity of the device with ID.
type UpdateDeviceStatus struct {
	ID     string
	Status DeviceStatus
}

func (UpdateBatteryLevel) Type() string     { return "updateBatteryLevel" }
func (StartSession) Type() string           { return "startSession" }
func (EndSession) Type() string             { return "endSession" }
func (UpdateSession) Type() string          { return "updateSession" }
func (UpdateCurrentSession) Type() string   { return "updateCurrentSession" }
func (UpdateStatus) Type() string           { return "updateStatus" }
func (UpdateLocation) Type() string         { return "updateLocation" }
func (AddNotification) Type() string        { return "addNotification" }
func (MarkNotificationAsRead) Type() string { return "markNotificationAsRead" }
func (ClearNotifications) Type() string     { return "clearNotifications" }
func (UpdateSettings) Type() string         { return "updateSettings" }
func (ScheduleMowing) Type() string         { return "scheduleMowing" }
func (AddDevice) Type() string              { return "addDevice" }
func (RemoveDevice) Type() string           { return "removeDevice" }
func (UpdateDeviceStatus) Type() string     { return "updateDeviceStatus" }
