package state

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"mower-status-backend/internal/parse"
)

const (
	// LowBatteryThreshold is the level below which a warning is raised.
	LowBatteryThreshold = 20
	// LowBatteryMessage is the text of the low battery warning.
	LowBatteryMessage = "Battery level is low"
)

// No-op reasons reported in Outcome.Reason.
const (
	ReasonBatteryOutOfRange       = "battery_out_of_range"
	ReasonNoActiveSession         = "no_active_session"
	ReasonSessionNotFound         = "session_not_found"
	ReasonStaleSession            = "stale_session"
	ReasonNotificationNotFound    = "notification_not_found"
	ReasonInvalidNotificationType = "invalid_notification_type"
	ReasonInvalidOperatingMode    = "invalid_operating_mode"
	ReasonInvalidSchedule         = "invalid_schedule"
	ReasonDeviceNotFound          = "device_not_found"
	ReasonDeviceExists            = "device_exists"
	ReasonInvalidDevice           = "invalid_device"
	ReasonInvalidDeviceStatus     = "invalid_device_status"
	ReasonUnknownAction           = "unknown_action"
)

var statusMapping = map[string]OperationalStatus{
	"active":   StatusActive,
	"mowing":   StatusActive,
	"idle":     StatusIdle,
	"charging": StatusCharging,
	"error":    StatusError,
}

// Outcome describes what a transition did besides producing the next state.
type Outcome struct {
	// Noop is set when the action left the state unchanged; Reason says why.
	Noop   bool
	Reason string
	// Note is a non-fatal remark worth logging, e.g. diverging status fields.
	Note string
	// Added lists notifications appended by this transition.
	Added []Notification
	// Ended is the session terminated by this transition, if any.
	Ended *Session
}

func noop(s MowerState, reason string) (MowerState, Outcome) {
	return s, Outcome{Noop: true, Reason: reason}
}

// Reducer applies actions to a MowerState. Clock and id generation are
// injectable so transitions stay deterministic under test.
type Reducer struct {
	Now   func() time.Time
	NewID func() string
}

// NewReducer returns a Reducer using wall-clock time and random UUIDs.
func NewReducer() *Reducer {
	return &Reducer{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// Apply returns the state after a. The input state is never modified.
func (r *Reducer) Apply(s MowerState, a Action) (MowerState, Outcome) {
	switch act := a.(type) {
	case UpdateBatteryLevel:
		return r.updateBatteryLevel(s, act.Level)
	case StartSession:
		return r.startSession(s)
	case EndSession:
		return r.endSession(s)
	case UpdateSession:
		return r.updateSession(s, act.ID, act.Updates)
	case UpdateCurrentSession:
		if act.ID == "" || act.ID != s.CurrentSessionID {
			return noop(s, ReasonStaleSession)
		}
		return r.updateSession(s, act.ID, act.Updates)
	case UpdateStatus:
		return r.updateStatus(s, act.Status)
	case UpdateLocation:
		s.CurrentLocation = act.Location
		return s, Outcome{}
	case AddNotification:
		if !act.Kind.Valid() {
			return noop(s, ReasonInvalidNotificationType)
		}
		n := r.notification(act.Kind, act.Message)
		s.Notifications = append(slices.Clone(s.Notifications), n)
		return s, Outcome{Added: []Notification{n}}
	case MarkNotificationAsRead:
		return r.markRead(s, act.ID)
	case ClearNotifications:
		s.Notifications = []Notification{}
		return s, Outcome{}
	case UpdateSettings:
		return r.updateSettings(s, act.Updates)
	case ScheduleMowing:
		if _, err := parse.ParseSchedule(act.Schedule.StartTime, act.Schedule.EndTime, act.Schedule.DaysOfWeek); err != nil {
			return noop(s, ReasonInvalidSchedule)
		}
		sched := act.Schedule
		sched.DaysOfWeek = slices.Clone(sched.DaysOfWeek)
		s.Schedule = &sched
		return s, Outcome{}
	case AddDevice:
		return r.addDevice(s, act.Device)
	case RemoveDevice:
		idx := s.deviceIndex(act.ID)
		if idx < 0 {
			return noop(s, ReasonDeviceNotFound)
		}
		s.ConnectedDevices = slices.Delete(slices.Clone(s.ConnectedDevices), idx, idx+1)
		return s, Outcome{}
	case UpdateDeviceStatus:
		return r.updateDeviceStatus(s, act.ID, act.Status)
	default:
		return noop(s, ReasonUnknownAction)
	}
}

func (r *Reducer) notification(t NotificationType, message string) Notification {
	return Notification{
		ID:        r.NewID(),
		Type:      t,
		Message:   message,
		Timestamp: r.Now(),
		Read:      false,
	}
}

func (r *Reducer) updateBatteryLevel(s MowerState, level int) (MowerState, Outcome) {
	if level < 0 || level > 100 {
		return noop(s, ReasonBatteryOutOfRange)
	}

	var out Outcome
	// Warn once per downward crossing, not on every low reading.
	if level < LowBatteryThreshold && s.BatteryLevel >= LowBatteryThreshold {
		n := r.notification(NotificationWarning, LowBatteryMessage)
		s.Notifications = append(slices.Clone(s.Notifications), n)
		out.Added = []Notification{n}
	}

	s.BatteryLevel = level
	s.BatteryHistory = append(slices.Clone(s.BatteryHistory), BatterySample{
		Timestamp: r.Now(),
		Level:     level,
	})
	return s, out
}

func (r *Reducer) startSession(s MowerState) (MowerState, Outcome) {
	var out Outcome
	now := r.Now()
	sessions := slices.Clone(s.Sessions)

	if idx := s.sessionIndex(s.CurrentSessionID); idx >= 0 {
		end := now
		sessions[idx].EndTime = &end
		ended := sessions[idx]
		out.Ended = &ended
		out.Note = "replaced active session " + ended.ID
	}

	session := Session{
		ID:        r.NewID(),
		StartTime: now,
		Location:  s.CurrentLocation,
	}
	s.Sessions = append(sessions, session)
	s.CurrentSessionID = session.ID
	s.OperationalStatus = StatusActive
	return s, out
}

func (r *Reducer) endSession(s MowerState) (MowerState, Outcome) {
	idx := s.sessionIndex(s.CurrentSessionID)
	if idx < 0 {
		return noop(s, ReasonNoActiveSession)
	}

	end := r.Now()
	sessions := slices.Clone(s.Sessions)
	sessions[idx].EndTime = &end
	ended := sessions[idx]

	s.Sessions = sessions
	s.OperationalStatus = StatusIdle
	s.CurrentSessionID = ""
	return s, Outcome{Ended: &ended}
}

func (r *Reducer) updateSession(s MowerState, id string, u SessionUpdate) (MowerState, Outcome) {
	idx := s.sessionIndex(id)
	if idx < 0 {
		return noop(s, ReasonSessionNotFound)
	}

	sessions := slices.Clone(s.Sessions)
	session := sessions[idx]
	if u.BatteryUsage != nil {
		session.BatteryUsage = *u.BatteryUsage
	}
	if u.DistanceCovered != nil {
		session.DistanceCovered = *u.DistanceCovered
	}
	if u.Distance != nil {
		session.Distance = *u.Distance
	}
	if u.Duration != nil {
		session.Duration = *u.Duration
	}
	if u.Location != nil {
		session.Location = *u.Location
	}
	sessions[idx] = session
	s.Sessions = sessions
	return s, Outcome{}
}

// updateStatus only touches the free-form channel. operationalStatus is driven
// by session transitions, so a disagreement is reported and left alone.
func (r *Reducer) updateStatus(s MowerState, raw string) (MowerState, Outcome) {
	status := strings.ToLower(strings.TrimSpace(raw))
	s.Status = status

	mapped, ok := statusMapping[status]
	switch {
	case !ok:
		return s, Outcome{Note: "status " + status + " has no operational mapping; operational status is " + string(s.OperationalStatus)}
	case mapped != s.OperationalStatus:
		return s, Outcome{Note: "status " + status + " disagrees with operational status " + string(s.OperationalStatus)}
	}
	return s, Outcome{}
}

func (r *Reducer) markRead(s MowerState, id string) (MowerState, Outcome) {
	idx := slices.IndexFunc(s.Notifications, func(n Notification) bool { return n.ID == id })
	if idx < 0 {
		return noop(s, ReasonNotificationNotFound)
	}
	notifications := slices.Clone(s.Notifications)
	notifications[idx].Read = true
	s.Notifications = notifications
	return s, Outcome{}
}

func (r *Reducer) updateSettings(s MowerState, u SettingsUpdate) (MowerState, Outcome) {
	settings := s.Settings
	if u.OperatingMode != nil {
		mode := OperatingMode(strings.ToLower(string(*u.OperatingMode)))
		if !mode.Valid() {
			return noop(s, ReasonInvalidOperatingMode)
		}
		settings.OperatingMode = mode
	}
	if u.ScheduledTime != nil {
		settings.ScheduledTime = slices.Clone(*u.ScheduledTime)
	}
	if u.MowingHeight != nil {
		settings.MowingHeight = *u.MowingHeight
	}
	if u.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *u.NotificationsEnabled
	}
	s.Settings = settings
	return s, Outcome{}
}

func (r *Reducer) addDevice(s MowerState, d Device) (MowerState, Outcome) {
	if d.ID == "" {
		return noop(s, ReasonInvalidDevice)
	}
	if s.deviceIndex(d.ID) >= 0 {
		return noop(s, ReasonDeviceExists)
	}
	if d.Status == "" {
		d.Status = DeviceOffline
	}
	if !d.Status.Valid() {
		return noop(s, ReasonInvalidDeviceStatus)
	}
	s.ConnectedDevices = append(slices.Clone(s.ConnectedDevices), d)
	return s, Outcome{}
}

func (r *Reducer) updateDeviceStatus(s MowerState, id string, status DeviceStatus) (MowerState, Outcome) {
	if !status.Valid() {
		return noop(s, ReasonInvalidDeviceStatus)
	}
	idx := s.deviceIndex(id)
	if idx < 0 {
		return noop(s, ReasonDeviceNotFound)
	}
	devices := slices.Clone(s.ConnectedDevices)
	devices[idx].Status = status
	devices[idx].LastConnected = r.Now()
	s.ConnectedDevices = devices
	return s, Outcome{}
}
