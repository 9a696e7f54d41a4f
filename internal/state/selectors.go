package state

import "slices"

func (s MowerState) sessionIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.Sessions, func(sess Session) bool { return sess.ID == id })
}

func (s MowerState) deviceIndex(id string) int {
	return slices.IndexFunc(s.ConnectedDevices, func(d Device) bool { return d.ID == id })
}

// CurrentSession resolves the active session from the session log, so it
// always reflects the latest merged values.
func (s MowerState) CurrentSession() (Session, bool) {
	idx := s.sessionIndex(s.CurrentSessionID)
	if idx < 0 {
		return Session{}, false
	}
	return s.Sessions[idx], true
}

// Session looks up a session by id.
func (s MowerState) Session(id string) (Session, bool) {
	idx := s.sessionIndex(id)
	if idx < 0 {
		return Session{}, false
	}
	return s.Sessions[idx], true
}

// Device looks up a registered device by id.
func (s MowerState) Device(id string) (Device, bool) {
	idx := s.deviceIndex(id)
	if idx < 0 {
		return Device{}, false
	}
	return s.ConnectedDevices[idx], true
}

// UnreadCount returns the number of notifications not yet marked read.
func (s MowerState) UnreadCount() int {
	count := 0
	for _, n := range s.Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// LatestBattery returns the most recent battery sample.
func (s MowerState) LatestBattery() (BatterySample, bool) {
	if len(s.BatteryHistory) == 0 {
		return BatterySample{}, false
	}
	return s.BatteryHistory[len(s.BatteryHistory)-1], true
}
