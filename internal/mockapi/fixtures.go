package mockapi

import (
	"time"

	"mower-status-backend/internal/state"
)

type fixtures struct {
	mowers   map[string]Mower
	messages map[string][]Message
	zones    map[string][]StayOutZone
	areas    map[string][]WorkArea
	detailed map[string]map[string]DetailedWorkArea
}

func newFixtures(now time.Time) fixtures {
	day := 24 * time.Hour

	mainLawn := WorkArea{
		ID:   "area-1",
		Name: "Main Lawn",
		Boundary: []state.Location{
			{Lat: 60.16740, Lng: 24.94768},
			{Lat: 60.16745, Lng: 24.94775},
			{Lat: 60.16750, Lng: 24.94770},
			{Lat: 60.16745, Lng: 24.94763},
		},
		Size:            500,
		LastMowed:       now.Add(-day),
		MowingFrequency: 2,
		Priority:        PriorityHigh,
	}

	return fixtures{
		mowers: map[string]Mower{
			"mower-1": {
				ID:           "mower-1",
				Name:         "Front Yard Mower",
				Model:        "AutoMow 500X",
				SerialNumber: "AM500X-123456",
				BatteryLevel: 85,
				Status:       state.ActivityMowing,
				LastSeen:     now,
				Firmware:     "2.1.0",
				Connected:    true,
			},
			"mower-2": {
				ID:           "mower-2",
				Name:         "Backyard Mower",
				Model:        "AutoMow 300",
				SerialNumber: "AM300-789012",
				BatteryLevel: 30,
				Status:       state.ActivityCharging,
				LastSeen:     now,
				Firmware:     "2.0.9",
				Connected:    true,
			},
			"mower-3": {
				ID:           "mower-3",
				Name:         "Side Yard Mower",
				Model:        "AutoMow 300",
				SerialNumber: "AM300-345678",
				BatteryLevel: 0,
				Status:       state.ActivityIdle,
				LastSeen:     now.Add(-day),
				Firmware:     "2.0.9",
				Connected:    false,
			},
		},
		messages: map[string][]Message{
			"mower-1": {
				{ID: "msg-1", Timestamp: now, Type: state.NotificationInfo, Message: "Started mowing in Zone A"},
				{ID: "msg-2", Timestamp: now.Add(-time.Hour), Type: state.NotificationWarning, Message: "Grass is higher than optimal height", Read: true},
			},
		},
		zones: map[string][]StayOutZone{
			"mower-1": {
				{
					ID:   "zone-1",
					Name: "Flower Bed",
					Points: []state.Location{
						{Lat: 60.16750, Lng: 24.94778},
						{Lat: 60.16755, Lng: 24.94785},
						{Lat: 60.16760, Lng: 24.94780},
						{Lat: 60.16755, Lng: 24.94773},
					},
					Active:    true,
					CreatedAt: now,
				},
			},
		},
		areas: map[string][]WorkArea{
			"mower-1": {mainLawn},
		},
		detailed: map[string]map[string]DetailedWorkArea{
			"mower-1": {
				"area-1": {
					WorkArea:         mainLawn,
					CompletionRate:   85,
					NextScheduledMow: now.Add(day),
					MowingHistory: []MowingRecord{
						{Date: now.Add(-day), Duration: 120, Coverage: 95},
					},
				},
			},
		},
	}
}
