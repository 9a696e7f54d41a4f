package model

import (
	"time"
)

// SessionRecord is a finished mowing session (cold table).
type SessionRecord struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	StartedAt       time.Time `gorm:"not null;index;primaryKey" json:"startTime"`
	EndedAt         time.Time `gorm:"not null" json:"endTime"`
	Duration        int       `gorm:"not null" json:"duration"` // minutes
	Distance        float64   `gorm:"not null" json:"distance"`
	DistanceCovered float64   `gorm:"not null" json:"distanceCovered"`
	BatteryUsage    float64   `gorm:"not null" json:"batteryUsage"`
	Lat             float64   `gorm:"not null" json:"lat"`
	Lng             float64   `gorm:"not null" json:"lng"`
	ArchivedAt      time.Time `gorm:"not null" json:"archivedAt"`
}

// NotificationRecord is an emitted notification (cold table).
type NotificationRecord struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Timestamp  time.Time `gorm:"not null;index;primaryKey" json:"timestamp"`
	Type       string    `gorm:"size:16;not null;index" json:"type"`
	Message    string    `gorm:"not null" json:"message"`
	ArchivedAt time.Time `gorm:"not null" json:"archivedAt"`
}
