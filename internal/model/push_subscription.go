package model

import (
	"strings"
	"time"
)

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	Types     string    `gorm:"size:64;not null"` // comma separated notification types, empty means all
	CreatedAt time.Time `gorm:"not null"`
}

// TypeList returns the notification types the subscription filters on.
func (s PushSubscription) TypeList() []string {
	if s.Types == "" {
		return []string{}
	}
	return strings.Split(s.Types, ",")
}

// Accepts reports whether a notification of type t should be pushed.
func (s PushSubscription) Accepts(t string) bool {
	if s.Types == "" {
		return true
	}
	for _, want := range strings.Split(s.Types, ",") {
		if want == t {
			return true
		}
	}
	return false
}
