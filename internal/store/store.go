package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mower-status-backend/internal/apperr"
	"mower-status-backend/internal/model"
	"mower-status-backend/internal/state"
)

// DefaultListLimit caps history queries that do not ask for a limit.
const DefaultListLimit = 50

// Store defines the interface for all database operations.
type Store interface {
	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context, notificationType string) ([]model.PushSubscription, error)

	ArchiveSession(ctx context.Context, s state.Session) error
	ArchiveNotification(ctx context.Context, n state.Notification) error
	ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error)
	ListNotifications(ctx context.Context, notificationType string, limit int) ([]model.NotificationRecord, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// SaveSubscription creates the subscription or replaces its keys and filter.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "types"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// GetSubscription returns apperr.ErrNotFound when the endpoint is unknown.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("subscription")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns the subscriptions that accept notificationType.
// An empty notificationType returns every subscription.
func (s *gormStore) ListSubscriptions(ctx context.Context, notificationType string) ([]model.PushSubscription, error) {
	q := s.db.WithContext(ctx)
	if notificationType != "" {
		q = q.Where("types = ? OR (',' || types || ',') LIKE ?", "", "%,"+notificationType+",%")
	}
	var subs []model.PushSubscription
	if err := q.Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// ArchiveSession journals a finished session. Archiving the same session
// twice keeps the first row.
func (s *gormStore) ArchiveSession(ctx context.Context, sess state.Session) error {
	if sess.EndTime == nil {
		return apperr.Invalid("endTime", "session has not ended")
	}
	record := model.SessionRecord{
		ID:              sess.ID,
		StartedAt:       sess.StartTime,
		EndedAt:         *sess.EndTime,
		Duration:        sess.Duration,
		Distance:        sess.Distance,
		DistanceCovered: sess.DistanceCovered,
		BatteryUsage:    sess.BatteryUsage,
		Lat:             sess.Location.Lat,
		Lng:             sess.Location.Lng,
		ArchivedAt:      s.now(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to archive session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *gormStore) ArchiveNotification(ctx context.Context, n state.Notification) error {
	record := model.NotificationRecord{
		ID:         n.ID,
		Timestamp:  n.Timestamp,
		Type:       string(n.Type),
		Message:    n.Message,
		ArchivedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to archive notification %s: %w", n.ID, err)
	}
	return nil
}

// ListSessions returns archived sessions, newest first.
func (s *gormStore) ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error) {
	var records []model.SessionRecord
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(normalizeLimit(limit)).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return records, nil
}

// ListNotifications returns archived notifications, newest first, optionally
// filtered by type.
func (s *gormStore) ListNotifications(ctx context.Context, notificationType string, limit int) ([]model.NotificationRecord, error) {
	q := s.db.WithContext(ctx)
	if notificationType != "" {
		q = q.Where("type = ?", notificationType)
	}
	var records []model.NotificationRecord
	if err := q.Order("timestamp DESC").Limit(normalizeLimit(limit)).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return records, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultListLimit
	}
	return limit
}
