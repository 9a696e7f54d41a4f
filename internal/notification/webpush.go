package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/model"
	"mower-status-backend/internal/state"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is the subscription storage the web push sink reads.
type Subscriptions interface {
	ListSubscriptions(ctx context.Context, notificationType string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Payload is the JSON body pushed to browsers.
type Payload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// WebPushSink pushes notifications to every matching browser subscription.
type WebPushSink struct {
	subs    Subscriptions
	options *webpush.Options
	sender  NotificationSender
	logger  *logrus.Entry
}

// NewWebPushSink creates a sink using the real webpush sender.
func NewWebPushSink(subs Subscriptions, options *webpush.Options) *WebPushSink {
	return &WebPushSink{
		subs:    subs,
		options: options,
		sender:  &WebPushSender{},
		logger:  logging.NewLogger("webpush"),
	}
}

func (s *WebPushSink) Name() string { return "webpush" }

// Deliver sends n to each subscription accepting its type. Expired
// subscriptions (410 Gone) are deleted.
func (s *WebPushSink) Deliver(ctx context.Context, n state.Notification) error {
	listed, err := s.subs.ListSubscriptions(ctx, string(n.Type))
	if err != nil {
		return fmt.Errorf("error fetching subscriptions: %w", err)
	}
	// Re-check each type list exactly in case the store filters loosely.
	subscriptions := make([]model.PushSubscription, 0, len(listed))
	for _, sub := range listed {
		if sub.Accepts(string(n.Type)) {
			subscriptions = append(subscriptions, sub)
		}
	}
	if len(subscriptions) == 0 {
		return nil
	}

	payload, err := json.Marshal(Payload{
		ID:        n.ID,
		Title:     "Mower " + string(n.Type),
		Body:      n.Message,
		Type:      string(n.Type),
		Timestamp: n.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("error encoding payload: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"count": len(subscriptions), "notification": n.ID}).Debug("sending push notifications")
	var errs []error
	for _, sub := range subscriptions {
		if err := s.send(ctx, sub, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// send sends a single web push notification.
func (s *WebPushSink) send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := s.sender.Send(payload, wpSub, s.options)
	if err != nil {
		return fmt.Errorf("error sending notification to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		s.logger.WithField("endpoint", sub.Endpoint).Info("subscription is expired, deleting")
		if err := s.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			return fmt.Errorf("failed to delete expired subscription %s: %w", sub.Endpoint, err)
		}
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service rejected %s with status %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}
