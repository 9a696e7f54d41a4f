package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mower-status-backend/internal/state"
)

type fakePoster struct {
	calls int
	err   error
}

func (f *fakePoster) PostMessageContext(_ context.Context, _ string, _ ...slack.MsgOption) (string, string, error) {
	f.calls++
	return "C1", "1700000000.000100", f.err
}

func TestIsRateLimitError(t *testing.T) {
	client := &Client{}

	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "message_limit_exceeded error", err: errors.New("message_limit_exceeded"), expected: true},
		{name: "rate_limited error", err: errors.New("rate_limited"), expected: true},
		{name: "too_many_requests error", err: errors.New("too_many_requests"), expected: true},
		{name: "typed rate limit error", err: &slack.RateLimitedError{RetryAfter: time.Second}, expected: true},
		{name: "other error", err: errors.New("some other error"), expected: false},
		{name: "case insensitive", err: errors.New("MESSAGE_LIMIT_EXCEEDED"), expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, client.isRateLimitError(tc.err))
		})
	}
}

func TestHandleRateLimit(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	client := newClient(&fakePoster{}, "C1")
	client.now = func() time.Time { return now }

	client.handleRateLimit(errors.New("message_limit_exceeded"))
	assert.Equal(t, now.Add(5*time.Minute), client.backoffUntil)

	client.handleRateLimit(errors.New("rate_limited"))
	assert.Equal(t, now.Add(time.Minute), client.backoffUntil)

	client.handleRateLimit(&slack.RateLimitedError{RetryAfter: 30 * time.Second})
	assert.Equal(t, now.Add(30*time.Second), client.backoffUntil)
}

func TestDeliver_BacksOffAfterRateLimit(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	api := &fakePoster{err: &slack.RateLimitedError{RetryAfter: time.Minute}}
	client := newClient(api, "C1")
	client.now = func() time.Time { return now }

	n := state.Notification{ID: "n1", Type: state.NotificationWarning, Message: "Obstacle detected", Timestamp: now}

	err := client.Deliver(context.Background(), n)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.True(t, client.IsRateLimited())

	err = client.Deliver(context.Background(), n)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, api.calls, "messages during backoff are not posted")

	api.err = nil
	now = now.Add(2 * time.Minute)
	require.NoError(t, client.Deliver(context.Background(), n))
	assert.Equal(t, 2, api.calls)
}

func TestDeliver_OtherErrorsAreWrapped(t *testing.T) {
	client := newClient(&fakePoster{err: errors.New("channel_not_found")}, "C1")

	err := client.Deliver(context.Background(), state.Notification{Type: state.NotificationInfo})
	assert.ErrorContains(t, err, "channel_not_found")
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.False(t, client.IsRateLimited())
}

func TestNewClient_Unconfigured(t *testing.T) {
	client := NewClient("", "C1")
	assert.Nil(t, client)
	assert.False(t, client.IsRateLimited())
	assert.NoError(t, client.Deliver(context.Background(), state.Notification{}))
}

func TestNotificationMessage(t *testing.T) {
	opts := NotificationMessage(state.Notification{Type: state.NotificationError, Message: "Battery level critical"})
	assert.Len(t, opts, 2)
	assert.Equal(t, ":rotating_light:", emoji(state.NotificationError))
	assert.Equal(t, ":information_source:", emoji(state.NotificationInfo))
}
