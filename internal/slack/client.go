package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/state"
)

// ErrRateLimited is returned while the client is backing off.
var ErrRateLimited = errors.New("slack: rate limited")

type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Client posts mower notifications to a Slack channel.
type Client struct {
	api       poster
	channelID string
	logger    *logrus.Entry
	now       func() time.Time

	mu           sync.Mutex
	backoffUntil time.Time
}

// NewClient creates a new slack client. It returns nil when the token or
// channel is not configured.
func NewClient(token, channelID string) *Client {
	logger := logging.NewLogger("slack")
	if token == "" || channelID == "" {
		logger.Info("Slack token or channel ID is not configured, Slack notifications are disabled")
		return nil
	}
	return newClient(slack.New(token), channelID)
}

func newClient(api poster, channelID string) *Client {
	return &Client{
		api:       api,
		channelID: channelID,
		logger:    logging.NewLogger("slack"),
		now:       time.Now,
	}
}

// Name identifies the sink in metrics.
func (c *Client) Name() string { return "slack" }

// Deliver posts n as a block kit message. Messages sent during a backoff
// period are dropped with ErrRateLimited.
func (c *Client) Deliver(ctx context.Context, n state.Notification) error {
	if c == nil || c.api == nil {
		return nil
	}
	if c.IsRateLimited() {
		return ErrRateLimited
	}

	_, _, err := c.api.PostMessageContext(ctx, c.channelID, NotificationMessage(n)...)
	if err == nil {
		return nil
	}
	if c.isRateLimitError(err) {
		c.handleRateLimit(err)
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("failed to post Slack message: %w", err)
}

// IsRateLimited returns true if the client is currently in a rate limit backoff period.
func (c *Client) IsRateLimited() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.backoffUntil)
}

// isRateLimitError checks if the error is related to rate limiting.
func (c *Client) isRateLimitError(err error) bool {
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate_limited") ||
		strings.Contains(errStr, "message_limit_exceeded") ||
		strings.Contains(errStr, "too_many_requests")
}

// handleRateLimit starts a backoff period. Slack's Retry-After wins when
// present; message_limit_exceeded backs off longer than plain rate limits.
func (c *Client) handleRateLimit(err error) {
	backoff := time.Minute
	var rle *slack.RateLimitedError
	switch {
	case errors.As(err, &rle) && rle.RetryAfter > 0:
		backoff = rle.RetryAfter
	case strings.Contains(strings.ToLower(err.Error()), "message_limit_exceeded"):
		backoff = 5 * time.Minute
	}

	c.mu.Lock()
	c.backoffUntil = c.now().Add(backoff)
	c.mu.Unlock()
	c.logger.WithError(err).WithField("backoff", backoff).Warn("Slack rate limit detected, suppressing messages")
}

// NotificationMessage renders n as Slack block kit options.
func NotificationMessage(n state.Notification) []slack.MsgOption {
	title := fmt.Sprintf("%s *%s*", emoji(n.Type), strings.ToUpper(string(n.Type)))
	body := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, title+"\n"+n.Message, false, false),
		nil, nil,
	)
	footer := slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.PlainTextType, n.Timestamp.UTC().Format(time.RFC3339), false, false),
	)
	return []slack.MsgOption{
		slack.MsgOptionText(n.Message, false),
		slack.MsgOptionBlocks(body, footer),
	}
}

func emoji(t state.NotificationType) string {
	switch t {
	case state.NotificationWarning:
		return ":warning:"
	case state.NotificationError:
		return ":rotating_light:"
	case state.NotificationSuccess:
		return ":white_check_mark:"
	default:
		return ":information_source:"
	}
}
