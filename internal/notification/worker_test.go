package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mower-status-backend/internal/metrics"
	"mower-status-backend/internal/state"
	"mower-status-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// recordingSink collects deliveries.
type recordingSink struct {
	mu   sync.Mutex
	got  []state.Notification
	err  error
	done chan struct{}
}

func newRecordingSink(err error) *recordingSink {
	return &recordingSink{err: err, done: make(chan struct{}, 16)}
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Deliver(_ context.Context, n state.Notification) error {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
	r.done <- struct{}{}
	return r.err
}

func (r *recordingSink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, 1, nil)

	assert.True(t, wp.Dispatch(state.Notification{ID: "n1"}))
	assert.False(t, wp.Dispatch(state.Notification{ID: "n2"}), "full queue drops instead of blocking")

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, "n1", job.ID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DeliversToEverySink(t *testing.T) {
	m := metrics.New()
	ok := newRecordingSink(nil)
	failing := &failingSink{recordingSink: newRecordingSink(errors.New("unreachable"))}
	wp := NewWorkerPool(2, 8, m, ok, failing)

	ctx, cancel := context.WithCancel(context.Background())
	wp.Start(ctx)

	wp.Dispatch(state.Notification{ID: "n1", Type: state.NotificationInfo})
	ok.wait(t, 1)
	failing.wait(t, 1)

	cancel()
	wp.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries.WithLabelValues("recording", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries.WithLabelValues("failing", "error")))
}

type failingSink struct{ *recordingSink }

func (f *failingSink) Name() string { return "failing" }

func TestWorkerPool_ListenerHonoursSettings(t *testing.T) {
	wp := NewWorkerPool(1, 8, nil)
	st := state.NewStore()
	st.Subscribe(wp.Listener())

	st.Dispatch(state.AddNotification{Kind: state.NotificationInfo, Message: "Entering new zone"})
	require.Len(t, wp.Jobs(), 1)
	<-wp.Jobs()

	disabled := false
	st.Dispatch(state.UpdateSettings{Updates: state.SettingsUpdate{NotificationsEnabled: &disabled}})
	st.Dispatch(state.AddNotification{Kind: state.NotificationInfo, Message: "Entering new zone"})
	st.Dispatch(state.UpdateBatteryLevel{Level: 5})
	assert.Empty(t, wp.Jobs(), "nothing is pushed while notifications are disabled")
	assert.Len(t, st.State().Notifications, 3, "the state still records them")
}

func TestWebPushSink_Deliver(t *testing.T) {
	n := state.Notification{
		ID:        "n1",
		Type:      state.NotificationWarning,
		Message:   "Obstacle detected",
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("sends notification for one subscription", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewWebPushSink(store.NewGormStore(gormDB), &webpush.Options{})

		var sent int
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				sent++
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)

				var p Payload
				require.NoError(t, json.Unmarshal(payload, &p))
				assert.Equal(t, "Obstacle detected", p.Body)
				assert.Equal(t, "warning", p.Type)
				return response(http.StatusCreated), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE types = \$1 OR`).
			WithArgs("", "%,warning,%").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "types", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", "warning", time.Now()))

		assert.NoError(t, sink.Deliver(context.Background(), n))
		assert.Equal(t, 1, sent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewWebPushSink(store.NewGormStore(gormDB), &webpush.Options{})
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return response(http.StatusGone), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "types", "created_at"}).
				AddRow("https://example.com/expired", "k", "a", "", time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		assert.NoError(t, sink.Deliver(context.Background(), n))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("collects send errors", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewWebPushSink(store.NewGormStore(gormDB), &webpush.Options{})
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				if sub.Endpoint == "https://example.com/a" {
					return nil, errors.New("dial tcp: timeout")
				}
				return response(http.StatusBadRequest), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "types", "created_at"}).
				AddRow("https://example.com/a", "k", "a", "", time.Now()).
				AddRow("https://example.com/b", "k", "a", "", time.Now()))

		err := sink.Deliver(context.Background(), n)
		assert.ErrorContains(t, err, "dial tcp: timeout")
		assert.ErrorContains(t, err, "status 400")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips subscriptions filtering out the type", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewWebPushSink(store.NewGormStore(gormDB), &webpush.Options{})

		var sent []string
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				sent = append(sent, sub.Endpoint)
				return response(http.StatusCreated), nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "types", "created_at"}).
				AddRow("https://example.com/info", "k", "a", "info", time.Now()).
				AddRow("https://example.com/warn", "k", "a", "warn", time.Now()).
				AddRow("https://example.com/alerts", "k", "a", "warning,error", time.Now()))

		assert.NoError(t, sink.Deliver(context.Background(), n))
		assert.Equal(t, []string{"https://example.com/alerts"}, sent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no subscriptions sends nothing", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewWebPushSink(store.NewGormStore(gormDB), &webpush.Options{})
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Fatal("unexpected send")
				return nil, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint"}))

		assert.NoError(t, sink.Deliver(context.Background(), n))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
