package telemetry

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mower-status-backend/internal/state"
)

// recordingStore wraps a real store and remembers every dispatched action.
type recordingStore struct {
	*state.Store

	mu      sync.Mutex
	actions []state.Action
}

func (r *recordingStore) Dispatch(a state.Action) state.MowerState {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	return r.Store.Dispatch(a)
}

func (r *recordingStore) recorded() []state.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.Action(nil), r.actions...)
}

func newDriver(t *testing.T, probability float64) (*Driver, *recordingStore) {
	t.Helper()
	store := &recordingStore{Store: state.NewStore()}
	cfg := Config{Enabled: true, Interval: 5 * time.Millisecond, BatteryFloor: 20, NotificationProbability: probability}
	return NewDriver(cfg, store, rand.New(rand.NewPCG(7, 11))), store
}

func TestTickOnce_BatteryNeverBelowFloor(t *testing.T) {
	driver, store := newDriver(t, 0)

	for range 200 {
		driver.TickOnce(context.Background())
	}

	actions := store.recorded()
	require.Len(t, actions, 200, "no session and no notifications means battery only")
	for _, a := range actions {
		b, ok := a.(state.UpdateBatteryLevel)
		require.True(t, ok)
		assert.GreaterOrEqual(t, b.Level, 20)
		assert.Less(t, b.Level, 100)
	}
	assert.Len(t, store.State().BatteryHistory, 200)
}

func TestTickOnce_UpdatesCurrentSession(t *testing.T) {
	driver, store := newDriver(t, 0)

	first := store.Dispatch(state.StartSession{}).CurrentSessionID
	driver.TickOnce(context.Background())

	second := store.Dispatch(state.StartSession{}).CurrentSessionID
	driver.TickOnce(context.Background())

	var updated []string
	for _, a := range store.recorded() {
		if u, ok := a.(state.UpdateCurrentSession); ok {
			updated = append(updated, u.ID)
			require.NotNil(t, u.Updates.Duration)
			require.NotNil(t, u.Updates.Distance)
			assert.Less(t, *u.Updates.Duration, 120)
			assert.Less(t, *u.Updates.Distance, 500.0)
		}
	}
	assert.Equal(t, []string{first, second}, updated, "the session id is read at every tick")
}

// endingStore ends the active session right after handing out a snapshot,
// as a concurrent API request would.
type endingStore struct {
	*state.Store
	ended bool
}

func (e *endingStore) State() state.MowerState {
	snapshot := e.Store.State()
	if _, ok := snapshot.CurrentSession(); ok && !e.ended {
		e.ended = true
		e.Store.Dispatch(state.EndSession{})
	}
	return snapshot
}

func TestTickOnce_SessionEndedBetweenReadAndWrite(t *testing.T) {
	store := &endingStore{Store: state.NewStore()}
	cfg := Config{Enabled: true, Interval: time.Second, BatteryFloor: 20}
	driver := NewDriver(cfg, store, rand.New(rand.NewPCG(7, 11)))

	id := store.Dispatch(state.StartSession{}).CurrentSessionID
	driver.TickOnce(context.Background())

	require.True(t, store.ended)
	ended, ok := store.Store.State().Session(id)
	require.True(t, ok)
	assert.NotNil(t, ended.EndTime)
	assert.Zero(t, ended.Duration, "ended session keeps its final figures")
	assert.Zero(t, ended.Distance)
}

func TestTickOnce_NotificationsComeFromPool(t *testing.T) {
	driver, store := newDriver(t, 1)

	for range 30 {
		driver.TickOnce(context.Background())
	}

	notes := store.State().Notifications
	require.Len(t, notes, 30)
	allowed := map[string]state.NotificationType{
		"Obstacle detected":      state.NotificationWarning,
		"Entering new zone":      state.NotificationInfo,
		"Battery level critical": state.NotificationError,
	}
	for _, n := range notes {
		kind, ok := allowed[n.Message]
		require.True(t, ok, n.Message)
		assert.Equal(t, kind, n.Type)
	}
}

func TestTickOnce_CancelledContextDispatchesNothing(t *testing.T) {
	driver, store := newDriver(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver.TickOnce(ctx)
	assert.Empty(t, store.recorded())
}

func TestRun_StopsOnCancel(t *testing.T) {
	driver, store := newDriver(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		driver.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(store.recorded()) >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not stop")
	}

	n := len(store.recorded())
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, store.recorded(), n, "no dispatch after the driver stopped")
}

func TestRun_Disabled(t *testing.T) {
	store := &recordingStore{Store: state.NewStore()}
	NewDriver(Config{Enabled: false, Interval: time.Millisecond}, store, nil).Run(context.Background())
	assert.Empty(t, store.recorded())
}
