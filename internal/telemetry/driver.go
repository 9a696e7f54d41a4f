package telemetry

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/state"
)

// Dispatcher is the subset of the state store the driver writes to.
type Dispatcher interface {
	State() state.MowerState
	Dispatch(a state.Action) state.MowerState
}

// Config tunes the simulated telemetry feed.
type Config struct {
	Enabled                 bool
	Interval                time.Duration
	BatteryFloor            int
	NotificationProbability float64
}

type simulated struct {
	kind    state.NotificationType
	message string
}

var notificationPool = []simulated{
	{state.NotificationWarning, "Obstacle detected"},
	{state.NotificationInfo, "Entering new zone"},
	{state.NotificationError, "Battery level critical"},
}

// Driver feeds simulated readings into the store on a fixed interval.
type Driver struct {
	cfg    Config
	store  Dispatcher
	logger *logrus.Entry

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewDriver creates a driver. A nil rnd seeds from the clock.
func NewDriver(cfg Config, store Dispatcher, rnd *rand.Rand) *Driver {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x74656c65))
	}
	return &Driver{
		cfg:    cfg,
		store:  store,
		logger: logging.NewLogger("telemetry"),
		rnd:    rnd,
	}
}

// Run ticks until ctx is done.
func (d *Driver) Run(ctx context.Context) {
	if !d.cfg.Enabled {
		d.logger.Info("telemetry driver is disabled, not starting")
		return
	}
	d.logger.WithField("interval", d.cfg.Interval).Info("starting telemetry driver")

	timer := time.NewTimer(d.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("telemetry driver shutting down")
			return
		case <-timer.C:
			d.TickOnce(ctx)
			timer.Reset(d.cfg.Interval)
		}
	}
}

// TickOnce performs a single round of simulated readings. Every dispatch is
// gated on ctx so a cancelled tick writes nothing further.
func (d *Driver) TickOnce(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	level := max(d.cfg.BatteryFloor, d.rnd.IntN(100))
	d.store.Dispatch(state.UpdateBatteryLevel{Level: level})

	if ctx.Err() != nil {
		return
	}
	if current, ok := d.store.State().CurrentSession(); ok {
		duration := d.rnd.IntN(120)
		distance := d.rnd.Float64() * 500
		// The session may end between the read and the write; the reducer
		// drops the update unless current.ID is still current.
		d.store.Dispatch(state.UpdateCurrentSession{
			ID:      current.ID,
			Updates: state.SessionUpdate{Duration: &duration, Distance: &distance},
		})
	}

	if ctx.Err() != nil {
		return
	}
	if d.rnd.Float64() < d.cfg.NotificationProbability {
		n := notificationPool[d.rnd.IntN(len(notificationPool))]
		d.store.Dispatch(state.AddNotification{Kind: n.kind, Message: n.message})
	}
}
