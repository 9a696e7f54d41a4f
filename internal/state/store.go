package state

import (
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/metrics"
)

// Change is delivered to subscribers after every committed dispatch.
type Change struct {
	Action  Action
	Prev    MowerState
	Next    MowerState
	Outcome Outcome
}

// Listener observes committed changes. Listeners run on the dispatching
// goroutine after the store lock is released.
type Listener func(Change)

type subscriber struct {
	id int
	l  Listener
}

// Store owns the mower state tree. Dispatches are serialised; each one runs
// to completion before the next starts.
type Store struct {
	mu      sync.Mutex
	state   MowerState
	reducer *Reducer

	listenersMu sync.RWMutex
	listeners   []subscriber
	nextID      int

	logger  *logrus.Entry
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithReducer swaps the reducer, typically for a deterministic clock.
func WithReducer(r *Reducer) Option {
	return func(s *Store) { s.reducer = r }
}

// WithInitialState replaces the default boot state.
func WithInitialState(st MowerState) Option {
	return func(s *Store) { s.state = st }
}

// WithMetrics records dispatch counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a Store seeded with InitialState.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:   InitialState(time.Now().UTC()),
		reducer: NewReducer(),
		logger:  logging.NewLogger("state"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() MowerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and returns the resulting snapshot.
func (s *Store) Dispatch(a Action) MowerState {
	next, _ := s.Apply(a)
	return next
}

// Apply is Dispatch that also reports the transition outcome.
func (s *Store) Apply(a Action) (MowerState, Outcome) {
	s.mu.Lock()
	prev := s.state
	next, out := s.reducer.Apply(prev, a)
	s.state = next
	s.mu.Unlock()

	s.observe(a, next, out)

	change := Change{Action: a, Prev: prev, Next: next, Outcome: out}
	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()
	for _, sub := range listeners {
		sub.l(change)
	}
	return next, out
}

// Subscribe registers l and returns a function that removes it. Listeners
// are called in the order they subscribed.
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscriber{id: id, l: l})
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscriber) bool { return sub.id == id })
	}
}

func (s *Store) observe(a Action, next MowerState, out Outcome) {
	fields := logrus.Fields{"action": a.Type()}

	if s.metrics != nil {
		s.metrics.Actions.WithLabelValues(a.Type()).Inc()
		s.metrics.BatteryLevel.Set(float64(next.BatteryLevel))
		for _, n := range out.Added {
			s.metrics.Notifications.WithLabelValues(string(n.Type)).Inc()
		}
		if out.Noop {
			s.metrics.Noops.WithLabelValues(a.Type(), out.Reason).Inc()
		}
	}

	switch {
	case out.Noop:
		fields["reason"] = out.Reason
		s.logger.WithFields(fields).Warn("action left state unchanged")
	case out.Note != "":
		s.logger.WithFields(fields).Info(out.Note)
	default:
		s.logger.WithFields(fields).Debug("action applied")
	}
}
