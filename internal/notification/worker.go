package notification

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/metrics"
	"mower-status-backend/internal/state"
)

// Sink delivers a notification to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n state.Notification) error
}

// WorkerPool manages a pool of workers fanning notifications out to sinks.
type WorkerPool struct {
	size    int
	jobs    chan state.Notification
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *logrus.Entry

	wg sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. m may be nil.
func NewWorkerPool(size, queueSize int, m *metrics.Metrics, sinks ...Sink) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan state.Notification, queueSize),
		sinks:   sinks,
		metrics: m,
		logger:  logging.NewLogger("notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := wp.logger.WithField("worker", id)
	log.Debug("worker started")
	for {
		select {
		case n := <-wp.jobs:
			log.WithField("notification", n.ID).Debug("processing notification")
			wp.deliver(ctx, n)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Dispatch queues n without blocking. It reports false when the queue is
// full and the notification was dropped.
func (wp *WorkerPool) Dispatch(n state.Notification) bool {
	select {
	case wp.jobs <- n:
		return true
	default:
		wp.logger.WithFields(logrus.Fields{"notification": n.ID, "type": n.Type}).Warn("notification queue full, dropping")
		wp.record("queue", "dropped")
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan state.Notification {
	return wp.jobs
}

// Listener enqueues every notification a transition adds while
// notifications are enabled in the settings.
func (wp *WorkerPool) Listener() state.Listener {
	return func(c state.Change) {
		if len(c.Outcome.Added) == 0 || !c.Next.Settings.NotificationsEnabled {
			return
		}
		for _, n := range c.Outcome.Added {
			wp.Dispatch(n)
		}
	}
}

func (wp *WorkerPool) deliver(ctx context.Context, n state.Notification) {
	for _, sink := range wp.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			wp.logger.WithError(err).WithFields(logrus.Fields{
				"sink":         sink.Name(),
				"notification": n.ID,
			}).Error("notification delivery failed")
			wp.record(sink.Name(), "error")
			continue
		}
		wp.record(sink.Name(), "ok")
	}
}

func (wp *WorkerPool) record(sink, result string) {
	if wp.metrics != nil {
		wp.metrics.Deliveries.WithLabelValues(sink, result).Inc()
	}
}
