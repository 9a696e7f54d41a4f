package schedule

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/parse"
	"mower-status-backend/internal/state"
)

const (
	tagSchedule = "mowing-schedule"
	tagStart    = "mowing-start"
	tagEnd      = "mowing-end"
)

// Store is the subset of the state store the executor needs.
type Store interface {
	State() state.MowerState
	Dispatch(a state.Action) state.MowerState
	Subscribe(l state.Listener) func()
}

// Executor turns the stored mowing schedule into gocron jobs that start and
// end sessions.
type Executor struct {
	store     Store
	scheduler *gocron.Scheduler
	logger    *logrus.Entry

	mu          sync.Mutex
	applied     *state.Schedule
	unsubscribe func()
}

// NewExecutor creates an executor running jobs in loc.
func NewExecutor(store Store, loc *time.Location) *Executor {
	return &Executor{
		store:     store,
		scheduler: gocron.NewScheduler(loc),
		logger:    logging.NewLogger("schedule"),
	}
}

// Start subscribes to schedule changes and begins job execution.
func (e *Executor) Start() {
	e.scheduler.StartAsync()
	e.unsubscribe = e.store.Subscribe(func(c state.Change) {
		if c.Outcome.Noop || c.Prev.Schedule == c.Next.Schedule {
			return
		}
		e.sync()
	})
	e.sync()
}

// Stop removes the subscription and halts the scheduler.
func (e *Executor) Stop() {
	e.logger.Info("stopping schedule executor")
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.scheduler.Stop()
}

// Jobs returns the currently registered jobs.
func (e *Executor) Jobs() []*gocron.Job {
	return e.scheduler.Jobs()
}

// sync replaces the registered jobs with the schedule currently in the store.
// Reading the store instead of the change lets concurrent updates converge on
// the latest schedule.
func (e *Executor) sync() {
	e.mu.Lock()
	defer e.mu.Unlock()

	latest := e.store.State().Schedule
	if sameSchedule(e.applied, latest) {
		return
	}

	if err := e.scheduler.RemoveByTag(tagSchedule); err != nil && !errors.Is(err, gocron.ErrJobNotFoundWithTag) {
		e.logger.WithError(err).Error("failed to remove previous schedule")
	}
	e.applied = nil

	if latest == nil {
		return
	}
	if err := e.register(*latest); err != nil {
		e.logger.WithError(err).Error("failed to register schedule")
		_ = e.scheduler.RemoveByTag(tagSchedule)
		return
	}
	e.applied = latest
	e.logger.WithFields(logrus.Fields{
		"start": latest.StartTime,
		"end":   latest.EndTime,
		"days":  latest.DaysOfWeek,
	}).Info("mowing schedule registered")
}

func (e *Executor) register(sched state.Schedule) error {
	parsed, err := parse.ParseSchedule(sched.StartTime, sched.EndTime, sched.DaysOfWeek)
	if err != nil {
		return err
	}

	endDays := parsed.Days
	if minutes(parsed.End) < minutes(parsed.Start) {
		// Overnight window: the end falls on the following day.
		endDays = make([]time.Weekday, len(parsed.Days))
		for i, d := range parsed.Days {
			endDays[i] = (d + 1) % 7
		}
	}

	if err := e.schedule(parsed.Days, parsed.Start, tagStart, e.startMowing); err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	if err := e.schedule(endDays, parsed.End, tagEnd, e.endMowing); err != nil {
		return fmt.Errorf("end job: %w", err)
	}
	return nil
}

func (e *Executor) schedule(days []time.Weekday, at parse.Clock, tag string, fn func()) error {
	s := e.scheduler.Every(1).Week()
	for _, d := range days {
		s = s.Weekday(d)
	}
	_, err := s.At(at.String()).Tag(tagSchedule, tag).Do(fn)
	return err
}

func (e *Executor) startMowing() {
	e.logger.Info("scheduled mowing window opened")
	e.store.Dispatch(state.StartSession{})
}

func (e *Executor) endMowing() {
	e.logger.Info("scheduled mowing window closed")
	e.store.Dispatch(state.EndSession{})
}

func minutes(c parse.Clock) int {
	return c.Hour*60 + c.Minute
}

func sameSchedule(a, b *state.Schedule) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartTime == b.StartTime && a.EndTime == b.EndTime && slices.Equal(a.DaysOfWeek, b.DaysOfWeek)
}
