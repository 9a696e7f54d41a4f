package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/state"
)

const archiveTimeout = 2 * time.Second

// Archiver writes ended sessions and emitted notifications through to the
// journal. It never feeds anything back into the state store.
type Archiver struct {
	store  Store
	logger *logrus.Entry
}

// NewArchiver creates an archiver backed by s.
func NewArchiver(s Store) *Archiver {
	return &Archiver{store: s, logger: logging.NewLogger("archive")}
}

// Listener returns the state listener performing the write-through.
func (a *Archiver) Listener() state.Listener {
	return func(c state.Change) {
		if c.Outcome.Noop {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if c.Outcome.Ended != nil {
			if err := a.store.ArchiveSession(ctx, *c.Outcome.Ended); err != nil {
				a.logger.WithError(err).WithField("session", c.Outcome.Ended.ID).Error("failed to archive session")
			}
		}
		for _, n := range c.Outcome.Added {
			if err := a.store.ArchiveNotification(ctx, n); err != nil {
				a.logger.WithError(err).WithField("notification", n.ID).Error("failed to archive notification")
			}
		}
	}
}
