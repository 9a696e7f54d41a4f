package mockapi

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mower-status-backend/internal/apperr"
	"mower-status-backend/internal/logging"
)

// Client is the backend contract the dashboard talks to.
type Client interface {
	GetMower(ctx context.Context, id string) (Mower, error)
	GetMowerMessages(ctx context.Context, id string) ([]Message, error)
	GetStayOutZones(ctx context.Context, id string) ([]StayOutZone, error)
	GetWorkAreas(ctx context.Context, id string) ([]WorkArea, error)
	GetDetailedWorkArea(ctx context.Context, mowerID, areaID string) (DetailedWorkArea, error)
	StartMowing(ctx context.Context, mowerID, areaID string) (Result, error)
	StopMowing(ctx context.Context, mowerID string) (Result, error)
	UpdateWorkArea(ctx context.Context, mowerID, areaID string, u WorkAreaUpdate) (WorkArea, error)
	UpdateStayOutZone(ctx context.Context, mowerID, zoneID string, u StayOutZoneUpdate) (StayOutZone, error)
}

// Options tune the simulated backend.
type Options struct {
	Latency time.Duration
	// FailureRate is the probability in [0,1] that a call fails with ErrNetworkSimulated.
	FailureRate float64
	Rand        *rand.Rand
}

// Service serves fixture data with simulated latency. Fixtures are read-only:
// updates return merged copies and never modify the fixtures.
type Service struct {
	opts     Options
	fixtures fixtures
	logger   *logrus.Entry

	randMu sync.Mutex
}

// NewService builds the fixture backend, stamping fixture times relative to now.
func NewService(opts Options, now time.Time) *Service {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x6d6f776572))
	}
	return &Service{
		opts:     opts,
		fixtures: newFixtures(now),
		logger:   logging.NewLogger("mockapi"),
	}
}

// call waits out the latency and applies failure injection.
func (s *Service) call(ctx context.Context, op string) error {
	if s.opts.Latency > 0 {
		timer := time.NewTimer(s.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if s.opts.FailureRate > 0 {
		s.randMu.Lock()
		roll := s.opts.Rand.Float64()
		s.randMu.Unlock()
		if roll < s.opts.FailureRate {
			s.logger.WithField("op", op).Debug("injecting simulated failure")
			return fmt.Errorf("%s: %w", op, apperr.ErrNetworkSimulated)
		}
	}
	return nil
}

// GetMower returns the mower or a NotFound error.
func (s *Service) GetMower(ctx context.Context, id string) (Mower, error) {
	if err := s.call(ctx, "getMower"); err != nil {
		return Mower{}, err
	}
	m, ok := s.fixtures.mowers[id]
	if !ok {
		return Mower{}, apperr.NotFound("Mower")
	}
	return m, nil
}

// GetMowerMessages returns the message log, empty when there is none.
func (s *Service) GetMowerMessages(ctx context.Context, id string) ([]Message, error) {
	if err := s.call(ctx, "getMowerMessages"); err != nil {
		return nil, err
	}
	return cloneOrEmpty(s.fixtures.messages[id]), nil
}

// GetStayOutZones returns the mower's stay-out zones.
func (s *Service) GetStayOutZones(ctx context.Context, id string) ([]StayOutZone, error) {
	if err := s.call(ctx, "getStayOutZones"); err != nil {
		return nil, err
	}
	return cloneOrEmpty(s.fixtures.zones[id]), nil
}

// GetWorkAreas returns the mower's work areas.
func (s *Service) GetWorkAreas(ctx context.Context, id string) ([]WorkArea, error) {
	if err := s.call(ctx, "getWorkAreas"); err != nil {
		return nil, err
	}
	return cloneOrEmpty(s.fixtures.areas[id]), nil
}

// GetDetailedWorkArea returns completion data for one work area.
func (s *Service) GetDetailedWorkArea(ctx context.Context, mowerID, areaID string) (DetailedWorkArea, error) {
	if err := s.call(ctx, "getDetailedWorkArea"); err != nil {
		return DetailedWorkArea{}, err
	}
	area, ok := s.fixtures.detailed[mowerID][areaID]
	if !ok {
		return DetailedWorkArea{}, apperr.NotFound("Work area")
	}
	return area, nil
}

// StartMowing acknowledges a start command for a work area.
func (s *Service) StartMowing(ctx context.Context, mowerID, areaID string) (Result, error) {
	if err := s.call(ctx, "startMowing"); err != nil {
		return Result{}, err
	}
	s.logger.WithFields(logrus.Fields{"mower": mowerID, "work_area": areaID}).Info("start mowing requested")
	return Result{Success: true, Message: "Started mowing in work area " + areaID}, nil
}

// StopMowing acknowledges a stop command.
func (s *Service) StopMowing(ctx context.Context, mowerID string) (Result, error) {
	if err := s.call(ctx, "stopMowing"); err != nil {
		return Result{}, err
	}
	s.logger.WithField("mower", mowerID).Info("stop mowing requested")
	return Result{Success: true, Message: "Mower stopped successfully"}, nil
}

// UpdateWorkArea returns the work area merged with u.
func (s *Service) UpdateWorkArea(ctx context.Context, mowerID, areaID string, u WorkAreaUpdate) (WorkArea, error) {
	if err := s.call(ctx, "updateWorkArea"); err != nil {
		return WorkArea{}, err
	}
	idx := slices.IndexFunc(s.fixtures.areas[mowerID], func(a WorkArea) bool { return a.ID == areaID })
	if idx < 0 {
		return WorkArea{}, apperr.NotFound("Work area")
	}
	area := s.fixtures.areas[mowerID][idx]
	if u.Name != nil {
		area.Name = *u.Name
	}
	if u.Boundary != nil {
		area.Boundary = slices.Clone(*u.Boundary)
	}
	if u.Size != nil {
		area.Size = *u.Size
	}
	if u.MowingFrequency != nil {
		area.MowingFrequency = *u.MowingFrequency
	}
	if u.Priority != nil {
		area.Priority = *u.Priority
	}
	return area, nil
}

// UpdateStayOutZone returns the zone merged with u.
func (s *Service) UpdateStayOutZone(ctx context.Context, mowerID, zoneID string, u StayOutZoneUpdate) (StayOutZone, error) {
	if err := s.call(ctx, "updateStayOutZone"); err != nil {
		return StayOutZone{}, err
	}
	idx := slices.IndexFunc(s.fixtures.zones[mowerID], func(z StayOutZone) bool { return z.ID == zoneID })
	if idx < 0 {
		return StayOutZone{}, apperr.NotFound("Stay out zone")
	}
	zone := s.fixtures.zones[mowerID][idx]
	if u.Name != nil {
		zone.Name = *u.Name
	}
	if u.Points != nil {
		zone.Points = slices.Clone(*u.Points)
	}
	if u.Active != nil {
		zone.Active = *u.Active
	}
	return zone, nil
}

// LoadDetails fetches the mower, its messages, zones and work areas
// concurrently. The first failure cancels the rest and is returned.
func LoadDetails(ctx context.Context, c Client, mowerID string) (Details, error) {
	var d Details
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := c.GetMower(gctx, mowerID)
		d.Mower = m
		return err
	})
	g.Go(func() error {
		msgs, err := c.GetMowerMessages(gctx, mowerID)
		d.Messages = msgs
		return err
	})
	g.Go(func() error {
		zones, err := c.GetStayOutZones(gctx, mowerID)
		d.Zones = zones
		return err
	})
	g.Go(func() error {
		areas, err := c.GetWorkAreas(gctx, mowerID)
		d.WorkAreas = areas
		return err
	})

	if err := g.Wait(); err != nil {
		return Details{}, fmt.Errorf("failed to load mower details: %w", err)
	}
	return d, nil
}

func cloneOrEmpty[T any](in []T) []T {
	if len(in) == 0 {
		return []T{}
	}
	return slices.Clone(in)
}

var _ Client = (*Service)(nil)
