package mockapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mower-status-backend/internal/apperr"
)

func newTestService() *Service {
	return NewService(Options{}, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestService_Reads(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	m, err := svc.GetMower(ctx, "mower-1")
	require.NoError(t, err)
	assert.Equal(t, "Front Yard Mower", m.Name)

	_, err = svc.GetMower(ctx, "mower-9")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	msgs, err := svc.GetMowerMessages(ctx, "mower-1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	empty, err := svc.GetMowerMessages(ctx, "mower-2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	area, err := svc.GetDetailedWorkArea(ctx, "mower-1", "area-1")
	require.NoError(t, err)
	assert.Equal(t, float64(85), area.CompletionRate)

	_, err = svc.GetDetailedWorkArea(ctx, "mower-1", "area-7")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_Commands(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	res, err := svc.StartMowing(ctx, "mower-1", "area-1")
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, Message: "Started mowing in work area area-1"}, res)

	res, err = svc.StopMowing(ctx, "mower-1")
	require.NoError(t, err)
	assert.Equal(t, "Mower stopped successfully", res.Message)
}

func TestService_UpdatesReturnMergedCopies(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	name := "Back Lawn"
	updated, err := svc.UpdateWorkArea(ctx, "mower-1", "area-1", WorkAreaUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Back Lawn", updated.Name)
	assert.Equal(t, float64(500), updated.Size)

	areas, err := svc.GetWorkAreas(ctx, "mower-1")
	require.NoError(t, err)
	assert.Equal(t, "Main Lawn", areas[0].Name, "fixture is not mutated")

	_, err = svc.UpdateWorkArea(ctx, "mower-2", "area-1", WorkAreaUpdate{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	inactive := false
	zone, err := svc.UpdateStayOutZone(ctx, "mower-1", "zone-1", StayOutZoneUpdate{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, zone.Active)
	assert.Equal(t, "Flower Bed", zone.Name)

	_, err = svc.UpdateStayOutZone(ctx, "mower-1", "zone-9", StayOutZoneUpdate{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_LatencyRespectsContext(t *testing.T) {
	svc := NewService(Options{Latency: time.Minute}, time.Now())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.GetMower(ctx, "mower-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_FailureInjection(t *testing.T) {
	svc := NewService(Options{FailureRate: 1, Rand: rand.New(rand.NewPCG(1, 2))}, time.Now())
	_, err := svc.GetWorkAreas(context.Background(), "mower-1")
	assert.ErrorIs(t, err, apperr.ErrNetworkSimulated)
}

func TestLoadDetails(t *testing.T) {
	svc := NewService(Options{Latency: 20 * time.Millisecond}, time.Now())

	start := time.Now()
	d, err := LoadDetails(context.Background(), svc, "mower-1")
	require.NoError(t, err)

	assert.Equal(t, "mower-1", d.Mower.ID)
	assert.Len(t, d.Messages, 2)
	assert.Len(t, d.Zones, 1)
	assert.Len(t, d.WorkAreas, 1)
	assert.Less(t, time.Since(start), 4*20*time.Millisecond, "calls run concurrently")
}

func TestLoadDetails_UnknownMower(t *testing.T) {
	_, err := LoadDetails(context.Background(), newTestService(), "mower-9")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// failingClient fails GetMower immediately and blocks the other reads until
// their context is cancelled.
type failingClient struct {
	*Service
	cancelled atomic.Int32
}

func (f *failingClient) GetMower(ctx context.Context, id string) (Mower, error) {
	return Mower{}, errors.New("boom")
}

func (f *failingClient) GetMowerMessages(ctx context.Context, id string) ([]Message, error) {
	<-ctx.Done()
	f.cancelled.Add(1)
	return nil, ctx.Err()
}

func TestLoadDetails_FirstErrorAborts(t *testing.T) {
	client := &failingClient{Service: newTestService()}

	_, err := LoadDetails(context.Background(), client, "mower-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int32(1), client.cancelled.Load())
}
