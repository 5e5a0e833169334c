package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/simulation"
	"github.com/hotelrm/backend-go/internal/snapshot"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	stored map[string]*domain.SimulationResult
	gets   int
	sets   int
	err    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: make(map[string]*domain.SimulationResult)}
}

func (c *fakeCache) key(req domain.SimulationRequest) string {
	return req.HotelID + "|" + req.Partner + "|" + req.StartDate.Format(domain.DateLayout)
}

func (c *fakeCache) Get(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, bool, error) {
	c.gets++
	if c.err != nil {
		return nil, false, c.err
	}
	result, ok := c.stored[c.key(req)]
	return result, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, req domain.SimulationRequest, result *domain.SimulationResult) error {
	c.sets++
	if c.err != nil {
		return c.err
	}
	c.stored[c.key(req)] = result
	return nil
}

func (c *fakeCache) InvalidateHotel(ctx context.Context, hotelID string) error { return nil }
func (c *fakeCache) InvalidateAll(ctx context.Context) error                   { return nil }

func serviceSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		HotelID:       "riviera",
		Version:       "v1",
		ProcessedFrom: "2025-06-01",
		ProcessedTo:   "2025-06-30",
		Rooms: map[string]*domain.RoomType{
			"Double": {
				Name:  "Double",
				Stock: map[string]int{"2025-06-01": 2},
				Plans: map[string]domain.PriceCalendar{
					"Flex": {"2025-06-01": decimal.NewFromInt(120)},
				},
			},
		},
		Partners: []*domain.Partner{
			{
				Name:            "Booking",
				Commission:      decimal.NewFromInt(15),
				DefaultDiscount: domain.DiscountRule{Percentage: decimal.NewFromInt(10)},
			},
		},
	}
}

func newService(t *testing.T, cacheImpl *fakeCache) *SimulationService {
	t.Helper()
	store := snapshot.NewMemoryStore()
	require.NoError(t, store.Replace(context.Background(), serviceSnapshot()))
	if cacheImpl == nil {
		return NewSimulationService(simulation.NewEngine(store), nil)
	}
	return NewSimulationService(simulation.NewEngine(store), cacheImpl)
}

func request() domain.SimulationRequest {
	start, _ := time.Parse(domain.DateLayout, "2025-06-01")
	return domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: start,
		EndDate:   start,
	}
}

func TestSimulatePopulatesCache(t *testing.T) {
	cacheImpl := newFakeCache()
	svc := newService(t, cacheImpl)

	result, err := svc.Simulate(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 1, cacheImpl.sets)

	// Second call is served from the cache.
	again, err := svc.Simulate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 1, cacheImpl.sets)
	assert.Equal(t, 2, cacheImpl.gets)
	assert.Equal(t, result.SnapshotVersion, again.SnapshotVersion)
}

func TestSimulateCacheFailureDegradesToCompute(t *testing.T) {
	cacheImpl := newFakeCache()
	cacheImpl.err = errors.New("redis down")
	svc := newService(t, cacheImpl)

	result, err := svc.Simulate(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.True(t, result.Rows[0].NetToHotel.Equal(decimal.RequireFromString("91.8")))
}

func TestSimulateErrorsAreNotCached(t *testing.T) {
	cacheImpl := newFakeCache()
	svc := newService(t, cacheImpl)

	_, err := svc.Simulate(context.Background(), domain.SimulationRequest{
		HotelID: "riviera",
		Partner: "XYZ",
		StartDate: func() time.Time {
			d, _ := time.Parse(domain.DateLayout, "2025-06-01")
			return d
		}(),
		EndDate: func() time.Time {
			d, _ := time.Parse(domain.DateLayout, "2025-06-01")
			return d
		}(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 0, cacheImpl.sets)
}

func TestNilCacheDefaultsToNoop(t *testing.T) {
	svc := newService(t, nil)

	result, err := svc.Simulate(context.Background(), request())
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
}
