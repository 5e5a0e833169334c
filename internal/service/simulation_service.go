package service

import (
	"context"

	"github.com/hotelrm/backend-go/internal/cache"
	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/simulation"
	"github.com/rs/zerolog/log"
)

// SimulationService fronts the engine with a result cache. Cache
// failures degrade to a recompute, never to a request failure.
type SimulationService struct {
	engine *simulation.Engine
	cache  cache.SimulationCache
}

func NewSimulationService(engine *simulation.Engine, cacheImpl cache.SimulationCache) *SimulationService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSimulationCache()
	}
	return &SimulationService{engine: engine, cache: cacheImpl}
}

func (s *SimulationService) Simulate(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	if result, ok, err := s.cache.Get(ctx, req); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Str("hotel_id", req.HotelID).Msg("simulation: cache get failed")
	}

	result, err := s.engine.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, req, result); err != nil {
		log.Warn().Err(err).Str("hotel_id", req.HotelID).Msg("simulation: cache set failed")
	}

	return result, nil
}

func (s *SimulationService) Availability(ctx context.Context, req domain.SimulationRequest) (*domain.AvailabilityResult, error) {
	return s.engine.Availability(ctx, req)
}

func (s *SimulationService) PartnerPlans(ctx context.Context, hotelID, partnerID, roomType string) (*domain.PartnerPlans, error) {
	return s.engine.PartnerPlans(ctx, hotelID, partnerID, roomType)
}

func (s *SimulationService) HotelSummary(ctx context.Context, hotelID string) (*domain.HotelSummary, error) {
	return s.engine.HotelSummary(ctx, hotelID)
}
