package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hotelrm/backend-go/internal/config"
	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	simulationKeyPrefix = "simulation:result"
	simulationScanBatch = 100
)

// SimulationCache stores computed simulation results keyed by request.
// The importer invalidates a hotel's entries whenever its snapshot is
// replaced, so a cached result never outlives the snapshot it was
// computed from beyond the TTL.
type SimulationCache interface {
	Get(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, bool, error)
	Set(ctx context.Context, req domain.SimulationRequest, result *domain.SimulationResult) error
	InvalidateHotel(ctx context.Context, hotelID string) error
	InvalidateAll(ctx context.Context) error
}

type redisSimulationCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSimulationCache struct{}

func NewSimulationCache(cfg config.CacheConfig) (SimulationCache, error) {
	if !cfg.Enabled {
		return &noopSimulationCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSimulationCache{client: client, ttl: ttl}, nil
}

func NewNoopSimulationCache() SimulationCache {
	return &noopSimulationCache{}
}

func (c *redisSimulationCache) Get(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, bool, error) {
	payload, err := c.client.Get(ctx, buildSimulationKey(req)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.SimulationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode simulation cache: %w", err)
	}
	return &result, true, nil
}

func (c *redisSimulationCache) Set(ctx context.Context, req domain.SimulationRequest, result *domain.SimulationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode simulation cache: %w", err)
	}

	if err := c.client.Set(ctx, buildSimulationKey(req), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSimulationCache) InvalidateHotel(ctx context.Context, hotelID string) error {
	prefix := fmt.Sprintf("%s:%s:", simulationKeyPrefix, strings.ToLower(hotelID))
	return deleteKeysWithPrefix(ctx, c.client, prefix, simulationScanBatch)
}

func (c *redisSimulationCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, simulationKeyPrefix, simulationScanBatch)
}

func (n *noopSimulationCache) Get(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, bool, error) {
	return nil, false, nil
}

func (n *noopSimulationCache) Set(ctx context.Context, req domain.SimulationRequest, result *domain.SimulationResult) error {
	return nil
}

func (n *noopSimulationCache) InvalidateHotel(ctx context.Context, hotelID string) error {
	return nil
}

func (n *noopSimulationCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// buildSimulationKey embeds the hotel so a snapshot replacement can
// invalidate one hotel's entries without touching the rest.
func buildSimulationKey(req domain.SimulationRequest) string {
	return fmt.Sprintf("%s:%s:%s", simulationKeyPrefix, strings.ToLower(req.HotelID), requestHash(req))
}

func requestHash(req domain.SimulationRequest) string {
	parts := []string{
		"partner=" + strings.ToLower(strings.TrimSpace(req.Partner)),
		"start=" + req.StartDate.Format(domain.DateLayout),
		"end=" + req.EndDate.Format(domain.DateLayout),
	}

	if req.RoomTypes != nil {
		rooms := append([]string(nil), req.RoomTypes...)
		sort.Strings(rooms)
		parts = append(parts, "rooms="+strings.Join(rooms, ","))
	}

	if len(req.PlanSelection) > 0 {
		selections := make([]string, 0, len(req.PlanSelection))
		for room, choice := range req.PlanSelection {
			if choice.Kind == domain.PlanChoiceAll {
				selections = append(selections, room+"=*")
			} else {
				selections = append(selections, room+"="+choice.Plan)
			}
		}
		sort.Strings(selections)
		parts = append(parts, "plans="+strings.Join(selections, ";"))
	}

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
