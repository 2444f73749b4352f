package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
)

// TripCacheTTL keeps cached trips short-lived; status changes during
// dispatch and a stale read is only tolerable for seconds.
const TripCacheTTL = 10 * time.Second

const tripCachePrefix = "cache:trip:"

// TripCache caches trips in Redis for the read path. Mutating
// operations always go to the repository; only status queries consult
// the cache.
type TripCache struct {
	client *redis.Client
}

// NewTripCache creates a new TripCache.
func NewTripCache(client *redis.Client) *TripCache {
	return &TripCache{client: client}
}

// GetTrip retrieves a trip from cache. Returns nil on a miss.
func (s *TripCache) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	data, err := s.client.Get(ctx, tripCachePrefix+tripID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var trip domain.Trip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}

	return &trip, nil
}

// SetTrip stores a trip in cache.
func (s *TripCache) SetTrip(ctx context.Context, trip *domain.Trip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, tripCachePrefix+trip.ID, data, TripCacheTTL).Err()
}
