package routecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/fleet-dashboard-api/internal/config"
	"github.com/user/fleet-dashboard-api/internal/models"
)

// Cache - optional Redis cache for route-coordinate windows. Every error
// degrades to a miss; a broken cache never fails a read. A nil or
// unconfigured cache is a valid no-op.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates the cache. An empty addr disables caching entirely.
func New(cfg config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return &Cache{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{rdb: rdb, ttl: cfg.CacheTTL()}
}

// Enabled reports whether a Redis backend is configured
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func cacheKey(vesselID, startAt, endAt string) string {
	return fmt.Sprintf("route:%s:%s:%s", vesselID, startAt, endAt)
}

// Get returns a cached window, or ok=false on miss or any cache failure
func (c *Cache) Get(ctx context.Context, vesselID, startAt, endAt string) ([]models.RouteCoordinate, bool) {
	if !c.Enabled() {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, cacheKey(vesselID, startAt, endAt)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[Cache] get failed: %v", err)
		}
		return nil, false
	}

	var coords []models.RouteCoordinate
	if err := json.Unmarshal([]byte(raw), &coords); err != nil {
		log.Printf("[Cache] corrupt entry for %s: %v", vesselID, err)
		return nil, false
	}
	return coords, true
}

// Set stores a window, best-effort
func (c *Cache) Set(ctx context.Context, vesselID, startAt, endAt string, coords []models.RouteCoordinate) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(coords)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(vesselID, startAt, endAt), data, c.ttl).Err(); err != nil {
		log.Printf("[Cache] set failed: %v", err)
	}
}
