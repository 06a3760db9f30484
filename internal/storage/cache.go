package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Simplici0/invoice-roi/internal/logger"
	"github.com/Simplici0/invoice-roi/internal/metrics"
	"github.com/Simplici0/invoice-roi/internal/roi"
)

const cacheKeyPrefix = "roi:scenario:"

// setUnlessDeleted stores KEYS[1] only while the tombstone KEYS[2] is absent.
// ARGV[2] is the TTL in milliseconds; 0 means no expiry.
var setUnlessDeleted = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// CachedRepository serves Get from Redis when possible. Cache failures are
// logged and fall through to the wrapped repository.
type CachedRepository struct {
	next    Repository
	client  *redis.Client
	ttl     time.Duration
	log     logger.Logger
	metrics *metrics.Metrics
}

func NewCachedRepository(next Repository, client *redis.Client, ttl time.Duration, log logger.Logger, m *metrics.Metrics) *CachedRepository {
	return &CachedRepository{
		next:    next,
		client:  client,
		ttl:     ttl,
		log:     log,
		metrics: m,
	}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

// tombstoneKey marks a scenario as deleted so that a Get racing the delete
// cannot put it back into the cache.
func tombstoneKey(id string) string {
	return cacheKeyPrefix + id + ":deleted"
}

func (c *CachedRepository) Get(ctx context.Context, id string) (Scenario, error) {
	vals, err := c.client.MGet(ctx, cacheKey(id), tombstoneKey(id)).Result()
	switch {
	case err != nil:
		c.log.WithError(err).Warn("scenario cache read failed", map[string]interface{}{"scenario_id": id})
		c.metrics.CacheLookup("error")
	case vals[1] != nil:
		c.metrics.CacheLookup("miss")
		return c.next.Get(ctx, id)
	case vals[0] == nil:
		c.metrics.CacheLookup("miss")
	default:
		var sc Scenario
		if raw, ok := vals[0].(string); ok && json.Unmarshal([]byte(raw), &sc) == nil {
			c.metrics.CacheLookup("hit")
			return sc, nil
		}
		c.log.Warn("discarding undecodable cached scenario", map[string]interface{}{"scenario_id": id})
		c.metrics.CacheLookup("error")
	}

	sc, err := c.next.Get(ctx, id)
	if err != nil {
		return Scenario{}, err
	}

	if encoded, err := json.Marshal(sc); err == nil {
		keys := []string{cacheKey(id), tombstoneKey(id)}
		if err := setUnlessDeleted.Run(ctx, c.client, keys, encoded, c.ttl.Milliseconds()).Err(); err != nil {
			c.log.WithError(err).Warn("scenario cache write failed", map[string]interface{}{"scenario_id": id})
		}
	}

	return sc, nil
}

// Delete writes the tombstone before touching SQL, then drops the cached
// entry. The tombstone lives as long as a cache entry would.
func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	if err := c.client.Set(ctx, tombstoneKey(id), 1, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("scenario cache tombstone failed", map[string]interface{}{"scenario_id": id})
	}

	err := c.next.Delete(ctx, id)
	if delErr := c.client.Del(ctx, cacheKey(id)).Err(); delErr != nil {
		c.log.WithError(delErr).Warn("scenario cache invalidation failed", map[string]interface{}{"scenario_id": id})
	}
	return err
}

func (c *CachedRepository) Create(ctx context.Context, name string, in roi.Inputs, res roi.Results) (Scenario, error) {
	return c.next.Create(ctx, name, in, res)
}

func (c *CachedRepository) List(ctx context.Context) ([]Scenario, error) {
	return c.next.List(ctx)
}

func (c *CachedRepository) CaptureEmail(ctx context.Context, email string) (EmailCapture, error) {
	return c.next.CaptureEmail(ctx, email)
}

// Ping checks the wrapped repository and then Redis.
func (c *CachedRepository) Ping(ctx context.Context) error {
	if err := c.next.Ping(ctx); err != nil {
		return err
	}
	return c.client.Ping(ctx).Err()
}
