package calls

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListingCache caches the full listing between writes.
//
// Entries are tagged with a generation. Get reports the generation current
// at read time, Set stores under that generation, and Invalidate moves to a
// new one, so a listing read from storage before a write can never be served
// after it. Implementations must be safe for concurrent use; failures are
// never fatal to a request.
type ListingCache interface {
	Get(ctx context.Context) (recs []CallRecord, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, recs []CallRecord) error
	Invalidate(ctx context.Context) error
}

const listingCachePrefix = "calls:list:v2"

// RedisListingCache stores each generation's listing as one JSON value with
// a TTL. The generation counter itself does not expire.
type RedisListingCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisListingCache(rdb *redis.Client, ttl time.Duration) *RedisListingCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisListingCache{rdb: rdb, prefix: listingCachePrefix, ttl: ttl}
}

func (c *RedisListingCache) genKey() string { return c.prefix + ":gen" }

func (c *RedisListingCache) dataKey(gen int64) string {
	return c.prefix + ":data:" + strconv.FormatInt(gen, 10)
}

func (c *RedisListingCache) Get(ctx context.Context) ([]CallRecord, int64, bool, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, err
	}
	raw, err := c.rdb.Get(ctx, c.dataKey(gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, false, nil
		}
		return nil, 0, false, err
	}
	var recs []CallRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, 0, false, err
	}
	return recs, gen, true, nil
}

func (c *RedisListingCache) Set(ctx context.Context, gen int64, recs []CallRecord) error {
	raw, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.dataKey(gen), raw, c.ttl).Err()
}

func (c *RedisListingCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.genKey()).Err()
}
