// File: utils/calendar_cache.go
package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymbook/models"

	"github.com/go-redis/redis/v8"
)

// CalendarLookup is the result of a cache read. Generation is the cache
// generation the read was made under; a store result fetched after the read is
// written back under it, so an invalidation in between orphans the write.
type CalendarLookup struct {
	Sessions   []models.Session
	Hit        bool
	Generation int64
}

// CalendarCache caches date-range session queries.
type CalendarCache interface {
	GetRange(ctx context.Context, start, end time.Time) (CalendarLookup, error)
	SetRange(ctx context.Context, generation int64, start, end time.Time, sessions []models.Session) error
	// Invalidate drops every cached range.
	Invalidate(ctx context.Context) error
}

const (
	calendarKeyPrefix     = "calendar:"
	calendarGenerationKey = calendarKeyPrefix + "generation"
)

// RedisCalendarCache keys ranges under a generation counter; bumping the
// counter orphans all previous keys, which then expire by TTL.
type RedisCalendarCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCalendarCache(client *redis.Client, ttl time.Duration) CalendarCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCalendarCache{client: client, ttl: ttl}
}

func (c *RedisCalendarCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, calendarGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func rangeKey(gen int64, start, end time.Time) string {
	return fmt.Sprintf("%s%d:%d:%d", calendarKeyPrefix, gen, start.UnixNano(), end.UnixNano())
}

func (c *RedisCalendarCache) GetRange(ctx context.Context, start, end time.Time) (CalendarLookup, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return CalendarLookup{}, err
	}
	lookup := CalendarLookup{Generation: gen}
	val, err := c.client.Get(ctx, rangeKey(gen, start, end)).Bytes()
	if errors.Is(err, redis.Nil) {
		return lookup, nil
	}
	if err != nil {
		return CalendarLookup{}, err
	}
	if err := json.Unmarshal(val, &lookup.Sessions); err != nil {
		return CalendarLookup{}, fmt.Errorf("corrupt calendar cache entry: %w", err)
	}
	lookup.Hit = true
	return lookup, nil
}

// SetRange stores sessions under the given generation, normally the one
// returned by the GetRange that missed.
func (c *RedisCalendarCache) SetRange(ctx context.Context, gen int64, start, end time.Time, sessions []models.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rangeKey(gen, start, end), data, c.ttl).Err()
}

func (c *RedisCalendarCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, calendarGenerationKey).Err()
}

// NoopCalendarCache never hits.
type NoopCalendarCache struct{}

func (NoopCalendarCache) GetRange(context.Context, time.Time, time.Time) (CalendarLookup, error) {
	return CalendarLookup{}, nil
}

func (NoopCalendarCache) SetRange(context.Context, int64, time.Time, time.Time, []models.Session) error {
	return nil
}

func (NoopCalendarCache) Invalidate(context.Context) error { return nil }
