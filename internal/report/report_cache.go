package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	MonthKeyPrefix  = "timelogs:month:"
	DefaultCacheTTL = 10 * time.Minute

	// A generation key outlives every row entry so it never resets while an
	// entry written under it can still be read.
	generationTTL = 24 * time.Hour
)

// MonthKey is the base key of a user's month. Row entries live under
// MonthKey + ":" + generation; the generation counter itself lives under
// GenerationKey.
func MonthKey(userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("%s%s:%s", MonthKeyPrefix, userID, day.Format("2006-01"))
}

func GenerationKey(userID uuid.UUID, day time.Time) string {
	return MonthKey(userID, day) + ":gen"
}

func rowsKey(userID uuid.UUID, day time.Time, gen int64) string {
	return fmt.Sprintf("%s:%d", MonthKey(userID, day), gen)
}

// MonthCache keeps derived month rows in Redis. Writers bump the month's
// generation through InvalidateMonth after committing, which retires every
// entry stored under the old generation, including one a slow reader stores
// after the bump. A nil client turns it into a pass-through.
type MonthCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger
}

func NewMonthCache(rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) *MonthCache {
	l := zap.L().Named("report.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("report.cache")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MonthCache{rdb: rdb, ttl: ttl, logger: l}
}

// Rows returns the cached rows for the user's month or loads and stores them.
// Concurrent misses for the same generation share one load.
func (c *MonthCache) Rows(ctx context.Context, userID uuid.UUID, first time.Time, load func() ([]DisplayRow, error)) ([]DisplayRow, error) {
	if c == nil || c.rdb == nil {
		return load()
	}

	gen, err := c.rdb.Get(ctx, GenerationKey(userID, first)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("month cache generation unavailable", zap.String("user_id", userID.String()), zap.Error(err))
		return load()
	}
	key := rowsKey(userID, first, gen)

	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var rows []DisplayRow
		if json.Unmarshal([]byte(cached), &rows) == nil {
			return rows, nil
		}
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		rows, err := load()
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(rows); err == nil {
			if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("month cache store failed", zap.String("key", key), zap.Error(err))
			}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]DisplayRow), nil
}

// InvalidateMonth moves the month to a new generation. Entries under older
// generations are never read again and expire with their TTL.
func (c *MonthCache) InvalidateMonth(ctx context.Context, userID uuid.UUID, day time.Time) {
	if c == nil || c.rdb == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	key := GenerationKey(userID, day)
	if err := c.rdb.Incr(ctx, key).Err(); err != nil {
		c.logger.Error("month cache invalidation failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Expire(ctx, key, c.generationTTL()).Err(); err != nil {
		c.logger.Warn("month cache generation expiry not set", zap.String("key", key), zap.Error(err))
	}
}

func (c *MonthCache) generationTTL() time.Duration {
	return max(generationTTL, 2*c.ttl)
}
