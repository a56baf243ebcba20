package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyCacheKey = "idempotency_cache_key"
	idempotencyLockKey  = "idempotency_lock_key"

	idempotencyLockTTL   = 30 * time.Second
	idempotencyResultTTL = 24 * time.Hour
)

// Idempotency replays the stored result for a repeated Idempotency-Key and
// rejects a duplicate that arrives while the first request is still running.
// Handlers release the lock and store their result with FinishIdempotent.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if rdb == nil || idempKey == "" {
			c.Next()
			return
		}
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), c.GetString(ContextUserID), idempKey)
		lockKey := cacheKey + ":lock"

		if val, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached idempotentResult
			if json.Unmarshal([]byte(val), &cached) == nil && cached.Status != 0 {
				c.Header("Idempotent-Replay", "true")
				response.Success(c, cached.Status, cached.Body, nil)
				c.Abort()
				return
			}
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			zap.L().Named("middleware.idempotency").Warn("idempotency lock unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			abortWith(c, apperror.ErrRequestInFlight)
			return
		}

		c.Set(idempotencyCacheKey, cacheKey)
		c.Set(idempotencyLockKey, lockKey)
		c.Next()
	}
}

// idempotentResult is what a replay answers with: the first response's
// status (202 for a pending correction, 200 for an applied one) and body.
type idempotentResult struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// FinishIdempotent releases the lock taken by Idempotency and, when result is
// non-nil, stores it with status for replay.
func FinishIdempotent(c *gin.Context, rdb *redis.Client, status int, result any) {
	if rdb == nil {
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())

	if lk := c.GetString(idempotencyLockKey); lk != "" {
		defer rdb.Del(ctx, lk)
	}
	ck := c.GetString(idempotencyCacheKey)
	if ck == "" || result == nil {
		return
	}
	body, err := json.Marshal(result)
	if err != nil {
		return
	}
	if payload, err := json.Marshal(idempotentResult{Status: status, Body: body}); err == nil {
		rdb.Set(ctx, ck, payload, idempotencyResultTTL)
	}
}
