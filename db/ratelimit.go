// db/ratelimit.go
package db

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
)

const rateLimitPrefix = "ratelimit:"

var rateLimitSeq atomic.Uint64

// Allow records one hit for key in a sliding window and reports whether the
// hit is within limit. It allows the request whenever the cache is
// unavailable.
func (s *CacheStore) Allow(ctx context.Context, key string, limit int, per time.Duration) bool {
	if limit <= 0 {
		return true
	}
	client, ok := s.Connect(ctx)
	if !ok {
		return true
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	now := time.Now().UnixNano()
	key = rateLimitPrefix + key
	member := strconv.FormatInt(now, 10) + "-" + strconv.FormatUint(rateLimitSeq.Add(1), 10)

	pipe := client.TxPipeline()
	pipe.ZRemRangeByScore(opCtx, key, "0", fmt.Sprintf("%d", now-per.Nanoseconds()))
	pipe.ZAdd(opCtx, key, redis.Z{Score: float64(now), Member: member})
	card := pipe.ZCard(opCtx, key)
	pipe.Expire(opCtx, key, per)

	if _, err := pipe.Exec(opCtx); err != nil {
		logger.Warn("Rate limit check failed, allowing request", zap.String("key", key), zap.Error(err))
		return true
	}

	count := card.Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed
}
