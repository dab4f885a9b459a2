package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"roomy-ai-core/internal/utils"
)

const keyPrefix = "roomy:ratelimit:"

// RedisLimiter shares fixed-window counters between instances through Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisLimiter connects to Redis and verifies the connection.
func NewRedisLimiter(addr, password string, db, limit int, window time.Duration) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisLimiter(client, limit, window), nil
}

func newRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = DefaultRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
		logger: utils.GetLogger().Named("ratelimit"),
	}
}

// Close closes the Redis client.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// IsRateLimited increments the counter of the current window for key.
func (l *RedisLimiter) IsRateLimited(ctx context.Context, key string) (bool, error) {
	count, err := l.incrementWithExpiry(ctx, l.windowKey(key))
	if err != nil {
		return false, err
	}
	return count > int64(l.limit), nil
}

// windowKey buckets requests by window start so counters never slide.
func (l *RedisLimiter) windowKey(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return keyPrefix + key + ":" + strconv.FormatInt(bucket, 10)
}

func (l *RedisLimiter) incrementWithExpiry(ctx context.Context, key string) (int64, error) {
	pipe := l.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error("failed to increment with expiry",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0, fmt.Errorf("increment with expiry: %w", err)
	}
	return incrCmd.Val(), nil
}
