package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-backend/internal/models"
)

// RedisClient implements interfaces.RedisInterface
type RedisClient struct {
	client *redis.Client

	// Lua script for atomic rate-limit windows
	rateLimitScript *redis.Script
}

// Lua script for fixed-window rate limiting. INCR and EXPIRE must happen
// atomically: a client racing the first hit of a window must not be able
// to leave the counter without a TTL.
const rateLimitLua = `
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`

// NewRedisClient creates a new Redis client connection
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Sized for checkout-path request bursts
		PoolSize:     100,
		MinIdleConns: 25,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:          client,
		rateLimitScript: redis.NewScript(rateLimitLua),
	}, nil
}

// Connection management
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Rate limiting

// IncrementWindow atomically bumps the fixed-window counter behind key.
// The first hit of a window starts the window; the returned TTL is the
// time remaining until the window resets.
func (r *RedisClient) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	result, err := r.rateLimitScript.Run(ctx, r.client,
		[]string{key}, window.Milliseconds()).Result()

	if err != nil {
		return 0, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	res, ok := result.([]interface{})
	if !ok || len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script result: %v", result)
	}

	count, ok := res[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("invalid count in rate limit result: %v", res[0])
	}

	ttlMillis, ok := res[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("invalid ttl in rate limit result: %v", res[1])
	}

	return count, time.Duration(ttlMillis) * time.Millisecond, nil
}

// Coupon cache

func couponKey(code string) string {
	return fmt.Sprintf("coupon:%s", code)
}

// GetCachedCoupon returns the cached coupon for code, or nil on a miss.
func (r *RedisClient) GetCachedCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	data, err := r.client.Get(ctx, couponKey(code)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached coupon: %w", err)
	}

	var coupon models.Coupon
	if err := json.Unmarshal(data, &coupon); err != nil {
		return nil, fmt.Errorf("invalid cached coupon payload: %w", err)
	}

	return &coupon, nil
}

func (r *RedisClient) CacheCoupon(ctx context.Context, coupon *models.Coupon, ttl time.Duration) error {
	data, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("failed to marshal coupon for cache: %w", err)
	}

	if err := r.client.Set(ctx, couponKey(coupon.Code), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache coupon: %w", err)
	}

	return nil
}

func (r *RedisClient) InvalidateCoupon(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, couponKey(code)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached coupon: %w", err)
	}

	return nil
}

// Performance metrics
func (r *RedisClient) GetConnectionStats() interface{} {
	return r.client.PoolStats()
}
