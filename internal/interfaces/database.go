package interfaces

import (
	"context"
	"database/sql"
	"time"

	"storefront-backend/internal/models"
)

// DatabaseInterface defines the contract for the relational store. It is
// the system of record for coupons, the audit log, and the order slice
// this layer touches.
type DatabaseInterface interface {
	// Connection management
	Close() error
	Ping(ctx context.Context) error
	Stats() sql.DBStats

	// Coupon operations
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)

	// CommitCouponUsage increments usage_count if and only if the coupon
	// is still below its usage limit. The increment-and-compare happens
	// in a single conditional UPDATE so concurrent commits near
	// exhaustion cannot both succeed. Returns false when the limit was
	// already reached.
	CommitCouponUsage(ctx context.Context, code string) (bool, error)

	// Audit operations
	InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error
	QueryAuditEntries(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLogEntry, int, error)
	GetAuditStats(ctx context.Context, windowDays int) (*models.AuditLogStats, error)

	// Order operations
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	SetOrderPaymentIntent(ctx context.Context, orderID, intentID string) error
}

// RedisInterface defines the contract for the Redis-backed fast path:
// atomic rate-limit counters and the coupon read-through cache.
type RedisInterface interface {
	// Connection management
	Close() error
	Ping(ctx context.Context) error

	// IncrementWindow atomically increments the counter behind key,
	// starting a new fixed window of the given duration on first hit.
	// Returns the count within the current window and the time left
	// until the window resets.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)

	// Coupon cache
	GetCachedCoupon(ctx context.Context, code string) (*models.Coupon, error)
	CacheCoupon(ctx context.Context, coupon *models.Coupon, ttl time.Duration) error
	InvalidateCoupon(ctx context.Context, code string) error

	// Performance metrics
	GetConnectionStats() interface{}
}
