package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// Rate-limited action keys
const (
	ActionRegister       = "register"
	ActionNewsletter     = "newsletter"
	ActionUpload         = "upload"
	ActionCouponValidate = "coupon_validate"
	ActionPayment        = "payment"
)

// failClosedRetryAfter is the backoff advertised when a fail-closed
// action is denied because the counter store is unreachable. Kept short:
// the denial reflects an outage, not counter exhaustion.
const failClosedRetryAfter = 30 * time.Second

// RateLimitPolicy configures one action: how many requests per window,
// and what happens when the counter store is down. Financially sensitive
// actions fail closed; informational ones fail open.
type RateLimitPolicy struct {
	Limit    int
	Window   time.Duration
	FailOpen bool
}

// DefaultRateLimitPolicies is the per-action configuration table.
var DefaultRateLimitPolicies = map[string]RateLimitPolicy{
	ActionRegister:       {Limit: 3, Window: time.Hour, FailOpen: true},
	ActionNewsletter:     {Limit: 1, Window: 24 * time.Hour, FailOpen: true},
	ActionUpload:         {Limit: 20, Window: time.Hour, FailOpen: true},
	ActionCouponValidate: {Limit: 10, Window: time.Minute, FailOpen: true},
	ActionPayment:        {Limit: 10, Window: time.Hour, FailOpen: false},
}

// RateLimitServiceImpl implements interfaces.RateLimitService
type RateLimitServiceImpl struct {
	redis    interfaces.RedisInterface
	policies map[string]RateLimitPolicy
}

// NewRateLimitService creates a new rate limit service with the default
// per-action policies.
func NewRateLimitService(redis interfaces.RedisInterface) *RateLimitServiceImpl {
	return NewRateLimitServiceWithPolicies(redis, DefaultRateLimitPolicies)
}

// NewRateLimitServiceWithPolicies creates a rate limit service with a
// custom policy table.
func NewRateLimitServiceWithPolicies(redis interfaces.RedisInterface, policies map[string]RateLimitPolicy) *RateLimitServiceImpl {
	return &RateLimitServiceImpl{
		redis:    redis,
		policies: policies,
	}
}

// Check records one request for identity+action and decides whether it
// may proceed. The increment-and-compare is atomic at the counter store,
// so concurrent requests from the same identity cannot slip past the
// limit together.
//
// Identity is derived from the client network address. That is spoofable
// and is defense in depth, not an authentication boundary.
func (s *RateLimitServiceImpl) Check(ctx context.Context, identity, action string) (*models.RateLimitDecision, error) {
	policy, ok := s.policies[action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown rate limit action %q", ErrInvalidRequest, action)
	}

	key := fmt.Sprintf("ratelimit:%s:%s", action, identity)

	var count int64
	var ttl time.Duration
	var err error
	if s.redis == nil {
		err = errors.New("rate limit store not configured")
	} else {
		count, ttl, err = s.redis.IncrementWindow(ctx, key, policy.Window)
	}
	if err != nil {
		if policy.FailOpen {
			log.Warn().Err(err).Str("action", action).Msg("rate limit store unavailable, failing open")
			return &models.RateLimitDecision{Allowed: true, Remaining: 0}, nil
		}
		// The outage, not the counter, caused this denial; advertise a
		// short backoff rather than the full window.
		log.Error().Err(err).Str("action", action).Msg("rate limit store unavailable, failing closed")
		return &models.RateLimitDecision{Allowed: false, RetryAfter: failClosedRetryAfter}, nil
	}

	if count > int64(policy.Limit) {
		return &models.RateLimitDecision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: ttl,
		}, nil
	}

	return &models.RateLimitDecision{
		Allowed:   true,
		Remaining: policy.Limit - int(count),
	}, nil
}
