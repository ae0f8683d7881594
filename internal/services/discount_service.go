package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
	"storefront-backend/internal/money"
)

// couponCacheTTL bounds how stale a previewed coupon may be. Commits
// always hit the database and invalidate the cache.
const couponCacheTTL = 30 * time.Second

// DiscountServiceImpl implements interfaces.DiscountService
type DiscountServiceImpl struct {
	db    interfaces.DatabaseInterface
	redis interfaces.RedisInterface

	// now is swappable for validity-window tests
	now func() time.Time
}

// NewDiscountService creates a new discount service
func NewDiscountService(db interfaces.DatabaseInterface, redis interfaces.RedisInterface) *DiscountServiceImpl {
	return &DiscountServiceImpl{
		db:    db,
		redis: redis,
		now:   time.Now,
	}
}

// CanonicalCode normalizes a coupon code for lookup: trimmed, upper-case.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate evaluates a coupon code against a proposed purchase amount.
// This is the preview path: it never touches usage_count, so repeated
// cart-page checks cannot exhaust a usage limit.
//
// Unknown codes return Valid=false with no reason; all call sites share
// this contract so the API never reveals which codes exist.
func (s *DiscountServiceImpl) Validate(ctx context.Context, code string, purchaseAmount *float64) (*models.DiscountResult, error) {
	canonical := CanonicalCode(code)
	if canonical == "" {
		return nil, fmt.Errorf("%w: coupon code is required", ErrInvalidRequest)
	}

	coupon, err := s.lookupCoupon(ctx, canonical)
	if err != nil {
		// Fail closed: an unreachable store must never grant a discount.
		return nil, fmt.Errorf("%w: coupon lookup: %v", ErrDependencyUnavailable, err)
	}

	if coupon == nil {
		return &models.DiscountResult{Valid: false}, nil
	}

	now := s.now()

	// Checks run in order and short-circuit on the first failure.
	if !coupon.IsActive || !money.WithinWindow(now, coupon.StartDate, coupon.EndDate) {
		return &models.DiscountResult{Valid: false, Reason: ReasonExpired}, nil
	}

	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return &models.DiscountResult{Valid: false, Reason: ReasonLimitReached}, nil
	}

	if coupon.MinAmount != nil && purchaseAmount != nil && *purchaseAmount < *coupon.MinAmount {
		return &models.DiscountResult{Valid: false, Reason: ReasonMinAmount}, nil
	}

	discount := computeDiscount(coupon, purchaseAmount)

	return &models.DiscountResult{
		Valid:    true,
		Code:     coupon.Code,
		Type:     coupon.Type,
		Discount: discount,
	}, nil
}

// Commit irreversibly consumes one redemption of the coupon. Called only
// after the payment gateway has confirmed intent creation. The increment
// is a conditional UPDATE at the storage layer, so concurrent commits
// against a nearly exhausted coupon serialize there.
func (s *DiscountServiceImpl) Commit(ctx context.Context, code string) error {
	canonical := CanonicalCode(code)
	if canonical == "" {
		return fmt.Errorf("%w: coupon code is required", ErrInvalidRequest)
	}

	if s.db == nil {
		return fmt.Errorf("%w: coupon store not configured", ErrDependencyUnavailable)
	}

	committed, err := s.db.CommitCouponUsage(ctx, canonical)
	if err != nil {
		return fmt.Errorf("%w: coupon commit: %v", ErrDependencyUnavailable, err)
	}

	// The cached copy now carries a stale usage_count either way.
	if s.redis != nil {
		if err := s.redis.InvalidateCoupon(ctx, canonical); err != nil {
			log.Warn().Err(err).Str("code", canonical).Msg("failed to invalidate coupon cache after commit")
		}
	}

	if !committed {
		return ErrCouponNotCommittable
	}

	return nil
}

// lookupCoupon reads through the Redis cache to the database. Either
// store may be absent when the server started degraded; a missing cache
// is a miss, a missing database is an error.
func (s *DiscountServiceImpl) lookupCoupon(ctx context.Context, canonical string) (*models.Coupon, error) {
	if s.redis != nil {
		cached, err := s.redis.GetCachedCoupon(ctx, canonical)
		if err != nil {
			log.Warn().Err(err).Str("code", canonical).Msg("coupon cache read failed, falling back to database")
		} else if cached != nil {
			return cached, nil
		}
	}

	if s.db == nil {
		return nil, errors.New("coupon store not configured")
	}

	coupon, err := s.db.GetCouponByCode(ctx, canonical)
	if err != nil {
		return nil, err
	}

	if coupon != nil && s.redis != nil {
		if err := s.redis.CacheCoupon(ctx, coupon, couponCacheTTL); err != nil {
			log.Warn().Err(err).Str("code", canonical).Msg("failed to cache coupon")
		}
	}

	return coupon, nil
}

// computeDiscount derives the discount amount for a coupon that passed
// all validity checks.
func computeDiscount(coupon *models.Coupon, purchaseAmount *float64) float64 {
	switch coupon.Type {
	case models.DiscountTypePercentage:
		if purchaseAmount == nil {
			return 0
		}
		discount := money.Percent(money.FromFloat(*purchaseAmount), money.FromFloat(coupon.Value))
		if coupon.MaxAmount != nil {
			ceiling := money.FromFloat(*coupon.MaxAmount)
			if discount.GreaterThan(ceiling) {
				discount = ceiling
			}
		}
		f, _ := money.Round2(discount).Float64()
		return f

	case models.DiscountTypeFixedAmount:
		// Not clamped to the order total here; the orchestrator guards
		// against a discount exceeding the payable amount.
		return money.Round2Float(coupon.Value)

	case models.DiscountTypeFreeShipping:
		// The shipping waiver itself is applied by the order-total
		// computation, not by the discount engine.
		return 0

	default:
		return 0
	}
}
