package services

import "errors"

// Error taxonomy for the checkout path. Validation and policy failures
// are the caller's to fix and are returned as structured results where
// possible; dependency failures are system faults surfaced as a generic
// internal error.
var (
	// ErrInvalidRequest marks malformed or out-of-range input. Never retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidAmount marks a non-positive monetary amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrCouponNotCommittable marks a commit attempt against a coupon
	// whose usage limit is exhausted or which is no longer active.
	ErrCouponNotCommittable = errors.New("coupon usage cannot be committed")

	// ErrOrderNotFound marks a checkout attempt against an unknown order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDependencyUnavailable marks an unreachable store or gateway.
	// Surfaced to callers as a generic internal failure.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Discount rejection reasons carried in DiscountResult.Reason. Unknown
// codes deliberately carry no reason at all.
const (
	ReasonExpired      = "expired"
	ReasonLimitReached = "limit_reached"
	ReasonMinAmount    = "min_amount"
)
