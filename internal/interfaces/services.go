package interfaces

import (
	"context"

	"storefront-backend/internal/models"
)

// DiscountService defines the contract for coupon evaluation.
// Validate is the read-only preview used on cart pages; Commit is the
// irreversible usage increment performed once payment has succeeded.
type DiscountService interface {
	Validate(ctx context.Context, code string, purchaseAmount *float64) (*models.DiscountResult, error)
	Commit(ctx context.Context, code string) error
}

// InstallmentService computes financing schedules. Pure; no storage.
type InstallmentService interface {
	ComputeSchedule(amount float64) ([]models.InstallmentOption, error)
}

// RateLimitService bounds how often a client identity may perform an
// action within a time window.
type RateLimitService interface {
	Check(ctx context.Context, identity, action string) (*models.RateLimitDecision, error)
}

// AuditService records and retrieves security- and money-relevant events.
// Record is fire-and-forget: failures are logged locally, never
// propagated to the caller.
type AuditService interface {
	Record(ctx context.Context, entry *models.AuditLogEntry)
	Query(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLogEntry, int, error)
	Stats(ctx context.Context, windowDays int) (*models.AuditLogStats, error)
}

// PaymentService orchestrates a checkout attempt: validation, pricing,
// the gateway call, and the post-success coupon commit.
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, req *models.PaymentIntentRequest) (*models.PaymentIntentResult, error)
}
