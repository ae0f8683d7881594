package models

import (
	"time"
)

// Coupon discount types
const (
	DiscountTypePercentage   = "PERCENTAGE"
	DiscountTypeFixedAmount  = "FIXED_AMOUNT"
	DiscountTypeFreeShipping = "FREE_SHIPPING"
)

// Audit severities
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Audit actions recorded by the checkout path
const (
	AuditActionCouponValidate  = "coupon_validate"
	AuditActionCouponCommit    = "coupon_commit"
	AuditActionPaymentIntent   = "payment_intent"
	AuditActionPaymentDeclined = "payment_declined"
	AuditActionGatewayError    = "gateway_error"
	AuditActionRateLimited     = "rate_limited"
)

// Coupon represents a discount policy identified by a code.
// UsageCount is only ever mutated through the atomic commit path;
// coupons are deactivated, never deleted.
type Coupon struct {
	ID         int       `json:"id"`
	Code       string    `json:"code"` // canonical upper-case
	Type       string    `json:"type"`
	Value      float64   `json:"value"`
	MinAmount  *float64  `json:"min_amount,omitempty"`
	MaxAmount  *float64  `json:"max_amount,omitempty"` // cap on PERCENTAGE discounts
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	UsageLimit *int      `json:"usage_limit,omitempty"`
	UsageCount int       `json:"usage_count"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DiscountResult is the outcome of evaluating a coupon against a purchase.
// Unknown codes yield Valid=false with an empty Reason so the API does not
// leak which codes exist; known-but-rejected codes carry a reason.
type DiscountResult struct {
	Valid    bool    `json:"valid"`
	Code     string  `json:"code,omitempty"`
	Type     string  `json:"type,omitempty"`
	Discount float64 `json:"discount"`
	Reason   string  `json:"reason,omitempty"` // "expired", "limit_reached", "min_amount"
}

// InstallmentOption is one entry of a financing schedule. These are
// computed per request and never persisted.
type InstallmentOption struct {
	Installments     int     `json:"installments"`
	InterestRate     float64 `json:"interest_rate"`
	HasInterest      bool    `json:"has_interest"`
	InstallmentValue float64 `json:"installment_value"`
	TotalValue       float64 `json:"total_value"`
}

// RateLimitDecision is the outcome of a rate-limit check.
type RateLimitDecision struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// AuditLogEntry is an immutable record of a security- or money-relevant
// action. Entries are append-only and retrieved newest first.
type AuditLogEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Severity   string    `json:"severity"`
	UserID     string    `json:"user_id,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	ResourceID string    `json:"resource_id,omitempty"`
	Success    bool      `json:"success"`
	Details    string    `json:"details,omitempty"`
}

// AuditLogFilters narrows an audit log query. All fields are optional and
// combined with AND.
type AuditLogFilters struct {
	Action     string
	Severity   string
	UserID     string
	UserEmail  string
	Resource   string
	ResourceID string
	From       *time.Time
	To         *time.Time
	Success    *bool
	Limit      int
	Offset     int
}

// AuditLogStats aggregates entries over a trailing window for volume and
// anomaly dashboards.
type AuditLogStats struct {
	WindowDays int            `json:"window_days"`
	Total      int            `json:"total"`
	Failures   int            `json:"failures"`
	ByAction   map[string]int `json:"by_action"`
	BySeverity map[string]int `json:"by_severity"`
}

// Order is the slice of the order record this layer reads and writes:
// the amounts needed to price a checkout and the payment intent
// reference written back after a successful gateway call. Order
// lifecycle itself is owned elsewhere.
type Order struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Subtotal        float64   `json:"subtotal"`
	ShippingFee     float64   `json:"shipping_fee"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// PaymentIntentRequest is constructed per checkout attempt and handed to
// the payment orchestrator. It is not persisted by this layer.
//
// Amount is what the client expects to pay after discounts; it must
// agree with the server-side payable total or the checkout is rejected.
type PaymentIntentRequest struct {
	Amount       float64           `json:"amount"`
	OrderID      string            `json:"order_id"`
	UserID       string            `json:"user_id"`
	UserEmail    string            `json:"user_email,omitempty"`
	CouponCode   string            `json:"coupon_code,omitempty"`
	Installments int               `json:"installments"`
	Items        []OrderItem       `json:"items,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// OrderItem is a line item snapshot forwarded to the gateway as metadata.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// PaymentIntentResult is returned to the caller after a successful
// gateway call.
type PaymentIntentResult struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	ClientSecret    string  `json:"client_secret"`
	Amount          float64 `json:"amount"`
	Discount        float64 `json:"discount,omitempty"`
	Installments    int     `json:"installments"`
}

// GatewayIntent is the gateway's view of a created payment intent.
type GatewayIntent struct {
	IntentID     string
	ClientSecret string
	Amount       int64 // minor units, as the gateway reports it
}

// ErrorResponse is the standard error payload for HTTP handlers.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse reports service and dependency health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
