package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
	"storefront-backend/internal/money"
)

// gatewayTimeout bounds the external payment-intent creation call.
const gatewayTimeout = 10 * time.Second

// PaymentServiceImpl implements interfaces.PaymentService. It runs a
// checkout attempt through validation, pricing, and the gateway call,
// and commits coupon usage only after the gateway confirms success.
type PaymentServiceImpl struct {
	db           interfaces.DatabaseInterface
	discounts    interfaces.DiscountService
	installments interfaces.InstallmentService
	audit        interfaces.AuditService
	gateway      interfaces.PaymentGateway
	currency     string
}

// NewPaymentService creates a new payment orchestration service
func NewPaymentService(
	db interfaces.DatabaseInterface,
	discounts interfaces.DiscountService,
	installments interfaces.InstallmentService,
	audit interfaces.AuditService,
	gateway interfaces.PaymentGateway,
	currency string,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		db:           db,
		discounts:    discounts,
		installments: installments,
		audit:        audit,
		gateway:      gateway,
		currency:     currency,
	}
}

// CreatePaymentIntent processes one checkout attempt end to end.
//
// Pricing and limit checks complete before the gateway call begins, so
// no coupon or counter state is held while waiting on the network. The
// gateway call itself is detached from caller cancellation: if the
// client disconnects mid-request the intent still completes and the
// outcome is still audited, rather than leaving an orphaned intent.
func (s *PaymentServiceImpl) CreatePaymentIntent(ctx context.Context, req *models.PaymentIntentRequest) (*models.PaymentIntentResult, error) {
	// --- Validating ---
	if err := s.validateRequest(req); err != nil {
		s.audit.Record(ctx, &models.AuditLogEntry{
			Action:     models.AuditActionPaymentIntent,
			Severity:   models.SeverityWarning,
			UserID:     req.UserID,
			UserEmail:  req.UserEmail,
			Resource:   "order",
			ResourceID: req.OrderID,
			Success:    false,
			Details:    err.Error(),
		})
		return nil, err
	}

	// --- Pricing ---
	if s.db == nil {
		return nil, fmt.Errorf("%w: order store not configured", ErrDependencyUnavailable)
	}

	order, err := s.db.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: order lookup: %v", ErrDependencyUnavailable, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, req.OrderID)
	}

	subtotal := money.FromFloat(order.Subtotal)
	payable := subtotal.Add(money.FromFloat(order.ShippingFee))

	var discountApplied float64
	var committableCoupon string

	if req.CouponCode != "" {
		sub := order.Subtotal
		result, err := s.discounts.Validate(ctx, req.CouponCode, &sub)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			reason := result.Reason
			if reason == "" {
				reason = "coupon rejected"
			}
			s.audit.Record(ctx, &models.AuditLogEntry{
				Action:     models.AuditActionPaymentIntent,
				Severity:   models.SeverityWarning,
				UserID:     req.UserID,
				UserEmail:  req.UserEmail,
				Resource:   "order",
				ResourceID: req.OrderID,
				Success:    false,
				Details:    fmt.Sprintf("coupon %s: %s", CanonicalCode(req.CouponCode), reason),
			})
			return nil, fmt.Errorf("%w: coupon: %s", ErrInvalidRequest, reason)
		}

		committableCoupon = result.Code

		if result.Type == models.DiscountTypeFreeShipping {
			// The waiver lands on the shipping fee, not the subtotal.
			payable = subtotal
		} else {
			discountApplied = result.Discount
			payable = payable.Sub(money.FromFloat(result.Discount))
			if payable.IsNegative() {
				// A fixed discount larger than the order total caps out
				// at a free order, never a negative charge.
				discountApplied, _ = money.Round2(subtotal.Add(money.FromFloat(order.ShippingFee))).Float64()
				payable = money.FromFloat(0)
			}
		}
	}

	payableF, _ := money.Round2(payable).Float64()

	// The declared amount is a guard against stale carts: the client
	// states what it expects to pay after discounts, and a disagreement
	// with the server-side price aborts the checkout.
	if money.Round2Float(req.Amount) != payableF {
		s.audit.Record(ctx, &models.AuditLogEntry{
			Action:     models.AuditActionPaymentIntent,
			Severity:   models.SeverityWarning,
			UserID:     req.UserID,
			UserEmail:  req.UserEmail,
			Resource:   "order",
			ResourceID: req.OrderID,
			Success:    false,
			Details:    fmt.Sprintf("declared amount %.2f does not match payable %.2f", req.Amount, payableF),
		})
		return nil, fmt.Errorf("%w: amount %.2f does not match the payable total %.2f", ErrInvalidRequest, req.Amount, payableF)
	}

	// Resolve the financed total for the chosen installment count from
	// the same schedule the client was shown.
	schedule, err := s.installments.ComputeSchedule(payableF)
	if err != nil {
		return nil, fmt.Errorf("%w: installment schedule: %v", ErrInvalidRequest, err)
	}

	var chosen *models.InstallmentOption
	for i := range schedule {
		if schedule[i].Installments == req.Installments {
			chosen = &schedule[i]
			break
		}
	}
	if chosen == nil {
		s.audit.Record(ctx, &models.AuditLogEntry{
			Action:     models.AuditActionPaymentIntent,
			Severity:   models.SeverityWarning,
			UserID:     req.UserID,
			Resource:   "order",
			ResourceID: req.OrderID,
			Success:    false,
			Details:    fmt.Sprintf("%d installments not available for amount %.2f", req.Installments, payableF),
		})
		return nil, fmt.Errorf("%w: %d installments not available for this amount", ErrInvalidRequest, req.Installments)
	}

	// --- GatewayCall ---
	// Detached from the caller so a dropped connection cannot orphan a
	// created intent; bounded by its own deadline instead.
	detached := context.WithoutCancel(ctx)

	params := &interfaces.GatewayIntentParams{
		Amount:         money.MinorUnits(money.FromFloat(chosen.TotalValue)),
		Currency:       s.currency,
		OrderID:        order.ID,
		UserID:         req.UserID,
		Installments:   req.Installments,
		IdempotencyKey: uuid.New().String(),
		Metadata:       s.intentMetadata(req, committableCoupon),
	}

	intent, err := s.callGateway(detached, params)
	if err != nil {
		s.recordGatewayFailure(detached, req, err)
		return nil, err
	}

	// --- Succeeded ---
	// The coupon burn happens only now that the gateway has confirmed
	// intent creation; failed payments never consume a redemption.
	if committableCoupon != "" {
		if err := s.discounts.Commit(detached, committableCoupon); err != nil {
			// The payment intent exists; an exhausted coupon at this
			// point is an audit concern, not a checkout failure.
			log.Warn().Err(err).Str("code", committableCoupon).Str("order_id", order.ID).
				Msg("coupon commit failed after successful intent creation")
			s.audit.Record(detached, &models.AuditLogEntry{
				Action:     models.AuditActionCouponCommit,
				Severity:   models.SeverityWarning,
				UserID:     req.UserID,
				Resource:   "coupon",
				ResourceID: committableCoupon,
				Success:    false,
				Details:    err.Error(),
			})
		} else {
			s.audit.Record(detached, &models.AuditLogEntry{
				Action:     models.AuditActionCouponCommit,
				Severity:   models.SeverityInfo,
				UserID:     req.UserID,
				Resource:   "coupon",
				ResourceID: committableCoupon,
				Success:    true,
			})
		}
	}

	if err := s.db.SetOrderPaymentIntent(detached, order.ID, intent.IntentID); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Str("intent_id", intent.IntentID).
			Msg("failed to write payment intent reference to order")
	}

	s.audit.Record(detached, &models.AuditLogEntry{
		Action:     models.AuditActionPaymentIntent,
		Severity:   models.SeverityInfo,
		UserID:     req.UserID,
		UserEmail:  req.UserEmail,
		Resource:   "order",
		ResourceID: order.ID,
		Success:    true,
		Details:    fmt.Sprintf("intent %s created for %.2f in %d installments", intent.IntentID, chosen.TotalValue, req.Installments),
	})

	return &models.PaymentIntentResult{
		PaymentIntentID: intent.IntentID,
		ClientSecret:    intent.ClientSecret,
		Amount:          chosen.TotalValue,
		Discount:        discountApplied,
		Installments:    req.Installments,
	}, nil
}

// validateRequest enforces the request invariants: positive amount and
// an installment count within [1,12].
func (s *PaymentServiceImpl) validateRequest(req *models.PaymentIntentRequest) error {
	if req == nil {
		return fmt.Errorf("%w: missing request", ErrInvalidRequest)
	}
	if req.OrderID == "" {
		return fmt.Errorf("%w: order_id is required", ErrInvalidRequest)
	}
	if req.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if req.Installments < 1 || req.Installments > maxInstallments {
		return fmt.Errorf("%w: installments must be between 1 and %d", ErrInvalidRequest, maxInstallments)
	}
	return nil
}

// callGateway invokes intent creation with a bounded timeout and exactly
// one retry on transient failure. Declines are final and never retried.
// The idempotency key is shared across both attempts so the gateway
// cannot create two intents for one checkout.
func (s *PaymentServiceImpl) callGateway(ctx context.Context, params *interfaces.GatewayIntentParams) (*models.GatewayIntent, error) {
	attempt := func() (*models.GatewayIntent, error) {
		callCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
		defer cancel()
		return s.gateway.CreateIntent(callCtx, params)
	}

	intent, err := attempt()
	if err == nil {
		return intent, nil
	}

	var unavailable *interfaces.GatewayUnavailableError
	if !errors.As(err, &unavailable) {
		return nil, err
	}

	log.Warn().Err(err).Str("order_id", params.OrderID).Msg("transient gateway failure, retrying once")

	return attempt()
}

// recordGatewayFailure audits a failed gateway call at the severity the
// failure class demands.
func (s *PaymentServiceImpl) recordGatewayFailure(ctx context.Context, req *models.PaymentIntentRequest, err error) {
	var declined *interfaces.GatewayDeclinedError
	if errors.As(err, &declined) {
		s.audit.Record(ctx, &models.AuditLogEntry{
			Action:     models.AuditActionPaymentDeclined,
			Severity:   models.SeverityWarning,
			UserID:     req.UserID,
			UserEmail:  req.UserEmail,
			Resource:   "order",
			ResourceID: req.OrderID,
			Success:    false,
			Details:    declined.Error(),
		})
		return
	}

	// Unreachable after the retry: infrastructure risk, not user error.
	s.audit.Record(ctx, &models.AuditLogEntry{
		Action:     models.AuditActionGatewayError,
		Severity:   models.SeverityCritical,
		UserID:     req.UserID,
		Resource:   "order",
		ResourceID: req.OrderID,
		Success:    false,
		Details:    err.Error(),
	})
}

// intentMetadata assembles the metadata forwarded to the gateway.
func (s *PaymentServiceImpl) intentMetadata(req *models.PaymentIntentRequest, couponCode string) map[string]string {
	metadata := make(map[string]string, len(req.Metadata)+4)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["order_id"] = req.OrderID
	metadata["user_id"] = req.UserID
	if couponCode != "" {
		metadata["coupon_code"] = couponCode
	}
	if len(req.Items) > 0 {
		metadata["item_count"] = fmt.Sprintf("%d", len(req.Items))
	}
	return metadata
}
