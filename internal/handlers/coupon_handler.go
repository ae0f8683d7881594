package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
	"storefront-backend/internal/services"
)

// CouponHandler handles coupon validation HTTP requests
type CouponHandler struct {
	discounts interfaces.DiscountService
	audit     interfaces.AuditService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(discounts interfaces.DiscountService, audit interfaces.AuditService) *CouponHandler {
	return &CouponHandler{
		discounts: discounts,
		audit:     audit,
	}
}

// ValidateCouponRequest represents the coupon validation request structure
type ValidateCouponRequest struct {
	Code   string   `json:"code"`
	UserID string   `json:"user_id,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

// HandleValidateCoupon processes POST /coupons/validate requests.
// This is the preview path: it never consumes a redemption.
func (ch *CouponHandler) HandleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req ValidateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ch.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.Code == "" {
		ch.sendErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Amount != nil && *req.Amount <= 0 {
		ch.sendErrorResponse(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	result, err := ch.discounts.Validate(r.Context(), req.Code, req.Amount)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			ch.sendErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("coupon validation failed")
		ch.sendErrorResponse(w, http.StatusInternalServerError, "Unable to validate coupon at this time")
		return
	}

	ch.audit.Record(r.Context(), &models.AuditLogEntry{
		Action:     models.AuditActionCouponValidate,
		Severity:   models.SeverityInfo,
		UserID:     req.UserID,
		Resource:   "coupon",
		ResourceID: services.CanonicalCode(req.Code),
		Success:    result.Valid,
		Details:    couponAuditDetails(result),
	})

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// couponAuditDetails summarizes a validation outcome for the audit trail.
func couponAuditDetails(result *models.DiscountResult) string {
	if result.Valid {
		return fmt.Sprintf("discount %.2f (%s)", result.Discount, result.Type)
	}
	if result.Reason != "" {
		return result.Reason
	}
	return "unknown code"
}

// sendErrorResponse sends a standardized error response
func (ch *CouponHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: message})
}
