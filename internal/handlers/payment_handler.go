package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
	"storefront-backend/internal/services"
)

// PaymentHandler handles payment intent HTTP requests
type PaymentHandler struct {
	payments interfaces.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments interfaces.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// HandleCreatePaymentIntent processes POST /payment-intents requests.
//
// The response distinguishes outcomes the customer can act on (bad
// input, declined card) from system faults, which surface as a generic
// internal error with no infrastructure detail.
func (ph *PaymentHandler) HandleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.PaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ph.sendErrorResponse(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	result, err := ph.payments.CreatePaymentIntent(r.Context(), &req)
	if err != nil {
		ph.sendPaymentError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// sendPaymentError maps orchestrator failures onto HTTP outcomes.
func (ph *PaymentHandler) sendPaymentError(w http.ResponseWriter, err error) {
	var declined *interfaces.GatewayDeclinedError

	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		ph.sendErrorResponse(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, services.ErrOrderNotFound):
		ph.sendErrorResponse(w, http.StatusNotFound, "order not found")

	case errors.As(err, &declined):
		// Final business outcome: the customer needs a different card
		// or payment method, so the reason is surfaced.
		ph.sendErrorResponse(w, http.StatusPaymentRequired, declined.Message)

	default:
		log.Error().Err(err).Msg("payment intent creation failed")
		ph.sendErrorResponse(w, http.StatusInternalServerError, "Unable to process payment at this time")
	}
}

// sendErrorResponse sends a standardized error response
func (ph *PaymentHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: message})
}
