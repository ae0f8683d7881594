package interfaces

import (
	"context"
	"fmt"

	"storefront-backend/internal/models"
)

// GatewayIntentParams carries everything the external payment gateway
// needs to create a payment intent. Amount is in minor units.
type GatewayIntentParams struct {
	Amount         int64
	Currency       string
	OrderID        string
	UserID         string
	Installments   int
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentGateway is the port to the external payment processor.
// Implementations classify failures as either a GatewayDeclinedError
// (final, never retried) or a GatewayUnavailableError (transient,
// retried once by the orchestrator).
type PaymentGateway interface {
	CreateIntent(ctx context.Context, params *GatewayIntentParams) (*models.GatewayIntent, error)
}

// GatewayDeclinedError means the processor refused the payment. This is
// a final business outcome, not a system fault.
type GatewayDeclinedError struct {
	Code    string
	Message string
}

func (e *GatewayDeclinedError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Message)
}

// GatewayUnavailableError means the processor could not be reached or
// failed transiently. Eligible for a single retry.
type GatewayUnavailableError struct {
	Err error
}

func (e *GatewayUnavailableError) Error() string {
	return fmt.Sprintf("payment gateway unavailable: %v", e.Err)
}

func (e *GatewayUnavailableError) Unwrap() error {
	return e.Err
}
