package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// StripeGateway implements interfaces.PaymentGateway over the Stripe API.
//
// Retry policy lives in the orchestrator, not here: the SDK's own network
// retries are disabled so "exactly one retry on transient failure" holds
// end to end.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway client with a bounded HTTP timeout.
func NewStripeGateway(apiKey string) *StripeGateway {
	config := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 10 * time.Second},
		MaxNetworkRetries: stripe.Int64(0),
	}

	api := &client.API{}
	api.Init(apiKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, config),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, config),
	})

	return &StripeGateway{api: api}
}

// CreateIntent creates a payment intent for the given amount and
// installment plan. Failures are classified so the orchestrator can
// tell final declines apart from transient transport faults.
func (g *StripeGateway) CreateIntent(ctx context.Context, params *interfaces.GatewayIntentParams) (*models.GatewayIntent, error) {
	intentParams := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(params.IdempotencyKey),
		},
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(params.Currency),
	}

	for k, v := range params.Metadata {
		intentParams.AddMetadata(k, v)
	}

	if params.Installments > 1 {
		intentParams.PaymentMethodOptions = &stripe.PaymentIntentPaymentMethodOptionsParams{
			Card: &stripe.PaymentIntentPaymentMethodOptionsCardParams{
				Installments: &stripe.PaymentIntentPaymentMethodOptionsCardInstallmentsParams{
					Enabled: stripe.Bool(true),
					Plan: &stripe.PaymentIntentPaymentMethodOptionsCardInstallmentsPlanParams{
						Count:    stripe.Int64(int64(params.Installments)),
						Interval: stripe.String(string(stripe.PaymentIntentPaymentMethodOptionsCardInstallmentsPlanIntervalMonth)),
						Type:     stripe.String(string(stripe.PaymentIntentPaymentMethodOptionsCardInstallmentsPlanTypeFixedCount)),
					},
				},
			},
		}
	}

	intent, err := g.api.PaymentIntents.New(intentParams)
	if err != nil {
		return nil, classifyStripeError(err)
	}

	return &models.GatewayIntent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
	}, nil
}

// classifyStripeError maps Stripe failures onto the gateway error
// taxonomy. Card errors and request validation are final; everything
// else (timeouts, 5xx, transport faults) is transient.
func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard:
			return &interfaces.GatewayDeclinedError{
				Code:    string(stripeErr.DeclineCode),
				Message: stripeErr.Msg,
			}
		case stripe.ErrorTypeInvalidRequest:
			return &interfaces.GatewayDeclinedError{
				Code:    string(stripeErr.Code),
				Message: stripeErr.Msg,
			}
		}
		if stripeErr.HTTPStatusCode >= 500 || stripeErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &interfaces.GatewayUnavailableError{Err: err}
		}
		return &interfaces.GatewayDeclinedError{
			Code:    string(stripeErr.Code),
			Message: stripeErr.Msg,
		}
	}

	// Not a structured API error: transport failure, timeout, DNS.
	return &interfaces.GatewayUnavailableError{Err: err}
}
