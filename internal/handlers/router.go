package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/middleware"
	"storefront-backend/internal/services"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Discounts    interfaces.DiscountService
	Installments interfaces.InstallmentService
	Payments     interfaces.PaymentService
	Audit        interfaces.AuditService
	RateLimiter  interfaces.RateLimitService
	DB           interfaces.DatabaseInterface
	Redis        interfaces.RedisInterface
}

// NewRouter builds the HTTP router for the storefront checkout API.
// Every mutating endpoint passes through its rate limit before any
// other processing.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	couponHandler := NewCouponHandler(deps.Discounts, deps.Audit)
	installmentHandler := NewInstallmentHandler(deps.Installments)
	paymentHandler := NewPaymentHandler(deps.Payments)
	auditHandler := NewAuditHandler(deps.Audit)
	healthHandler := NewHealthHandler(deps.DB, deps.Redis)

	r.Route("/coupons", func(r chi.Router) {
		r.With(middleware.RateLimit(deps.RateLimiter, deps.Audit, services.ActionCouponValidate)).
			Post("/validate", couponHandler.HandleValidateCoupon)
	})

	r.Get("/installment-options", installmentHandler.HandleInstallmentOptions)

	r.With(middleware.RateLimit(deps.RateLimiter, deps.Audit, services.ActionPayment)).
		Post("/payment-intents", paymentHandler.HandleCreatePaymentIntent)

	r.Route("/audit-log", func(r chi.Router) {
		r.Get("/", auditHandler.HandleQueryAuditLog)
		r.Get("/stats", auditHandler.HandleAuditStats)
	})

	r.Get("/health", healthHandler.HandleHealth)

	return r
}
