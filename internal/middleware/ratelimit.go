package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// RateLimit returns middleware that checks the per-action rate limit
// before the wrapped handler runs. Denials are answered with 429 and a
// Retry-After header, and recorded in the audit log.
func RateLimit(limiter interfaces.RateLimitService, audit interfaces.AuditService, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := ClientIdentity(r)

			decision, err := limiter.Check(r.Context(), identity, action)
			if err != nil {
				// Unknown action is a server misconfiguration.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: "internal error"})
				return
			}

			if !decision.Allowed {
				audit.Record(r.Context(), &models.AuditLogEntry{
					Action:     models.AuditActionRateLimited,
					Severity:   models.SeverityWarning,
					Resource:   "action",
					ResourceID: action,
					Success:    false,
					Details:    fmt.Sprintf("identity %s exceeded limit for %s", identity, action),
				})

				w.Header().Set("Content-Type", "application/json")
				if decision.RetryAfter > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(decision.RetryAfter.Seconds())+1))
				}
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIdentity derives the rate-limit identity from the request: the
// first hop of X-Forwarded-For when present, otherwise the remote
// address. Spoofable, and treated as defense in depth only.
func ClientIdentity(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
