package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-backend/internal/models"
)

type stubLimiter struct {
	decision   *models.RateLimitDecision
	err        error
	lastKey    string
	lastAction string
}

func (s *stubLimiter) Check(ctx context.Context, identity, action string) (*models.RateLimitDecision, error) {
	s.lastKey = identity
	s.lastAction = action
	return s.decision, s.err
}

type stubAudit struct {
	entries []models.AuditLogEntry
}

func (s *stubAudit) Record(ctx context.Context, entry *models.AuditLogEntry) {
	if entry != nil {
		s.entries = append(s.entries, *entry)
	}
}

func (s *stubAudit) Query(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLogEntry, int, error) {
	return nil, 0, nil
}

func (s *stubAudit) Stats(ctx context.Context, windowDays int) (*models.AuditLogStats, error) {
	return nil, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AllowsRequest(t *testing.T) {
	limiter := &stubLimiter{decision: &models.RateLimitDecision{Allowed: true, Remaining: 2}}
	audit := &stubAudit{}

	handler := RateLimit(limiter, audit, "register")(okHandler())

	req := httptest.NewRequest("POST", "/register", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}
	if limiter.lastKey != "10.0.0.1" {
		t.Errorf("Expected identity 10.0.0.1, got: %q", limiter.lastKey)
	}
	if limiter.lastAction != "register" {
		t.Errorf("Expected action register, got: %q", limiter.lastAction)
	}
	if len(audit.entries) != 0 {
		t.Errorf("Expected no audit entries for allowed request, got: %d", len(audit.entries))
	}
}

func TestRateLimitMiddleware_DeniesWithRetryAfter(t *testing.T) {
	limiter := &stubLimiter{
		decision: &models.RateLimitDecision{Allowed: false, RetryAfter: 90 * time.Second},
	}
	audit := &stubAudit{}

	handler := RateLimit(limiter, audit, "register")(okHandler())

	req := httptest.NewRequest("POST", "/register", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got: %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "91" {
		t.Errorf("Expected Retry-After 91, got: %q", got)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("Expected 1 audit entry, got: %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.Action != models.AuditActionRateLimited || entry.Severity != models.SeverityWarning {
		t.Errorf("Expected WARNING rate_limited entry, got: %+v", entry)
	}
}

func TestRateLimitMiddleware_CheckErrorIsInternal(t *testing.T) {
	limiter := &stubLimiter{err: context.DeadlineExceeded}

	handler := RateLimit(limiter, &stubAudit{}, "register")(okHandler())

	req := httptest.NewRequest("POST", "/register", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got: %d", w.Code)
	}
}

func TestClientIdentity(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr only", "10.0.0.1:54321", "", "10.0.0.1"},
		{"single forwarded hop", "10.0.0.1:54321", "203.0.113.7", "203.0.113.7"},
		{"multiple forwarded hops", "10.0.0.1:54321", "203.0.113.7, 70.41.3.18", "203.0.113.7"},
		{"forwarded with spaces", "10.0.0.1:54321", "  203.0.113.7  ", "203.0.113.7"},
		{"unparseable remote addr", "not-an-addr", "", "not-an-addr"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tc.remoteAddr
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}

		if got := ClientIdentity(req); got != tc.want {
			t.Errorf("%s: expected %q, got: %q", tc.name, tc.want, got)
		}
	}
}
