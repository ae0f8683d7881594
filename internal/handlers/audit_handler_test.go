package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-backend/internal/models"
)

func TestAuditHandler_QueryReturnsPage(t *testing.T) {
	audit := &mockAuditService{
		queryEntries: []models.AuditLogEntry{
			{ID: "1", Action: models.AuditActionPaymentIntent, Severity: models.SeverityInfo, Success: true},
			{ID: "2", Action: models.AuditActionPaymentIntent, Severity: models.SeverityInfo, Success: true},
		},
		queryTotal: 10,
	}
	handler := NewAuditHandler(audit)

	req := httptest.NewRequest("GET", "/audit-log?action=payment_intent&limit=2", nil)
	w := httptest.NewRecorder()

	handler.HandleQueryAuditLog(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var resp AuditLogResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Logs) != 2 || resp.Total != 10 || resp.Limit != 2 {
		t.Errorf("Expected page of 2 with total 10, got: %+v", resp)
	}
	if !resp.HasMore {
		t.Error("Expected has_more to be true")
	}

	if audit.lastFilters == nil || audit.lastFilters.Action != "payment_intent" {
		t.Errorf("Expected action filter to be forwarded, got: %+v", audit.lastFilters)
	}
}

func TestAuditHandler_QueryForwardsAllFilters(t *testing.T) {
	audit := &mockAuditService{}
	handler := NewAuditHandler(audit)

	url := "/audit-log?action=payment_intent&severity=WARNING&user_id=u1&user_email=u1@example.com" +
		"&resource=order&resource_id=order-1&from=2024-03-01T00:00:00Z&to=2024-03-02T00:00:00Z" +
		"&success=false&limit=25&offset=50"
	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()

	handler.HandleQueryAuditLog(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	f := audit.lastFilters
	if f == nil {
		t.Fatal("Expected filters to reach the service")
	}
	if f.Severity != "WARNING" || f.UserID != "u1" || f.UserEmail != "u1@example.com" {
		t.Errorf("Expected identity filters forwarded, got: %+v", f)
	}
	if f.Resource != "order" || f.ResourceID != "order-1" {
		t.Errorf("Expected resource filters forwarded, got: %+v", f)
	}
	if f.Limit != 25 || f.Offset != 50 {
		t.Errorf("Expected pagination forwarded, got limit=%d offset=%d", f.Limit, f.Offset)
	}
	if f.From == nil || !f.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected from timestamp forwarded, got: %v", f.From)
	}
	if f.Success == nil || *f.Success != false {
		t.Errorf("Expected success filter forwarded, got: %v", f.Success)
	}
}

func TestAuditHandler_QueryBadParams(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"limit too large", "/audit-log?limit=501"},
		{"limit zero", "/audit-log?limit=0"},
		{"negative offset", "/audit-log?offset=-1"},
		{"bad from", "/audit-log?from=yesterday"},
		{"bad to", "/audit-log?to=tomorrow"},
		{"bad success", "/audit-log?success=maybe"},
	}

	for _, tc := range cases {
		handler := NewAuditHandler(&mockAuditService{})

		req := httptest.NewRequest("GET", tc.url, nil)
		w := httptest.NewRecorder()

		handler.HandleQueryAuditLog(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got: %d", tc.name, w.Code)
		}
	}
}

func TestAuditHandler_QueryEmptyResultIsEmptyArray(t *testing.T) {
	handler := NewAuditHandler(&mockAuditService{})

	req := httptest.NewRequest("GET", "/audit-log", nil)
	w := httptest.NewRecorder()

	handler.HandleQueryAuditLog(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var resp AuditLogResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Logs == nil {
		t.Error("Expected logs to serialize as an empty array, not null")
	}
	if resp.HasMore {
		t.Error("Expected has_more to be false for an empty result")
	}
}

func TestAuditHandler_QueryServiceFailure(t *testing.T) {
	handler := NewAuditHandler(&mockAuditService{queryErr: errors.New("store unreachable")})

	req := httptest.NewRequest("GET", "/audit-log", nil)
	w := httptest.NewRecorder()

	handler.HandleQueryAuditLog(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got: %d", w.Code)
	}
}

func TestAuditHandler_Stats(t *testing.T) {
	audit := &mockAuditService{
		stats: &models.AuditLogStats{
			WindowDays: 30,
			Total:      100,
			Failures:   4,
			ByAction:   map[string]int{models.AuditActionPaymentIntent: 60},
			BySeverity: map[string]int{models.SeverityInfo: 96},
		},
	}
	handler := NewAuditHandler(audit)

	req := httptest.NewRequest("GET", "/audit-log/stats?days=30", nil)
	w := httptest.NewRecorder()

	handler.HandleAuditStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var stats models.AuditLogStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats.Total != 100 || stats.Failures != 4 || stats.WindowDays != 30 {
		t.Errorf("Expected stats passthrough, got: %+v", stats)
	}
}

func TestAuditHandler_StatsBadDays(t *testing.T) {
	for _, daysParam := range []string{"abc", "0", "-7"} {
		handler := NewAuditHandler(&mockAuditService{})

		req := httptest.NewRequest("GET", "/audit-log/stats?days="+daysParam, nil)
		w := httptest.NewRecorder()

		handler.HandleAuditStats(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("days=%s: expected status 400, got: %d", daysParam, w.Code)
		}
	}
}
