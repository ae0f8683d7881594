package handlers

import (
	"context"
	"sync"

	"storefront-backend/internal/models"
)

// mockDiscountService implements interfaces.DiscountService with scripted
// outcomes.
type mockDiscountService struct {
	result *models.DiscountResult
	err    error

	commitErr   error
	commitCalls int
}

func (m *mockDiscountService) Validate(ctx context.Context, code string, purchaseAmount *float64) (*models.DiscountResult, error) {
	return m.result, m.err
}

func (m *mockDiscountService) Commit(ctx context.Context, code string) error {
	m.commitCalls++
	return m.commitErr
}

// mockAuditService implements interfaces.AuditService, capturing records.
type mockAuditService struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry

	queryEntries []models.AuditLogEntry
	queryTotal   int
	queryErr     error
	lastFilters  *models.AuditLogFilters

	stats    *models.AuditLogStats
	statsErr error
}

func (m *mockAuditService) Record(ctx context.Context, entry *models.AuditLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry != nil {
		m.entries = append(m.entries, *entry)
	}
}

func (m *mockAuditService) Query(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLogEntry, int, error) {
	m.lastFilters = &filters
	return m.queryEntries, m.queryTotal, m.queryErr
}

func (m *mockAuditService) Stats(ctx context.Context, windowDays int) (*models.AuditLogStats, error) {
	return m.stats, m.statsErr
}

// mockPaymentService implements interfaces.PaymentService
type mockPaymentService struct {
	result  *models.PaymentIntentResult
	err     error
	lastReq *models.PaymentIntentRequest
}

func (m *mockPaymentService) CreatePaymentIntent(ctx context.Context, req *models.PaymentIntentRequest) (*models.PaymentIntentResult, error) {
	m.lastReq = req
	return m.result, m.err
}

// allowAllLimiter implements interfaces.RateLimitService, always allowing.
type allowAllLimiter struct{}

func (a *allowAllLimiter) Check(ctx context.Context, identity, action string) (*models.RateLimitDecision, error) {
	return &models.RateLimitDecision{Allowed: true, Remaining: 1}, nil
}
