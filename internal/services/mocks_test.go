package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// MockDatabase implements interfaces.DatabaseInterface
type MockDatabase struct {
	mu           sync.Mutex
	coupons      map[string]*models.Coupon
	orders       map[string]*models.Order
	auditEntries []models.AuditLogEntry
	shouldError  bool
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{
		coupons: make(map[string]*models.Coupon),
		orders:  make(map[string]*models.Order),
	}
}

func (m *MockDatabase) Close() error                   { return nil }
func (m *MockDatabase) Ping(ctx context.Context) error { return nil }
func (m *MockDatabase) Stats() sql.DBStats             { return sql.DBStats{} }

func (m *MockDatabase) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return nil, errors.New("mock database error")
	}

	coupon, exists := m.coupons[code]
	if !exists {
		return nil, nil
	}
	copied := *coupon
	return &copied, nil
}

func (m *MockDatabase) CommitCouponUsage(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return false, errors.New("mock database error")
	}

	coupon, exists := m.coupons[code]
	if !exists || !coupon.IsActive {
		return false, nil
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return false, nil
	}
	coupon.UsageCount++
	return true, nil
}

func (m *MockDatabase) InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return errors.New("mock database error")
	}

	m.auditEntries = append(m.auditEntries, *entry)
	return nil
}

func (m *MockDatabase) QueryAuditEntries(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLogEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return nil, 0, errors.New("mock database error")
	}

	var matched []models.AuditLogEntry
	for _, e := range m.auditEntries {
		if auditEntryMatches(e, filters) {
			matched = append(matched, e)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := len(matched)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filters.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return matched[offset:end], total, nil
}

func auditEntryMatches(e models.AuditLogEntry, filters models.AuditLogFilters) bool {
	if filters.Action != "" && e.Action != filters.Action {
		return false
	}
	if filters.Severity != "" && e.Severity != filters.Severity {
		return false
	}
	if filters.UserID != "" && e.UserID != filters.UserID {
		return false
	}
	if filters.UserEmail != "" && e.UserEmail != filters.UserEmail {
		return false
	}
	if filters.Resource != "" && e.Resource != filters.Resource {
		return false
	}
	if filters.ResourceID != "" && e.ResourceID != filters.ResourceID {
		return false
	}
	if filters.From != nil && e.Timestamp.Before(*filters.From) {
		return false
	}
	if filters.To != nil && e.Timestamp.After(*filters.To) {
		return false
	}
	if filters.Success != nil && e.Success != *filters.Success {
		return false
	}
	return true
}

func (m *MockDatabase) GetAuditStats(ctx context.Context, windowDays int) (*models.AuditLogStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return nil, errors.New("mock database error")
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	stats := &models.AuditLogStats{
		WindowDays: windowDays,
		ByAction:   make(map[string]int),
		BySeverity: make(map[string]int),
	}

	for _, e := range m.auditEntries {
		if e.Timestamp.Before(since) {
			continue
		}
		stats.Total++
		if !e.Success {
			stats.Failures++
		}
		stats.ByAction[e.Action]++
		stats.BySeverity[e.Severity]++
	}

	return stats, nil
}

func (m *MockDatabase) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return nil, errors.New("mock database error")
	}

	order, exists := m.orders[orderID]
	if !exists {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (m *MockDatabase) SetOrderPaymentIntent(ctx context.Context, orderID, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return errors.New("mock database error")
	}

	order, exists := m.orders[orderID]
	if !exists {
		return errors.New("order not found")
	}
	order.PaymentIntentID = intentID
	return nil
}

// auditEntriesByAction returns recorded audit entries for an action.
func (m *MockDatabase) auditEntriesByAction(action string) []models.AuditLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []models.AuditLogEntry
	for _, e := range m.auditEntries {
		if e.Action == action {
			entries = append(entries, e)
		}
	}
	return entries
}

// windowRecord backs one fixed-window counter in MockRedis.
type windowRecord struct {
	count     int64
	expiresAt time.Time
}

// MockRedis implements interfaces.RedisInterface
type MockRedis struct {
	mu          sync.Mutex
	windows     map[string]*windowRecord
	cached      map[string]*models.Coupon
	shouldError bool

	// now is swappable so window expiry can be tested
	now func() time.Time
}

func NewMockRedis() *MockRedis {
	return &MockRedis{
		windows: make(map[string]*windowRecord),
		cached:  make(map[string]*models.Coupon),
		now:     time.Now,
	}
}

func (m *MockRedis) Close() error                   { return nil }
func (m *MockRedis) Ping(ctx context.Context) error { return nil }

func (m *MockRedis) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return 0, 0, errors.New("mock redis error")
	}

	now := m.now()
	record, exists := m.windows[key]
	if !exists || now.After(record.expiresAt) {
		record = &windowRecord{count: 0, expiresAt: now.Add(window)}
		m.windows[key] = record
	}

	record.count++
	return record.count, record.expiresAt.Sub(now), nil
}

func (m *MockRedis) GetCachedCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return nil, errors.New("mock redis error")
	}

	coupon, exists := m.cached[code]
	if !exists {
		return nil, nil
	}
	copied := *coupon
	return &copied, nil
}

func (m *MockRedis) CacheCoupon(ctx context.Context, coupon *models.Coupon, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldError {
		return errors.New("mock redis error")
	}

	copied := *coupon
	m.cached[coupon.Code] = &copied
	return nil
}

func (m *MockRedis) InvalidateCoupon(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cached, code)
	return nil
}

func (m *MockRedis) GetConnectionStats() interface{} { return nil }

// MockGateway implements interfaces.PaymentGateway with scripted
// per-call outcomes.
type MockGateway struct {
	mu sync.Mutex

	// results are consumed one per call; a nil error pairs with intent
	results []mockGatewayResult

	calls  int
	params []*interfaces.GatewayIntentParams
}

type mockGatewayResult struct {
	intent *models.GatewayIntent
	err    error
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) queueSuccess(intentID, clientSecret string, amount int64) {
	m.results = append(m.results, mockGatewayResult{
		intent: &models.GatewayIntent{IntentID: intentID, ClientSecret: clientSecret, Amount: amount},
	})
}

func (m *MockGateway) queueError(err error) {
	m.results = append(m.results, mockGatewayResult{err: err})
}

func (m *MockGateway) CreateIntent(ctx context.Context, params *interfaces.GatewayIntentParams) (*models.GatewayIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.params = append(m.params, params)

	if len(m.results) == 0 {
		return nil, errors.New("mock gateway: no scripted result")
	}

	result := m.results[0]
	m.results = m.results[1:]
	return result.intent, result.err
}
