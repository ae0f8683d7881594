package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"storefront-backend/internal/models"

	_ "github.com/lib/pq"
)

// PostgresDB implements interfaces.DatabaseInterface
type PostgresDB struct {
	db *sql.DB

	// Prepared statements for the hot checkout path
	getCouponByCodeStmt       *sql.Stmt
	commitCouponUsageStmt     *sql.Stmt
	insertAuditEntryStmt      *sql.Stmt
	getOrderByIDStmt          *sql.Stmt
	setOrderPaymentIntentStmt *sql.Stmt
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for high request concurrency
	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pgDB := &PostgresDB{db: db}

	if err := pgDB.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return pgDB, nil
}

func (p *PostgresDB) prepareStatements() error {
	var err error

	p.getCouponByCodeStmt, err = p.db.Prepare(`
		SELECT id, code, type, value, min_amount, max_amount, start_date, end_date,
		       usage_limit, usage_count, is_active, created_at, updated_at
		FROM coupons
		WHERE code = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare getCouponByCode statement: %w", err)
	}

	// The conditional UPDATE is the concurrency guard: the increment only
	// lands while usage_count is still below usage_limit, so two commits
	// racing for the last redemption cannot both succeed.
	p.commitCouponUsageStmt, err = p.db.Prepare(`
		UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE code = $1
		  AND is_active = true
		  AND (usage_limit IS NULL OR usage_count < usage_limit)`)
	if err != nil {
		return fmt.Errorf("failed to prepare commitCouponUsage statement: %w", err)
	}

	p.insertAuditEntryStmt, err = p.db.Prepare(`
		INSERT INTO audit_log (id, timestamp, action, severity, user_id, user_email,
		                       resource, resource_id, success, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insertAuditEntry statement: %w", err)
	}

	p.getOrderByIDStmt, err = p.db.Prepare(`
		SELECT id, user_id, subtotal, shipping_fee, COALESCE(payment_intent_id, ''), created_at
		FROM orders
		WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare getOrderByID statement: %w", err)
	}

	p.setOrderPaymentIntentStmt, err = p.db.Prepare(`
		UPDATE orders
		SET payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare setOrderPaymentIntent statement: %w", err)
	}

	return nil
}

// Connection management
func (p *PostgresDB) Close() error {
	for _, stmt := range []*sql.Stmt{
		p.getCouponByCodeStmt,
		p.commitCouponUsageStmt,
		p.insertAuditEntryStmt,
		p.getOrderByIDStmt,
		p.setOrderPaymentIntentStmt,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}

	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) Stats() sql.DBStats {
	return p.db.Stats()
}

// Coupon operations

func (p *PostgresDB) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon := &models.Coupon{}

	err := p.getCouponByCodeStmt.QueryRowContext(ctx, code).Scan(
		&coupon.ID, &coupon.Code, &coupon.Type, &coupon.Value,
		&coupon.MinAmount, &coupon.MaxAmount, &coupon.StartDate, &coupon.EndDate,
		&coupon.UsageLimit, &coupon.UsageCount, &coupon.IsActive,
		&coupon.CreatedAt, &coupon.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Coupon not found
		}
		return nil, fmt.Errorf("failed to get coupon by code: %w", err)
	}

	return coupon, nil
}

func (p *PostgresDB) CommitCouponUsage(ctx context.Context, code string) (bool, error) {
	result, err := p.commitCouponUsageStmt.ExecContext(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to commit coupon usage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// Audit operations

func (p *PostgresDB) InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	_, err := p.insertAuditEntryStmt.ExecContext(ctx,
		entry.ID, entry.Timestamp, entry.Action, entry.Severity,
		nullIfEmpty(entry.UserID), nullIfEmpty(entry.UserEmail),
		nullIfEmpty(entry.Resource), nullIfEmpty(entry.ResourceID),
		entry.Success, nullIfEmpty(entry.Details))

	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

func (p *PostgresDB) QueryAuditEntries(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLogEntry, int, error) {
	where, args := buildAuditWhere(filters)

	// Total first so callers can compute has_more
	var total int
	countQuery := "SELECT COUNT(*) FROM audit_log" + where
	if err := p.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT id, timestamp, action, severity, COALESCE(user_id, ''), COALESCE(user_email, ''),
		       COALESCE(resource, ''), COALESCE(resource_id, ''), success, COALESCE(details, '')
		FROM audit_log%s
		ORDER BY timestamp DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.Severity,
			&e.UserID, &e.UserEmail, &e.Resource, &e.ResourceID,
			&e.Success, &e.Details); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, total, nil
}

func (p *PostgresDB) GetAuditStats(ctx context.Context, windowDays int) (*models.AuditLogStats, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	stats := &models.AuditLogStats{
		WindowDays: windowDays,
		ByAction:   make(map[string]int),
		BySeverity: make(map[string]int),
	}

	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE success = false)
		FROM audit_log
		WHERE timestamp >= $1`, since).Scan(&stats.Total, &stats.Failures)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit totals: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT action, COUNT(*)
		FROM audit_log
		WHERE timestamp >= $1
		GROUP BY action`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit action counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		stats.ByAction[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate action counts: %w", err)
	}

	sevRows, err := p.db.QueryContext(ctx, `
		SELECT severity, COUNT(*)
		FROM audit_log
		WHERE timestamp >= $1
		GROUP BY severity`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit severity counts: %w", err)
	}
	defer sevRows.Close()

	for sevRows.Next() {
		var severity string
		var count int
		if err := sevRows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan severity count: %w", err)
		}
		stats.BySeverity[severity] = count
	}
	if err := sevRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate severity counts: %w", err)
	}

	return stats, nil
}

// Order operations

func (p *PostgresDB) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	order := &models.Order{}

	err := p.getOrderByIDStmt.QueryRowContext(ctx, orderID).Scan(
		&order.ID, &order.UserID, &order.Subtotal, &order.ShippingFee,
		&order.PaymentIntentID, &order.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Order not found
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}

	return order, nil
}

func (p *PostgresDB) SetOrderPaymentIntent(ctx context.Context, orderID, intentID string) error {
	result, err := p.setOrderPaymentIntentStmt.ExecContext(ctx, orderID, intentID)
	if err != nil {
		return fmt.Errorf("failed to set order payment intent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}

	return nil
}

// Helpers

// buildAuditWhere assembles the conjunctive WHERE clause for audit
// queries. Returns the clause (with leading " WHERE" when non-empty)
// and the positional args.
func buildAuditWhere(filters models.AuditLogFilters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filters.Action != "" {
		add("action = $%d", filters.Action)
	}
	if filters.Severity != "" {
		add("severity = $%d", filters.Severity)
	}
	if filters.UserID != "" {
		add("user_id = $%d", filters.UserID)
	}
	if filters.UserEmail != "" {
		add("user_email = $%d", filters.UserEmail)
	}
	if filters.Resource != "" {
		add("resource = $%d", filters.Resource)
	}
	if filters.ResourceID != "" {
		add("resource_id = $%d", filters.ResourceID)
	}
	if filters.From != nil {
		add("timestamp >= $%d", *filters.From)
	}
	if filters.To != nil {
		add("timestamp <= $%d", *filters.To)
	}
	if filters.Success != nil {
		add("success = $%d", *filters.Success)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// nullIfEmpty maps empty strings to SQL NULL for optional columns.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
