package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// AuditServiceImpl implements interfaces.AuditService
type AuditServiceImpl struct {
	db interfaces.DatabaseInterface
}

// NewAuditService creates a new audit service
func NewAuditService(db interfaces.DatabaseInterface) *AuditServiceImpl {
	return &AuditServiceImpl{db: db}
}

// Record appends an entry to the audit log. Fire-and-forget for the
// caller: a failed write must not break the checkout path, but it is
// never silently dropped either; the entry lands in the local
// structured log instead.
//
// Only structural well-formedness is checked. Content is never a reason
// to reject an audit write.
func (s *AuditServiceImpl) Record(ctx context.Context, entry *models.AuditLogEntry) {
	if entry == nil || entry.Action == "" || entry.Severity == "" {
		log.Error().Interface("entry", entry).Msg("dropping malformed audit entry")
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	var insertErr error
	if s.db == nil {
		insertErr = errors.New("audit store not configured")
	} else {
		insertErr = s.db.InsertAuditEntry(ctx, entry)
	}
	if insertErr != nil {
		log.Error().Err(insertErr).
			Str("action", entry.Action).
			Str("severity", entry.Severity).
			Str("resource", entry.Resource).
			Str("resource_id", entry.ResourceID).
			Bool("success", entry.Success).
			Str("details", entry.Details).
			Msg("audit store unavailable, entry preserved in local log")
	}
}

// Query returns entries matching the filters, newest first, along with
// the total match count for pagination.
func (s *AuditServiceImpl) Query(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLogEntry, int, error) {
	if s.db == nil {
		return nil, 0, fmt.Errorf("%w: audit store not configured", ErrDependencyUnavailable)
	}

	entries, total, err := s.db.QueryAuditEntries(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: audit query: %v", ErrDependencyUnavailable, err)
	}

	return entries, total, nil
}

// Stats aggregates entries over the trailing windowDays days.
func (s *AuditServiceImpl) Stats(ctx context.Context, windowDays int) (*models.AuditLogStats, error) {
	if windowDays <= 0 {
		windowDays = 7
	}

	if s.db == nil {
		return nil, fmt.Errorf("%w: audit store not configured", ErrDependencyUnavailable)
	}

	stats, err := s.db.GetAuditStats(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("%w: audit stats: %v", ErrDependencyUnavailable, err)
	}

	return stats, nil
}
