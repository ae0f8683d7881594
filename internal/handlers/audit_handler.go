package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	audit interfaces.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit interfaces.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// AuditLogResponse represents a page of audit entries
type AuditLogResponse struct {
	Logs    []models.AuditLogEntry `json:"logs"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
	HasMore bool                   `json:"has_more"`
}

// HandleQueryAuditLog processes GET /audit-log requests. All filters are
// optional and combined with AND; results are newest first.
func (ah *AuditHandler) HandleQueryAuditLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filters, err := parseAuditFilters(r)
	if err != nil {
		ah.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, total, err := ah.audit.Query(r.Context(), filters)
	if err != nil {
		log.Error().Err(err).Msg("audit log query failed")
		ah.sendErrorResponse(w, http.StatusInternalServerError, "Unable to query audit log at this time")
		return
	}

	if entries == nil {
		entries = []models.AuditLogEntry{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AuditLogResponse{
		Logs:    entries,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
		HasMore: filters.Offset+len(entries) < total,
	})
}

// HandleAuditStats processes GET /audit-log/stats requests
func (ah *AuditHandler) HandleAuditStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	days := 7
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 {
			ah.sendErrorResponse(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	stats, err := ah.audit.Stats(r.Context(), days)
	if err != nil {
		log.Error().Err(err).Msg("audit stats failed")
		ah.sendErrorResponse(w, http.StatusInternalServerError, "Unable to compute audit stats at this time")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

// parseAuditFilters reads the query-string filters for an audit query.
func parseAuditFilters(r *http.Request) (models.AuditLogFilters, error) {
	q := r.URL.Query()

	filters := models.AuditLogFilters{
		Action:     q.Get("action"),
		Severity:   q.Get("severity"),
		UserID:     q.Get("user_id"),
		UserEmail:  q.Get("user_email"),
		Resource:   q.Get("resource"),
		ResourceID: q.Get("resource_id"),
		Limit:      50,
	}

	if limitParam := q.Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 || limit > 500 {
			return filters, &auditFilterError{"limit must be between 1 and 500"}
		}
		filters.Limit = limit
	}

	if offsetParam := q.Get("offset"); offsetParam != "" {
		offset, err := strconv.Atoi(offsetParam)
		if err != nil || offset < 0 {
			return filters, &auditFilterError{"offset must be non-negative"}
		}
		filters.Offset = offset
	}

	if fromParam := q.Get("from"); fromParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return filters, &auditFilterError{"from must be an RFC3339 timestamp"}
		}
		filters.From = &from
	}

	if toParam := q.Get("to"); toParam != "" {
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return filters, &auditFilterError{"to must be an RFC3339 timestamp"}
		}
		filters.To = &to
	}

	if successParam := q.Get("success"); successParam != "" {
		success, err := strconv.ParseBool(successParam)
		if err != nil {
			return filters, &auditFilterError{"success must be true or false"}
		}
		filters.Success = &success
	}

	return filters, nil
}

type auditFilterError struct {
	msg string
}

func (e *auditFilterError) Error() string {
	return e.msg
}

// sendErrorResponse sends a standardized error response
func (ah *AuditHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: message})
}
