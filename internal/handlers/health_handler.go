package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db    interfaces.DatabaseInterface
	redis interfaces.RedisInterface
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db interfaces.DatabaseInterface, redis interfaces.RedisInterface) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// HandleHealth processes GET /health requests
func (hh *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	services := make(map[string]string)
	status := "healthy"

	if hh.db != nil {
		if err := hh.db.Ping(r.Context()); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		status = "degraded"
	}

	if hh.redis != nil {
		if err := hh.redis.Ping(r.Context()); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
		status = "degraded"
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	})
}
