package handler

import (
	"net/http"
	"time"

	"captionclash/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Redis     string    `json:"redis"`
	Archive   string    `json:"archive,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "captionclash",
		Redis:     "ok",
	}

	status := http.StatusOK
	if err := h.container.RedisClient.Health(ctx); err != nil {
		response.Status = "degraded"
		response.Redis = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.container.DB != nil {
		response.Archive = "ok"
		if err := h.container.DB.Health(ctx); err != nil {
			response.Status = "degraded"
			response.Archive = "unreachable"
		}
	}

	respondJSON(w, status, response)
}
