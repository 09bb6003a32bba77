package handler

import (
	"context"
	"net/http"
	"time"

	"athena-be/pkg/logger"
)

const (
	serviceName    = "athena-be"
	serviceVersion = "1.0.0"
)

// HealthCheck probes one optional backing service
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests
type HealthHandler struct {
	checks map[string]HealthCheck
	logger *logger.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new health handler. Failing checks are
// reported but never turn the answer unhealthy, since every backing
// service except the pinning service is optional.
func NewHealthHandler(checks map[string]HealthCheck, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: log.Named("health_handler"),
		now:    time.Now,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Version:   serviceVersion,
		Service:   serviceName,
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		response.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
				response.Checks[name] = "unavailable"
				continue
			}
			response.Checks[name] = "ok"
		}
	}

	respondJSON(w, http.StatusOK, response)
}
