package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker reports whether the database answers queries
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// Pinger is a dependency that can report its own reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db       DatabaseChecker
	sessions Pinger
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. sessions may be nil for the
// in-memory session store.
func NewHealthHandler(db DatabaseChecker, sessions Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleHealth handles GET /healthz
// Always 200 while the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.sessions != nil {
		if err := h.sessions.Ping(ctx); err != nil {
			h.logger.Warn("session store health check failed", zap.Error(err))
			checks["sessions"] = "unhealthy"
			allHealthy = false
		} else {
			checks["sessions"] = "healthy"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Success: allHealthy, Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.HealthCheck(ctx)
}
