package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
)

// ModelNamer reports which vision model serves diagnoses
type ModelNamer interface {
	Model() string
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db       *sql.DB
	provider string
	oracle   ModelNamer
	logger   *logger.Logger
}

// NewHealthHandler creates a new health handler. provider names the oracle
// backend reported by the readiness probe.
func NewHealthHandler(db *sql.DB, provider string, oracle ModelNamer, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		provider: provider,
		oracle:   oracle,
		logger:   log,
	}
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Description Check if the application is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /health [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Readyz handles readiness probe
// @Summary Readiness probe
// @Description Check if the application is ready to serve requests
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Database reachable, oracle backend and model"
// @Failure 503 {object} utils.ErrorResponse "Service unavailable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	// Check database connection
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Database ping failed")
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database connection failed")
		return
	}

	if h.oracle == nil {
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "No vision model configured")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "connected",
		"oracle":   h.provider,
		"model":    h.oracle.Model(),
	})
}
