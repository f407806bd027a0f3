// Package handler provides HTTP handlers for the NutriWeek API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/nutriweek/nutriweek/internal/api/models"
	"github.com/nutriweek/nutriweek/internal/api/response"
	"github.com/nutriweek/nutriweek/internal/featureflags"
	"github.com/nutriweek/nutriweek/internal/nutrition"
)

// Pinger checks a dependency's liveness. *pgxpool.Pool satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies probed by the operational endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// DB may be nil when running without a database (tests).
	DB Pinger

	// Generator reports whether plan generation is configured.
	Generator *nutrition.Service

	// BreakerState returns the generation circuit breaker state name.
	// May be nil when no upstream client is wired.
	BreakerState func() string

	// Flags may be nil.
	Flags *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails when
// the database is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cfg.DB.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status,
// including the generation breaker state and active degradation flags.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	overall := models.HealthStatusOK

	var subsystems []models.SubsystemStatus
	if h.cfg.DB != nil {
		dbStatus := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := h.cfg.DB.Ping(ctx); err != nil {
			detail := err.Error()
			dbStatus.Status = models.HealthStatusFail
			dbStatus.Detail = &detail
			overall = models.HealthStatusFail
		}
		cancel()
		subsystems = append(subsystems, dbStatus)
	}

	var degradations []string

	genStatus := models.ProviderStatus{Provider: "gemini", Status: models.HealthStatusOK}
	if h.cfg.Generator == nil || !h.cfg.Generator.Configured() {
		msg := "generation gateway is not configured"
		genStatus.Status = models.HealthStatusFail
		genStatus.Message = &msg
		degradations = append(degradations, "generation_unconfigured")
		if overall == models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}
	} else if h.cfg.BreakerState != nil {
		switch state := h.cfg.BreakerState(); state {
		case "open":
			msg := "circuit breaker open"
			genStatus.Status = models.HealthStatusFail
			genStatus.Message = &msg
			if overall == models.HealthStatusOK {
				overall = models.HealthStatusDegraded
			}
		case "half-open":
			msg := "circuit breaker half-open"
			genStatus.Status = models.HealthStatusDegraded
			genStatus.Message = &msg
			if overall == models.HealthStatusOK {
				overall = models.HealthStatusDegraded
			}
		}
	}

	if h.cfg.Flags != nil && h.cfg.Flags.IsGenerationDisabled(r.Context()) {
		degradations = append(degradations, featureflags.FlagDisableGeneration)
		if overall == models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}
	}

	status := models.SystemStatus{
		Status:                 overall,
		Time:                   now,
		Subsystems:             subsystems,
		Providers:              []models.ProviderStatus{genStatus},
		ActiveDegradationFlags: degradations,
	}
	response.JSON(w, r, http.StatusOK, status)
}
