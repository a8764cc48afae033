package handlers

import (
	"net/http"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/api/dto"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
)

// TrialHandler handles the free trial endpoints
type TrialHandler struct {
	userService user.Service
	analytics   analytics.Service
	logger      *logger.Logger
	now         func() time.Time
}

// NewTrialHandler creates a new trial handler
func NewTrialHandler(userService user.Service, analyticsService analytics.Service, log *logger.Logger) *TrialHandler {
	return &TrialHandler{
		userService: userService,
		analytics:   analyticsService,
		logger:      log,
		now:         time.Now,
	}
}

// Start begins the one-time 30 day trial
// @Summary Start the free trial
// @Tags Trial
// @Produce json
// @Success 200 {object} dto.TrialStartResponse
// @Failure 400 {object} utils.ErrorResponse "Premium, or trial already used"
// @Security BearerAuth
// @Router /trial/start [post]
func (h *TrialHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, daysLeft, err := h.userService.StartTrial(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to start trial")
		return
	}

	if _, err := h.analytics.LogActivity(r.Context(), userID, analytics.ActivityTrialStarted, map[string]interface{}{
		"trialStartDate": u.TrialStartedAt,
	}); err != nil {
		h.logger.With("user_id", userID).WarnWithErr(err, "Failed to log activity")
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Your 30-day trial has started!", dto.TrialStartResponse{
		User:     dto.NewUserDTO(u, h.now()),
		DaysLeft: daysLeft,
	})
}

// Status reports the trial state
// @Summary Trial status
// @Tags Trial
// @Produce json
// @Success 200 {object} entitlement.TrialStatus
// @Security BearerAuth
// @Router /trial/status [get]
func (h *TrialHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.userService.TrialStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to check trial status")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, status)
}
