package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/leafdoctor/internal/api/dto"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/validator"
)

const (
	defaultStatsLimit    = 10
	defaultActivityLimit = 50
)

// AnalyticsHandler serves usage metrics, disease statistics and activities
type AnalyticsHandler struct {
	analytics   analytics.Service
	userService user.Service
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService analytics.Service, userService user.Service, log *logger.Logger, val *validator.Validator) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:   analyticsService,
		userService: userService,
		logger:      log,
		validator:   val,
	}
}

// authorize lets premium and trial users through and records the view
func (h *AnalyticsHandler) authorize(w http.ResponseWriter, r *http.Request, view, activityType string) (int64, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return 0, false
	}

	_, decision, err := h.userService.AuthorizeFeature(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to check access")
		return 0, false
	}
	if !decision.Allowed {
		utils.WriteDenial(w, errors.Denied(entitlement.ReasonPremiumRequired,
			"Analytics are only available for premium users"), nil)
		return 0, false
	}

	if err := h.analytics.TrackUsage(r.Context(), userID, func(m *analytics.UsageMetrics) {
		m.FeatureUsage.IncrementIn(analytics.UsageAnalyticsViews, view)
	}); err != nil {
		h.logger.With("user_id", userID).WarnWithErr(err, "Failed to track analytics view")
	}
	if _, err := h.analytics.LogActivity(r.Context(), userID, activityType, nil); err != nil {
		h.logger.With("user_id", userID).WarnWithErr(err, "Failed to log activity")
	}
	return userID, true
}

// Usage returns the caller's daily usage metrics
// @Summary Usage metrics
// @Tags Analytics
// @Produce json
// @Param startDate query string false "First day, YYYY-MM-DD"
// @Param endDate query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} analytics.UsageMetrics
// @Failure 403 {object} map[string]interface{} "PREMIUM_REQUIRED"
// @Security BearerAuth
// @Router /analytics/usage [get]
func (h *AnalyticsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	from, err := utils.ParseDate(r, "startDate")
	if err != nil {
		utils.WriteError(w, errors.BadRequest("startDate must be YYYY-MM-DD"))
		return
	}
	to, err := utils.ParseDate(r, "endDate")
	if err != nil {
		utils.WriteError(w, errors.BadRequest("endDate must be YYYY-MM-DD"))
		return
	}

	userID, ok := h.authorize(w, r, "usage", analytics.ActivityAnalyticsUsageViewed)
	if !ok {
		return
	}

	metrics, err := h.analytics.Usage(r.Context(), userID, from, to)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to fetch usage metrics")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, metrics)
}

// DiseaseStats returns the most frequently diagnosed diseases
// @Summary Disease statistics
// @Tags Analytics
// @Produce json
// @Param limit query int false "Number of diseases" default(10)
// @Success 200 {array} analytics.DiagnosisStats
// @Failure 403 {object} map[string]interface{} "PREMIUM_REQUIRED"
// @Security BearerAuth
// @Router /analytics/disease-stats [get]
func (h *AnalyticsHandler) DiseaseStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, "diseaseStats", analytics.ActivityAnalyticsStatsViewed); !ok {
		return
	}

	stats, err := h.analytics.DiseaseStats(r.Context(), utils.ParseLimit(r, "limit", defaultStatsLimit))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to fetch disease statistics")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, stats)
}

// Activities returns the caller's latest activities
// @Summary User activities
// @Tags Analytics
// @Produce json
// @Param limit query int false "Number of activities" default(50)
// @Success 200 {array} analytics.Activity
// @Failure 403 {object} map[string]interface{} "PREMIUM_REQUIRED"
// @Security BearerAuth
// @Router /analytics/activities [get]
func (h *AnalyticsHandler) Activities(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r, "activity", analytics.ActivityAnalyticsActivityViewed)
	if !ok {
		return
	}

	activities, err := h.analytics.Activities(r.Context(), userID, utils.ParseLimit(r, "limit", defaultActivityLimit))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to fetch user activities")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, activities)
}

// LogActivity records a client-side activity
// @Summary Log an activity
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body dto.LogActivityRequest true "Activity"
// @Success 201 {object} analytics.Activity
// @Failure 400 {object} utils.ErrorResponse "Activity type is required"
// @Security BearerAuth
// @Router /analytics/log-activity [post]
func (h *AnalyticsHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.LogActivityRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	activity, err := h.analytics.LogActivity(r.Context(), userID, req.ActivityType, req.Details)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to log user activity")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, activity)
}
