package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/leafdoctor/internal/api/dto"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/validator"
	"github.com/pratik-mahalle/leafdoctor/internal/services"
)

// AssistantHandler serves the voice assistant
type AssistantHandler struct {
	service   *services.AssistantService
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(service *services.AssistantService, log *logger.Logger, val *validator.Validator) *AssistantHandler {
	return &AssistantHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Ask answers a plant care question
// @Summary Ask the plant care assistant
// @Tags Assistant
// @Accept json
// @Produce json
// @Param request body dto.VoiceAssistantRequest true "Question"
// @Success 200 {object} dto.VoiceAssistantResponse
// @Failure 400 {object} utils.ErrorResponse "Question is required"
// @Failure 403 {object} map[string]interface{} "TRIAL_ENDED or PREMIUM_REQUIRED"
// @Security BearerAuth
// @Router /voice-assistant [post]
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.VoiceAssistantRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	answer, err := h.service.Ask(r.Context(), userID, req.Question, req.DiseaseContext)
	if err != nil {
		if appErr, ok := errors.As(err); ok && appErr.StatusCode == http.StatusForbidden {
			utils.WriteDenial(w, appErr, nil)
			return
		}
		writeServiceError(w, r, h.logger, err, "Failed to process voice assistant request")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.VoiceAssistantResponse{Response: answer})
}
