package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
)

// multipartOverhead allows for boundaries and headers around the image part
const multipartOverhead = 64 << 10

const defaultRecentLimit = 5

// DiagnosisHandler handles diagnosis requests
type DiagnosisHandler struct {
	service     diagnosis.Service
	userService user.Service
	maxBytes    int64
	logger      *logger.Logger
}

// NewDiagnosisHandler creates a new diagnosis handler
func NewDiagnosisHandler(service diagnosis.Service, userService user.Service, maxBytes int64, log *logger.Logger) *DiagnosisHandler {
	return &DiagnosisHandler{
		service:     service,
		userService: userService,
		maxBytes:    maxBytes,
		logger:      log,
	}
}

// Diagnose handles an image upload
// @Summary Diagnose a plant image
// @Description Upload a photo in the "image" field and receive a diagnosis
// @Tags Diagnoses
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Plant photo"
// @Success 200 {object} diagnosis.Diagnosis
// @Failure 400 {object} utils.ErrorResponse "No image, not an image or too large"
// @Failure 401 {object} utils.ErrorResponse "Not authenticated"
// @Failure 403 {object} map[string]interface{} "TRIAL_ENDED, NO_ACCESS or TRIAL_ACTIVE"
// @Failure 500 {object} utils.ErrorResponse "Failed to process diagnosis"
// @Security BearerAuth
// @Router /diagnose [post]
func (h *DiagnosisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	img, appErr := h.readImage(w, r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	_, decision, err := h.userService.AuthorizeDiagnosis(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to check access")
		return
	}
	if !decision.Allowed {
		h.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"reason":  decision.Reason,
		}).Info("Diagnosis denied")
		utils.WriteDenial(w, errors.Denied(decision.Reason, decision.Message), denialExtras(decision))
		return
	}

	d, err := h.service.Diagnose(r.Context(), userID, img)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to process diagnosis")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, d)
}

// readImage pulls the "image" part out of the multipart body
func (h *DiagnosisHandler) readImage(w http.ResponseWriter, r *http.Request) (diagnosis.Image, *errors.AppError) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return diagnosis.Image{}, errors.PayloadTooLarge(h.maxBytes)
		}
		return diagnosis.Image{}, errors.BadRequest("No image uploaded")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return diagnosis.Image{}, errors.BadRequest("No image uploaded")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return diagnosis.Image{}, errors.BadRequest("Failed to read image")
	}
	if int64(len(data)) > h.maxBytes {
		return diagnosis.Image{}, errors.PayloadTooLarge(h.maxBytes)
	}
	if len(data) == 0 {
		return diagnosis.Image{}, errors.BadRequest("No image uploaded")
	}

	contentType, err := uploads.DetectImageType(header.Header.Get("Content-Type"), data)
	if err != nil {
		return diagnosis.Image{}, errors.UnsupportedMedia("Only image files are allowed")
	}

	return diagnosis.Image{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

func denialExtras(d entitlement.Decision) map[string]interface{} {
	switch d.Reason {
	case entitlement.ReasonTrialEnded:
		return map[string]interface{}{"trialUsed": true}
	case entitlement.ReasonNoAccess:
		return map[string]interface{}{"canStartTrial": true}
	case entitlement.ReasonTrialActive:
		left := 0
		if d.DaysLeft != nil {
			left = *d.DaysLeft
		}
		return map[string]interface{}{"trialDaysLeft": left}
	}
	return nil
}

// List returns the user's diagnosis history
// @Summary List diagnoses
// @Tags Diagnoses
// @Produce json
// @Success 200 {array} diagnosis.Diagnosis
// @Security BearerAuth
// @Router /diagnoses [get]
func (h *DiagnosisHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	diagnoses, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to fetch diagnoses")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, diagnoses)
}

// Recent returns the user's latest diagnoses
// @Summary Recent diagnoses
// @Tags Diagnoses
// @Produce json
// @Param limit query int false "Number of diagnoses" default(5)
// @Success 200 {array} diagnosis.Diagnosis
// @Security BearerAuth
// @Router /diagnoses/recent [get]
func (h *DiagnosisHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := utils.ParseLimit(r, "limit", defaultRecentLimit)
	diagnoses, err := h.service.Recent(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to fetch recent diagnoses")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, diagnoses)
}

// Get returns one diagnosis
// @Summary Get a diagnosis
// @Tags Diagnoses
// @Produce json
// @Param id path int true "Diagnosis ID"
// @Success 200 {object} diagnosis.Diagnosis
// @Failure 403 {object} utils.ErrorResponse "Access denied"
// @Failure 404 {object} utils.ErrorResponse "Diagnosis not found"
// @Security BearerAuth
// @Router /diagnoses/{id} [get]
func (h *DiagnosisHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		utils.WriteError(w, errors.BadRequest("Invalid diagnosis ID"))
		return
	}

	d, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to fetch diagnosis")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, d)
}
