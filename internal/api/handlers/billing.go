package handlers

import (
	"io"
	"net/http"

	"github.com/pratik-mahalle/leafdoctor/internal/api/dto"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/validator"
	"github.com/pratik-mahalle/leafdoctor/internal/services"
)

// maxWebhookBytes caps Stripe webhook payloads
const maxWebhookBytes = 65536

// BillingHandler handles Stripe webhooks and payment confirmation
type BillingHandler struct {
	billing   *services.BillingService
	logger    *logger.Logger
	validator *validator.Validator
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billing *services.BillingService, log *logger.Logger, val *validator.Validator) *BillingHandler {
	return &BillingHandler{
		billing:   billing,
		logger:    log,
		validator: val,
	}
}

// Webhook receives Stripe events
// @Summary Stripe webhook
// @Description Verify a signed Stripe event and apply its premium transition
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} utils.ErrorResponse "Signature verification failed"
// @Router /webhook [post]
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Failed to read request body"))
		return
	}

	event, err := h.billing.ConstructEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.WarnWithErr(err, "Rejected Stripe webhook")
		writeServiceError(w, r, h.logger, err, "Webhook verification failed")
		return
	}

	if err := h.billing.HandleEvent(r.Context(), event); err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to process webhook")
		return
	}

	utils.WriteJSON(w, http.StatusOK, dto.WebhookResponse{Received: true})
}

// ConfirmSubscription grants premium after a successful payment
// @Summary Confirm a payment
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.ConfirmSubscriptionRequest true "Payment intent"
// @Success 200 {object} dto.SubscriptionDTO
// @Failure 400 {object} utils.ErrorResponse "Payment has not been completed"
// @Security BearerAuth
// @Router /subscription/confirm [post]
func (h *BillingHandler) ConfirmSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req dto.ConfirmSubscriptionRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	u, err := h.billing.ConfirmPayment(r.Context(), userID, req.PaymentIntentID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to confirm subscription payment")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Premium subscription activated", dto.SubscriptionDTO{
		IsPremium:    u.IsPremium,
		PremiumUntil: u.PremiumUntil,
	})
}
