package dto

import "time"

// ConfirmSubscriptionRequest asks the server to verify a completed payment
type ConfirmSubscriptionRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

// SubscriptionDTO reports the premium state after a payment
type SubscriptionDTO struct {
	IsPremium    bool       `json:"isPremium"`
	PremiumUntil *time.Time `json:"premiumUntil"`
}

// WebhookResponse acknowledges a Stripe event
type WebhookResponse struct {
	Received bool `json:"received"`
}
