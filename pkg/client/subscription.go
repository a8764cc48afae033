package client

import (
	"context"
	"time"
)

// SubscriptionService handles premium payments
type SubscriptionService struct {
	client *Client
}

// Subscription is the premium state after a confirmed payment
type Subscription struct {
	IsPremium    bool       `json:"isPremium"`
	PremiumUntil *time.Time `json:"premiumUntil"`
}

// Confirm asks the server to verify a completed Stripe payment intent
func (s *SubscriptionService) Confirm(ctx context.Context, paymentIntentID string) (*Subscription, error) {
	req := map[string]string{
		"paymentIntentId": paymentIntentID,
	}

	var sub Subscription
	if err := s.client.doRequest(ctx, "POST", "/api/subscription/confirm", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
