package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
)

// Stripe event types handled by the webhook
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventSubscriptionUpdated    = "customer.subscription.updated"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	EventInvoicePaid            = "invoice.payment_succeeded"
	EventInvoicePaymentFailed   = "invoice.payment_failed"
)

// subscriptionPayment marks one-off payment intents that buy premium
const subscriptionPayment = "subscription_payment"

// PaymentIntents reads payment intents from Stripe
type PaymentIntents interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// BillingService turns Stripe payments and subscription events into
// premium grants and revocations
type BillingService struct {
	users         user.Service
	analytics     analytics.Service
	intents       PaymentIntents
	webhookSecret string
	paidPremium   time.Duration
	now           func() time.Time
	logger        *logger.Logger
}

// NewBillingService creates a new billing service. Without a secret key
// payment confirmation is unavailable; without a webhook secret every
// webhook is rejected.
func NewBillingService(users user.Service, analyticsService analytics.Service, cfg config.StripeConfig, entitlementCfg config.EntitlementConfig, log *logger.Logger) *BillingService {
	var intents PaymentIntents
	if cfg.SecretKey != "" {
		intents = &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey}
	}
	return &BillingService{
		users:         users,
		analytics:     analyticsService,
		intents:       intents,
		webhookSecret: cfg.WebhookSecret,
		paidPremium:   time.Duration(entitlementCfg.PaidPremiumDays) * 24 * time.Hour,
		now:           time.Now,
		logger:        log,
	}
}

// ConstructEvent verifies a webhook payload against its Stripe-Signature
// header
func (s *BillingService) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if s.webhookSecret == "" {
		return stripe.Event{}, errors.ServiceUnavailable("Webhook not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, errors.BadRequest("Webhook signature verification failed")
	}
	return event, nil
}

// HandleEvent applies a verified event. Events for unknown users and event
// types without a transition are acknowledged and ignored.
func (s *BillingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	log := s.logger.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": string(event.Type),
	})
	if event.Data == nil {
		return errors.BadRequest("Event has no data")
	}

	switch string(event.Type) {
	case EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return errors.BadRequest("Invalid payment intent payload")
		}
		return s.paymentSucceeded(ctx, &pi)

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return errors.BadRequest("Invalid subscription payload")
		}
		return s.subscriptionChanged(ctx, string(event.Type), &sub)

	case EventInvoicePaid, EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return errors.BadRequest("Invalid invoice payload")
		}
		return s.invoiceSettled(ctx, string(event.Type), &inv)

	default:
		log.Debug("Unhandled Stripe event")
		return nil
	}
}

func (s *BillingService) paymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	if pi.Metadata["type"] != subscriptionPayment {
		return nil
	}
	userID, ok := metadataUserID(pi.Metadata)
	if !ok {
		s.logger.With("payment_intent", pi.ID).Warn("Subscription payment without user id")
		return nil
	}

	until := s.now().Add(s.paidPremium)
	if _, err := s.users.GrantPremium(ctx, userID, until); err != nil {
		return err
	}
	if pi.Customer != nil && pi.Customer.ID != "" {
		if err := s.users.LinkStripe(ctx, userID, pi.Customer.ID, ""); err != nil {
			s.logger.With("user_id", userID).WarnWithErr(err, "Failed to store Stripe customer")
		}
	}

	s.logActivity(ctx, userID, analytics.ActivityPaymentIntentSucceeded, map[string]interface{}{
		"paymentIntentId": pi.ID,
		"amount":          float64(pi.Amount) / 100,
	})
	return nil
}

func (s *BillingService) subscriptionChanged(ctx context.Context, eventType string, sub *stripe.Subscription) error {
	userID, ok := s.resolveUser(ctx, sub.Customer, sub.Metadata)
	if !ok {
		s.logger.With("subscription", sub.ID).Warn("Subscription event for unknown user")
		return nil
	}

	status := sub.Status
	if eventType == EventSubscriptionDeleted {
		status = stripe.SubscriptionStatusCanceled
	}

	switch status {
	case stripe.SubscriptionStatusActive:
		until := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		if _, err := s.users.GrantPremium(ctx, userID, until); err != nil {
			return err
		}
		if sub.Customer != nil {
			if err := s.users.LinkStripe(ctx, userID, sub.Customer.ID, sub.ID); err != nil {
				s.logger.With("user_id", userID).WarnWithErr(err, "Failed to store Stripe ids")
			}
		}
		s.logActivity(ctx, userID, analytics.ActivitySubscriptionRenewed, map[string]interface{}{
			"subscriptionId": sub.ID,
			"premiumUntil":   until,
		})

	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncompleteExpired:
		if err := s.users.RevokePremium(ctx, userID); err != nil {
			return err
		}
		s.logActivity(ctx, userID, analytics.ActivitySubscriptionEnded, map[string]interface{}{
			"subscriptionId": sub.ID,
			"reason":         string(status),
		})
	}
	return nil
}

func (s *BillingService) invoiceSettled(ctx context.Context, eventType string, inv *stripe.Invoice) error {
	userID, ok := s.resolveUser(ctx, inv.Customer, inv.Metadata)
	if !ok {
		s.logger.With("invoice", inv.ID).Warn("Invoice event for unknown user")
		return nil
	}

	if eventType == EventInvoicePaymentFailed {
		s.logActivity(ctx, userID, analytics.ActivitySubscriptionPaymentFail, map[string]interface{}{
			"invoiceId": inv.ID,
		})
		return nil
	}

	end := invoicePeriodEnd(inv)
	if end == 0 {
		s.logger.With("invoice", inv.ID).Warn("Paid invoice without a billing period")
		return nil
	}
	until := time.Unix(end, 0).UTC()
	if _, err := s.users.GrantPremium(ctx, userID, until); err != nil {
		return err
	}

	details := map[string]interface{}{
		"invoiceId":    inv.ID,
		"premiumUntil": until,
	}
	if inv.Subscription != nil {
		details["subscriptionId"] = inv.Subscription.ID
	}
	s.logActivity(ctx, userID, analytics.ActivitySubscriptionPaymentOK, details)
	return nil
}

// invoicePeriodEnd returns the latest line period end, or zero
func invoicePeriodEnd(inv *stripe.Invoice) int64 {
	var end int64
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line != nil && line.Period != nil && line.Period.End > end {
				end = line.Period.End
			}
		}
	}
	if end == 0 {
		end = inv.PeriodEnd
	}
	return end
}

// resolveUser finds the user by stored customer id, then by metadata
func (s *BillingService) resolveUser(ctx context.Context, customer *stripe.Customer, metadata map[string]string) (int64, bool) {
	if customer != nil && customer.ID != "" {
		u, err := s.users.FindByStripeCustomer(ctx, customer.ID)
		if err == nil {
			return u.ID, true
		}
		if !errors.IsNotFound(err) {
			s.logger.With("customer", customer.ID).WarnWithErr(err, "Failed to look up Stripe customer")
		}
		if id, ok := metadataUserID(customer.Metadata); ok {
			return id, true
		}
	}
	return metadataUserID(metadata)
}

func metadataUserID(metadata map[string]string) (int64, bool) {
	raw, ok := metadata["userId"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ConfirmPayment grants premium once Stripe reports the payment intent as
// succeeded
func (s *BillingService) ConfirmPayment(ctx context.Context, userID int64, paymentIntentID string) (*user.User, error) {
	if s.intents == nil {
		return nil, errors.ServiceUnavailable("Stripe is not properly configured")
	}

	pi, err := s.intents.Get(paymentIntentID, nil)
	if err != nil {
		s.logger.With("user_id", userID).ErrorWithErr(err, "Failed to retrieve payment intent")
		return nil, errors.ProviderAPIError("Stripe", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, errors.BadRequest("Payment has not been completed").
			WithDetails(map[string]interface{}{"paymentStatus": string(pi.Status)})
	}

	until := s.now().Add(s.paidPremium)
	u, err := s.users.GrantPremium(ctx, userID, until)
	if err != nil {
		return nil, err
	}
	if pi.Customer != nil && pi.Customer.ID != "" {
		if err := s.users.LinkStripe(ctx, userID, pi.Customer.ID, ""); err != nil {
			s.logger.With("user_id", userID).WarnWithErr(err, "Failed to store Stripe customer")
		}
	}

	s.logActivity(ctx, userID, analytics.ActivityPremiumActivated, map[string]interface{}{
		"paymentIntentId": paymentIntentID,
		"premiumUntil":    until.UTC(),
	})
	return u, nil
}

func (s *BillingService) logActivity(ctx context.Context, userID int64, activityType string, details map[string]interface{}) {
	if _, err := s.analytics.LogActivity(ctx, userID, activityType, details); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id":  userID,
			"activity": activityType,
		}).WarnWithErr(err, "Failed to log activity")
	}
}
