package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	apperrors "github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/testutil"
)

const testWebhookSecret = "whsec_test"

type fakeIntents struct {
	intents map[string]*stripe.PaymentIntent
}

func (f *fakeIntents) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	pi, ok := f.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	return pi, nil
}

type billingFixture struct {
	svc       *BillingService
	users     *testutil.MockUserRepository
	analytics *testutil.MockAnalyticsRepository
}

func newBillingFixture(t *testing.T, intents PaymentIntents) billingFixture {
	t.Helper()
	clock := testutil.NewClock(testNow)
	userRepo := testutil.NewMockUserRepository()
	analyticsRepo := testutil.NewMockAnalyticsRepository()

	users := newTestUserService(userRepo, clock, 0)
	analyticsSvc := NewAnalyticsService(analyticsRepo, logger.Nop())

	svc := NewBillingService(users, analyticsSvc,
		config.StripeConfig{WebhookSecret: testWebhookSecret},
		config.EntitlementConfig{PaidPremiumDays: 30},
		logger.Nop())
	svc.intents = intents
	svc.now = clock.Now

	return billingFixture{svc: svc, users: userRepo, analytics: analyticsRepo}
}

func event(t *testing.T, eventType string, object interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{ID: "evt_test", Type: stripe.EventType(eventType), Data: &stripe.EventData{Raw: raw}}
}

func TestBillingService_ConstructEvent(t *testing.T) {
	f := newBillingFixture(t, nil)
	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_1"}}}`)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	ev, err := f.svc.ConstructEvent(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, EventInvoicePaymentFailed, string(ev.Type))

	_, err = f.svc.ConstructEvent(payload, "t=1,v1=deadbeef")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)

	f.svc.webhookSecret = ""
	_, err = f.svc.ConstructEvent(payload, signed.Header)
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 503, appErr.StatusCode)
}

func TestBillingService_PaymentIntentSucceeded(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.users.Put(&user.User{ID: 3, Username: "grower", Email: "grower@example.com"})

	err := f.svc.HandleEvent(context.Background(), event(t, EventPaymentIntentSucceeded, map[string]interface{}{
		"id":       "pi_1",
		"amount":   999,
		"customer": "cus_9",
		"metadata": map[string]string{"type": "subscription_payment", "userId": "3"},
	}))
	require.NoError(t, err)

	acc := f.users.Account(3)
	require.True(t, acc.IsPremium)
	assert.True(t, acc.PremiumUntil.Equal(testNow.Add(testutil.Days(30))))

	u, err := f.users.GetByStripeCustomerID(context.Background(), "cus_9")
	require.NoError(t, err)
	assert.EqualValues(t, 3, u.ID)
	assert.Equal(t, []string{analytics.ActivityPaymentIntentSucceeded}, f.analytics.ActivityTypes(3))
}

func TestBillingService_PaymentIntentIgnoredWithoutMarker(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.users.Put(&user.User{ID: 3, Username: "grower", Email: "grower@example.com"})

	err := f.svc.HandleEvent(context.Background(), event(t, EventPaymentIntentSucceeded, map[string]interface{}{
		"id":       "pi_1",
		"metadata": map[string]string{"userId": "3"},
	}))
	require.NoError(t, err)
	assert.False(t, f.users.Account(3).IsPremium)
}

func TestBillingService_SubscriptionUpdated(t *testing.T) {
	periodEnd := testNow.Add(testutil.Days(31)).Truncate(time.Second)

	tests := []struct {
		name         string
		eventType    string
		status       string
		wantPremium  bool
		wantActivity string
	}{
		{name: "active renews", eventType: EventSubscriptionUpdated, status: "active", wantPremium: true, wantActivity: analytics.ActivitySubscriptionRenewed},
		{name: "canceled ends", eventType: EventSubscriptionUpdated, status: "canceled", wantActivity: analytics.ActivitySubscriptionEnded},
		{name: "unpaid ends", eventType: EventSubscriptionUpdated, status: "unpaid", wantActivity: analytics.ActivitySubscriptionEnded},
		{name: "incomplete_expired ends", eventType: EventSubscriptionUpdated, status: "incomplete_expired", wantActivity: analytics.ActivitySubscriptionEnded},
		{name: "deleted ends", eventType: EventSubscriptionDeleted, status: "active", wantActivity: analytics.ActivitySubscriptionEnded},
		{name: "past_due keeps premium", eventType: EventSubscriptionUpdated, status: "past_due", wantPremium: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBillingFixture(t, nil)
			customer := "cus_1"
			until := testNow.Add(testutil.Days(5))
			f.users.Put(&user.User{ID: 4, Username: "grower", Email: "grower@example.com", IsPremium: true, PremiumUntil: &until, StripeCustomerID: &customer})

			err := f.svc.HandleEvent(context.Background(), event(t, tt.eventType, map[string]interface{}{
				"id":                 "sub_1",
				"customer":           customer,
				"status":             tt.status,
				"current_period_end": periodEnd.Unix(),
			}))
			require.NoError(t, err)

			acc := f.users.Account(4)
			assert.Equal(t, tt.wantPremium, acc.IsPremium)
			if tt.wantActivity == analytics.ActivitySubscriptionRenewed {
				require.NotNil(t, acc.PremiumUntil)
				assert.True(t, acc.PremiumUntil.Equal(periodEnd))
			}
			if tt.wantActivity != "" {
				assert.Equal(t, []string{tt.wantActivity}, f.analytics.ActivityTypes(4))
			} else {
				assert.Empty(t, f.analytics.ActivityTypes(4))
			}
		})
	}
}

func TestBillingService_SubscriptionFallsBackToMetadata(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.users.Put(&user.User{ID: 5, Username: "grower", Email: "grower@example.com"})

	err := f.svc.HandleEvent(context.Background(), event(t, EventSubscriptionUpdated, map[string]interface{}{
		"id":                 "sub_2",
		"customer":           "cus_new",
		"status":             "active",
		"current_period_end": testNow.Add(testutil.Days(30)).Unix(),
		"metadata":           map[string]string{"userId": "5"},
	}))
	require.NoError(t, err)
	assert.True(t, f.users.Account(5).IsPremium)

	u, err := f.users.GetByStripeCustomerID(context.Background(), "cus_new")
	require.NoError(t, err)
	require.NotNil(t, u.StripeSubscriptionID)
	assert.Equal(t, "sub_2", *u.StripeSubscriptionID)
}

func TestBillingService_Invoices(t *testing.T) {
	f := newBillingFixture(t, nil)
	customer := "cus_1"
	f.users.Put(&user.User{ID: 6, Username: "grower", Email: "grower@example.com", StripeCustomerID: &customer})
	periodEnd := testNow.Add(testutil.Days(30)).Truncate(time.Second)

	err := f.svc.HandleEvent(context.Background(), event(t, EventInvoicePaid, map[string]interface{}{
		"id":           "in_1",
		"customer":     customer,
		"subscription": "sub_1",
		"lines": map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "il_1", "period": map[string]int64{"start": testNow.Unix(), "end": periodEnd.Unix()}},
			},
		},
	}))
	require.NoError(t, err)
	acc := f.users.Account(6)
	require.True(t, acc.IsPremium)
	assert.True(t, acc.PremiumUntil.Equal(periodEnd))

	err = f.svc.HandleEvent(context.Background(), event(t, EventInvoicePaymentFailed, map[string]interface{}{
		"id":       "in_2",
		"customer": customer,
	}))
	require.NoError(t, err)
	assert.True(t, f.users.Account(6).IsPremium, "a failed payment does not revoke premium")
	assert.Equal(t, []string{analytics.ActivitySubscriptionPaymentOK, analytics.ActivitySubscriptionPaymentFail}, f.analytics.ActivityTypes(6))
}

func TestBillingService_UnknownEventsAndUsers(t *testing.T) {
	f := newBillingFixture(t, nil)

	require.NoError(t, f.svc.HandleEvent(context.Background(), event(t, "customer.created", map[string]string{"id": "cus_1"})))
	require.NoError(t, f.svc.HandleEvent(context.Background(), event(t, EventSubscriptionDeleted, map[string]interface{}{
		"id":       "sub_1",
		"customer": "cus_unknown",
	})))
	assert.Empty(t, f.analytics.Activities)
}

func TestBillingService_ConfirmPayment(t *testing.T) {
	intents := &fakeIntents{intents: map[string]*stripe.PaymentIntent{
		"pi_ok":      {ID: "pi_ok", Status: stripe.PaymentIntentStatusSucceeded, Customer: &stripe.Customer{ID: "cus_7"}},
		"pi_pending": {ID: "pi_pending", Status: stripe.PaymentIntentStatusRequiresPaymentMethod},
	}}
	f := newBillingFixture(t, intents)
	f.users.Put(&user.User{ID: 7, Username: "grower", Email: "grower@example.com"})
	ctx := context.Background()

	_, err := f.svc.ConfirmPayment(ctx, 7, "pi_pending")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Equal(t, map[string]interface{}{"paymentStatus": "requires_payment_method"}, appErr.Details)
	assert.False(t, f.users.Account(7).IsPremium)

	_, err = f.svc.ConfirmPayment(ctx, 7, "pi_missing")
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 502, appErr.StatusCode)

	u, err := f.svc.ConfirmPayment(ctx, 7, "pi_ok")
	require.NoError(t, err)
	assert.True(t, u.IsPremium)
	require.NotNil(t, u.PremiumUntil)
	assert.True(t, u.PremiumUntil.Equal(testNow.Add(testutil.Days(30))))
	assert.Equal(t, []string{analytics.ActivityPremiumActivated}, f.analytics.ActivityTypes(7))
}

func TestBillingService_ConfirmPaymentUnconfigured(t *testing.T) {
	f := newBillingFixture(t, nil)
	f.svc.intents = nil

	_, err := f.svc.ConfirmPayment(context.Background(), 1, "pi_ok")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 503, appErr.StatusCode)
}
