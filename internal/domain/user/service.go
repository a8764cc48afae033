package user

import (
	"context"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
)

// Service defines the interface for account and entitlement logic
type Service interface {
	// Register creates an account with a hashed password
	Register(ctx context.Context, username, email, password string) (*User, error)

	// Authenticate checks credentials. identifier is a username or, when it
	// contains "@", an email.
	Authenticate(ctx context.Context, identifier, password string) (*User, error)

	// Get reads a user, expiring lapsed premium first
	Get(ctx context.Context, id int64) (*User, error)

	// StartTrial begins the one-time trial
	StartTrial(ctx context.Context, id int64) (*User, int, error)

	// TrialStatus derives the user's trial status
	TrialStatus(ctx context.Context, id int64) (entitlement.TrialStatus, error)

	// AuthorizeDiagnosis decides whether the user may diagnose and, when
	// allowed, records the use
	AuthorizeDiagnosis(ctx context.Context, id int64) (*User, entitlement.Decision, error)

	// AuthorizeFeature decides whether the user may use a premium feature
	AuthorizeFeature(ctx context.Context, id int64) (*User, entitlement.Decision, error)

	// GrantPremium makes the user premium until the given time
	GrantPremium(ctx context.Context, id int64, until time.Time) (*User, error)

	// RevokePremium clears premium
	RevokePremium(ctx context.Context, id int64) error

	// LinkStripe records the user's Stripe identifiers
	LinkStripe(ctx context.Context, id int64, customerID, subscriptionID string) error

	// FindByStripeCustomer resolves a Stripe customer to a user
	FindByStripeCustomer(ctx context.Context, customerID string) (*User, error)
}
