package user

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned by Create when the username or email is taken
var ErrDuplicate = errors.New("username or email already registered")

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, u *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByStripeCustomerID retrieves the user billed under a Stripe customer
	GetByStripeCustomerID(ctx context.Context, customerID string) (*User, error)

	// ExpirePremium clears premium when premiumUntil is before now. It
	// reports whether a row changed.
	ExpirePremium(ctx context.Context, id int64, now time.Time) (bool, error)

	// StartTrial sets trialStartedAt for a user that is neither premium nor
	// has ever started a trial. It reports whether a row changed.
	StartTrial(ctx context.Context, id int64, at time.Time) (bool, error)

	// RecordDiagnosis increments the diagnosis counter if the user is
	// premium or its trial started after trialCutoff. It reports whether
	// a row changed.
	RecordDiagnosis(ctx context.Context, id int64, at, trialCutoff time.Time) (bool, error)

	// SetPremium grants or revokes premium. A nil until with premium set
	// grants it without expiry.
	SetPremium(ctx context.Context, id int64, premium bool, until *time.Time) error

	// SetStripeIDs stores the Stripe customer and, when non-empty, the
	// subscription id
	SetStripeIDs(ctx context.Context, id int64, customerID, subscriptionID string) error
}
