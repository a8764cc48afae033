package user

import (
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
)

// User is an account together with its entitlement state
type User struct {
	ID                   int64      `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	IsPremium            bool       `json:"isPremium"`
	PremiumUntil         *time.Time `json:"premiumUntil"`
	TrialStartedAt       *time.Time `json:"trialStartedAt"`
	DiagnosisCount       int        `json:"diagnosisCount"`
	LastDiagnosisDate    *time.Time `json:"lastDiagnosisDate"`
	StripeCustomerID     *string    `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID *string    `json:"stripeSubscriptionId,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// Account returns the entitlement-relevant fields
func (u *User) Account() entitlement.Account {
	return entitlement.Account{
		IsPremium:      u.IsPremium,
		PremiumUntil:   u.PremiumUntil,
		TrialStartedAt: u.TrialStartedAt,
	}
}

// SetAccount copies entitlement fields back onto the user
func (u *User) SetAccount(a entitlement.Account) {
	u.IsPremium = a.IsPremium
	u.PremiumUntil = a.PremiumUntil
	u.TrialStartedAt = a.TrialStartedAt
}

// Profile is the user as returned by the API, with derived trial status
type Profile struct {
	*User
	TrialStatus entitlement.TrialStatus `json:"trialStatus"`
}

// NewProfile builds the public view of u at now
func NewProfile(u *User, now time.Time) Profile {
	return Profile{User: u, TrialStatus: entitlement.TrialStatusOf(u.Account(), now)}
}
