// Package entitlement decides what a user may do based on premium and trial
// state. Everything here is a pure function of an Account and a clock
// reading; persisting the results is the caller's job.
package entitlement

import (
	"fmt"
	"time"
)

// TrialLength is how long a free trial lasts once started.
const TrialLength = 30 * 24 * time.Hour

const day = 24 * time.Hour

// State is the entitlement state of an account at a point in time.
type State string

const (
	StatePremium    State = "PREMIUM"
	StateInTrial    State = "IN_TRIAL"
	StateTrialEnded State = "TRIAL_ENDED"
	StateNoTrialYet State = "NO_TRIAL_YET"
)

// Denial reasons returned to clients.
const (
	ReasonTrialEnded      = "TRIAL_ENDED"
	ReasonNoAccess        = "NO_ACCESS"
	ReasonTrialActive     = "TRIAL_ACTIVE"
	ReasonPremiumRequired = "PREMIUM_REQUIRED"
)

// Account is the slice of a user record that entitlement depends on.
type Account struct {
	IsPremium      bool
	PremiumUntil   *time.Time
	TrialStartedAt *time.Time
}

// Status is an evaluated state. DaysLeft is set only while in trial.
type Status struct {
	State    State
	DaysLeft *int
}

// TrialStatus is the client-facing view of the trial.
type TrialStatus struct {
	IsInTrial  bool `json:"isInTrial"`
	TrialEnded bool `json:"trialEnded"`
	DaysLeft   *int `json:"daysLeft"`
}

// Decision is the outcome of an access check.
type Decision struct {
	Allowed  bool
	State    State
	Reason   string
	Message  string
	DaysLeft *int
}

// TrialEnd returns when a trial started at start runs out.
func TrialEnd(start time.Time) time.Time {
	return start.Add(TrialLength)
}

// DaysLeft rounds the time remaining until end up to whole days.
func DaysLeft(end, now time.Time) int {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + day - 1) / day)
}

// Evaluate derives the state of acc at now. Premium wins over any trial
// fields. Callers that read from the store should Reconcile first.
func Evaluate(acc Account, now time.Time) Status {
	if acc.IsPremium {
		return Status{State: StatePremium}
	}
	if acc.TrialStartedAt == nil {
		return Status{State: StateNoTrialYet}
	}
	end := TrialEnd(*acc.TrialStartedAt)
	if now.Before(end) {
		left := DaysLeft(end, now)
		return Status{State: StateInTrial, DaysLeft: &left}
	}
	return Status{State: StateTrialEnded}
}

// TrialStatusOf reports the trial on its own, ignoring premium.
func TrialStatusOf(acc Account, now time.Time) TrialStatus {
	if acc.TrialStartedAt == nil {
		return TrialStatus{}
	}
	end := TrialEnd(*acc.TrialStartedAt)
	if now.Before(end) {
		left := DaysLeft(end, now)
		return TrialStatus{IsInTrial: true, DaysLeft: &left}
	}
	return TrialStatus{TrialEnded: true}
}

// Reconcile applies lazy premium expiry. It returns the updated account and
// whether anything changed, in which case the caller must write it back.
func Reconcile(acc Account, now time.Time) (Account, bool) {
	if acc.PremiumUntil == nil || !acc.PremiumUntil.Before(now) {
		return acc, false
	}
	acc.IsPremium = false
	acc.PremiumUntil = nil
	return acc, true
}

// CanDiagnose decides whether acc may run a diagnosis at now.
func CanDiagnose(acc Account, now time.Time) Decision {
	st := Evaluate(acc, now)
	switch st.State {
	case StatePremium, StateInTrial:
		return Decision{Allowed: true, State: st.State, DaysLeft: st.DaysLeft}
	default:
		return Deny(st)
	}
}

// Deny builds the denial for st. An in-trial status only reaches here when a
// store-side check disagreed with the evaluated state, and is reported as
// TRIAL_ACTIVE.
func Deny(st Status) Decision {
	d := Decision{State: st.State, DaysLeft: st.DaysLeft}
	switch st.State {
	case StateTrialEnded:
		d.Reason = ReasonTrialEnded
		d.Message = "Your trial period has ended. Upgrade to Premium for unlimited diagnoses."
	case StateNoTrialYet:
		d.Reason = ReasonNoAccess
		d.Message = "Start your 30-day free trial to diagnose plant diseases or upgrade to Premium for unlimited access."
	default:
		left := 0
		if st.DaysLeft != nil {
			left = *st.DaysLeft
		}
		d.Reason = ReasonTrialActive
		d.Message = fmt.Sprintf("You are currently in your trial period with %d days remaining.", left)
	}
	return d
}

// CanUsePremiumFeature gates analytics and the assistant. Only premium and
// active trials pass.
func CanUsePremiumFeature(acc Account, now time.Time) Decision {
	st := Evaluate(acc, now)
	if st.State == StatePremium || st.State == StateInTrial {
		return Decision{Allowed: true, State: st.State, DaysLeft: st.DaysLeft}
	}
	return Decision{
		State:   st.State,
		Reason:  ReasonPremiumRequired,
		Message: "Premium subscription or active trial required.",
	}
}

// StartTrial starts the trial at now. It is a no-op for premium accounts and
// for accounts whose trial was ever started, even one that has ended.
func StartTrial(acc Account, now time.Time) (Account, bool) {
	if acc.IsPremium || acc.TrialStartedAt != nil {
		return acc, false
	}
	started := now
	acc.TrialStartedAt = &started
	return acc, true
}

// TrialStartRefusal explains why StartTrial would be a no-op. It returns an
// empty string when the trial can start.
func TrialStartRefusal(acc Account, now time.Time) string {
	if acc.IsPremium {
		return "You already have premium access"
	}
	ts := TrialStatusOf(acc, now)
	switch {
	case ts.IsInTrial:
		return fmt.Sprintf("You are already in your 30-day trial period. %d days remaining.", *ts.DaysLeft)
	case ts.TrialEnded:
		return "Your trial period has ended. Please upgrade to premium for full access."
	}
	return ""
}
