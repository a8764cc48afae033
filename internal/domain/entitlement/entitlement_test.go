package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		acc      Account
		now      time.Time
		want     State
		daysLeft int
	}{
		{"premium", Account{IsPremium: true}, base, StatePremium, -1},
		{"no trial", Account{}, base, StateNoTrialYet, -1},
		{"trial day one", Account{TrialStartedAt: ptr(base)}, base, StateInTrial, 30},
		{"trial mid way", Account{TrialStartedAt: ptr(base)}, base.Add(10*day + time.Hour), StateInTrial, 20},
		{"trial exact end", Account{TrialStartedAt: ptr(base)}, base.Add(TrialLength), StateTrialEnded, -1},
		{"trial long gone", Account{TrialStartedAt: ptr(base)}, base.Add(400 * day), StateTrialEnded, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Evaluate(tt.acc, tt.now)
			assert.Equal(t, tt.want, st.State)
			if tt.daysLeft < 0 {
				assert.Nil(t, st.DaysLeft)
				return
			}
			require.NotNil(t, st.DaysLeft)
			assert.Equal(t, tt.daysLeft, *st.DaysLeft)
		})
	}
}

func TestCanDiagnose_PremiumIgnoresTrialFields(t *testing.T) {
	trials := []*time.Time{
		nil,
		ptr(base),
		ptr(base.Add(-29 * day)),
		ptr(base.Add(-31 * day)),
		ptr(base.Add(-3650 * day)),
		ptr(base.Add(5 * day)),
	}
	for _, started := range trials {
		d := CanDiagnose(Account{IsPremium: true, TrialStartedAt: started}, base)
		assert.True(t, d.Allowed)
		assert.Equal(t, StatePremium, d.State)
		assert.Empty(t, d.Reason)
	}
}

func TestCanDiagnose_Denials(t *testing.T) {
	d := CanDiagnose(Account{}, base)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoAccess, d.Reason)

	d = CanDiagnose(Account{TrialStartedAt: ptr(base.Add(-31 * day))}, base)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonTrialEnded, d.Reason)
	assert.Contains(t, d.Message, "trial period has ended")

	d = CanDiagnose(Account{TrialStartedAt: ptr(base.Add(-day))}, base)
	assert.True(t, d.Allowed)
	require.NotNil(t, d.DaysLeft)
	assert.Equal(t, 29, *d.DaysLeft)
}

func TestDeny_InTrialIsTrialActive(t *testing.T) {
	left := 12
	d := Deny(Status{State: StateInTrial, DaysLeft: &left})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonTrialActive, d.Reason)
	assert.Equal(t, "You are currently in your trial period with 12 days remaining.", d.Message)
}

func TestTrialBoundary(t *testing.T) {
	acc := Account{TrialStartedAt: ptr(base)}

	st := Evaluate(acc, base.Add(29*day+time.Hour))
	require.Equal(t, StateInTrial, st.State)
	require.NotNil(t, st.DaysLeft)
	assert.Equal(t, 1, *st.DaysLeft)

	st = Evaluate(acc, base.Add(30*day+time.Second))
	assert.Equal(t, StateTrialEnded, st.State)
	assert.Nil(t, st.DaysLeft)

	ts := TrialStatusOf(acc, base.Add(30*day+time.Second))
	assert.False(t, ts.IsInTrial)
	assert.True(t, ts.TrialEnded)
	assert.Nil(t, ts.DaysLeft)
}

func TestStartTrial_NeverRestarts(t *testing.T) {
	acc, started := StartTrial(Account{}, base)
	require.True(t, started)
	require.NotNil(t, acc.TrialStartedAt)
	first := *acc.TrialStartedAt

	for _, later := range []time.Time{base.Add(time.Minute), base.Add(29 * day), base.Add(31 * day), base.Add(1000 * day)} {
		var again bool
		acc, again = StartTrial(acc, later)
		assert.False(t, again)
		assert.True(t, first.Equal(*acc.TrialStartedAt))
	}
}

func TestStartTrial_PremiumIsNoOp(t *testing.T) {
	acc, started := StartTrial(Account{IsPremium: true}, base)
	assert.False(t, started)
	assert.Nil(t, acc.TrialStartedAt)
}

func TestTrialStartRefusal(t *testing.T) {
	assert.Equal(t, "You already have premium access", TrialStartRefusal(Account{IsPremium: true}, base))
	assert.Equal(t, "", TrialStartRefusal(Account{}, base))
	assert.Equal(t,
		"You are already in your 30-day trial period. 28 days remaining.",
		TrialStartRefusal(Account{TrialStartedAt: ptr(base.Add(-2 * day))}, base))
	assert.Equal(t,
		"Your trial period has ended. Please upgrade to premium for full access.",
		TrialStartRefusal(Account{TrialStartedAt: ptr(base.Add(-40 * day))}, base))
}

func TestReconcile(t *testing.T) {
	expired := Account{IsPremium: true, PremiumUntil: ptr(base.Add(-day))}
	got, changed := Reconcile(expired, base)
	assert.True(t, changed)
	assert.False(t, got.IsPremium)
	assert.Nil(t, got.PremiumUntil)

	current := Account{IsPremium: true, PremiumUntil: ptr(base.Add(day))}
	got, changed = Reconcile(current, base)
	assert.False(t, changed)
	assert.Equal(t, current, got)

	open := Account{IsPremium: true}
	got, changed = Reconcile(open, base)
	assert.False(t, changed)
	assert.True(t, got.IsPremium)
}

func TestCanUsePremiumFeature(t *testing.T) {
	assert.True(t, CanUsePremiumFeature(Account{IsPremium: true}, base).Allowed)
	assert.True(t, CanUsePremiumFeature(Account{TrialStartedAt: ptr(base)}, base).Allowed)

	d := CanUsePremiumFeature(Account{TrialStartedAt: ptr(base.Add(-60 * day))}, base)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPremiumRequired, d.Reason)
	assert.Equal(t, StateTrialEnded, d.State)
}
