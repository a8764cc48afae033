package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/testutil"
)

var testNow = time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC)

func newTestUserService(repo user.Repository, clock *testutil.Clock, signupDays int) *UserService {
	svc := NewUserService(repo, config.EntitlementConfig{SignupPremiumDays: signupDays, PaidPremiumDays: 30}, 4, logger.Nop()).(*UserService)
	svc.now = clock.Now
	return svc
}

func seedUser(repo *testutil.MockUserRepository, u *user.User) *user.User {
	if u.Username == "" {
		u.Username = "grower"
		u.Email = "grower@example.com"
	}
	repo.Put(u)
	return u
}

func timeRef(t time.Time) *time.Time { return &t }

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name        string
		signupDays  int
		wantPremium bool
	}{
		{name: "signup premium granted", signupDays: 30, wantPremium: true},
		{name: "signup premium disabled", signupDays: 0, wantPremium: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockUserRepository()
			svc := newTestUserService(repo, testutil.NewClock(testNow), tt.signupDays)

			u, err := svc.Register(context.Background(), "grower", "grower@example.com", "secret1")
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if u.ID == 0 {
				t.Error("Register() did not set ID")
			}
			if u.PasswordHash == "" || u.PasswordHash == "secret1" {
				t.Errorf("Register() stored password hash %q", u.PasswordHash)
			}
			if u.IsPremium != tt.wantPremium {
				t.Errorf("IsPremium = %v, want %v", u.IsPremium, tt.wantPremium)
			}
			if tt.wantPremium {
				want := testNow.Add(testutil.Days(30))
				if u.PremiumUntil == nil || !u.PremiumUntil.Equal(want) {
					t.Errorf("PremiumUntil = %v, want %v", u.PremiumUntil, want)
				}
			}
			if u.TrialStartedAt != nil {
				t.Error("Register() must not start the trial")
			}
		})
	}
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "grower", "grower@example.com", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := svc.Register(ctx, "grower", "other@example.com", "secret1")
	appErr, ok := errors.As(err)
	if !ok || appErr.StatusCode != 409 {
		t.Fatalf("Register() duplicate error = %v, want 409", err)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
	ctx := context.Background()
	svc.Register(ctx, "grower", "grower@example.com", "secret1")

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    bool
	}{
		{name: "by username", identifier: "grower", password: "secret1"},
		{name: "by email", identifier: "grower@example.com", password: "secret1"},
		{name: "wrong password", identifier: "grower", password: "nope", wantErr: true},
		{name: "unknown user", identifier: "nobody", password: "secret1", wantErr: true},
		{name: "unknown email", identifier: "nobody@example.com", password: "secret1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tt.identifier, tt.password)
			if tt.wantErr {
				appErr, ok := errors.As(err)
				if !ok || appErr.StatusCode != 401 {
					t.Errorf("Authenticate() error = %v, want 401", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if u.Username != "grower" {
				t.Errorf("Authenticate() username = %s", u.Username)
			}
		})
	}
}

func TestUserService_GetExpiresLapsedPremium(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
	u := seedUser(repo, &user.User{IsPremium: true, PremiumUntil: timeRef(testNow.Add(-testutil.Days(1)))})

	got, err := svc.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.IsPremium || got.PremiumUntil != nil {
		t.Errorf("Get() returned premium user %+v", got)
	}

	stored := repo.Account(u.ID)
	if stored.IsPremium || stored.PremiumUntil != nil {
		t.Errorf("expiry was not written back: %+v", stored)
	}
}

func TestUserService_GetKeepsOpenEndedPremium(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
	u := seedUser(repo, &user.User{IsPremium: true})

	got, err := svc.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.IsPremium {
		t.Error("premium without an end date must not expire")
	}
}

func TestUserService_StartTrial(t *testing.T) {
	tests := []struct {
		name    string
		user    *user.User
		wantErr string
	}{
		{
			name: "fresh account",
			user: &user.User{},
		},
		{
			name:    "premium account",
			user:    &user.User{IsPremium: true},
			wantErr: "You already have premium access",
		},
		{
			name:    "trial running",
			user:    &user.User{TrialStartedAt: timeRef(testNow.Add(-testutil.Days(10)))},
			wantErr: "You are already in your 30-day trial period. 20 days remaining.",
		},
		{
			name:    "trial ended",
			user:    &user.User{TrialStartedAt: timeRef(testNow.Add(-testutil.Days(45)))},
			wantErr: "Your trial period has ended. Please upgrade to premium for full access.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockUserRepository()
			svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
			u := seedUser(repo, tt.user)
			before := repo.Account(u.ID).TrialStartedAt

			got, days, err := svc.StartTrial(context.Background(), u.ID)
			if tt.wantErr != "" {
				appErr, ok := errors.As(err)
				if !ok || appErr.StatusCode != 400 || appErr.Message != tt.wantErr {
					t.Fatalf("StartTrial() error = %v, want 400 %q", err, tt.wantErr)
				}
				after := repo.Account(u.ID).TrialStartedAt
				if (before == nil) != (after == nil) || (before != nil && !before.Equal(*after)) {
					t.Errorf("trial start moved from %v to %v", before, after)
				}
				return
			}
			if err != nil {
				t.Fatalf("StartTrial() error = %v", err)
			}
			if days != 30 {
				t.Errorf("StartTrial() days = %d, want 30", days)
			}
			if got.TrialStartedAt == nil || !got.TrialStartedAt.Equal(testNow) {
				t.Errorf("TrialStartedAt = %v, want %v", got.TrialStartedAt, testNow)
			}
		})
	}
}

func TestUserService_TrialNeverRestarts(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	clock := testutil.NewClock(testNow)
	svc := newTestUserService(repo, clock, 0)
	u := seedUser(repo, &user.User{})
	ctx := context.Background()

	if _, _, err := svc.StartTrial(ctx, u.ID); err != nil {
		t.Fatalf("StartTrial() error = %v", err)
	}
	for _, d := range []time.Duration{time.Hour, testutil.Days(31), testutil.Days(400)} {
		clock.Set(testNow.Add(d))
		if _, _, err := svc.StartTrial(ctx, u.ID); err == nil {
			t.Errorf("StartTrial() after %v succeeded", d)
		}
		if started := repo.Account(u.ID).TrialStartedAt; started == nil || !started.Equal(testNow) {
			t.Errorf("TrialStartedAt after %v = %v, want %v", d, started, testNow)
		}
	}
}

func TestUserService_TrialStatus(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	clock := testutil.NewClock(testNow)
	svc := newTestUserService(repo, clock, 0)
	u := seedUser(repo, &user.User{TrialStartedAt: timeRef(testNow)})
	ctx := context.Background()

	clock.Set(testNow.Add(testutil.Days(29) + time.Hour))
	ts, err := svc.TrialStatus(ctx, u.ID)
	if err != nil {
		t.Fatalf("TrialStatus() error = %v", err)
	}
	if !ts.IsInTrial || ts.DaysLeft == nil || *ts.DaysLeft != 1 {
		t.Errorf("TrialStatus() at day 29 = %+v", ts)
	}

	clock.Set(testNow.Add(testutil.Days(30) + time.Second))
	ts, _ = svc.TrialStatus(ctx, u.ID)
	if ts.IsInTrial || !ts.TrialEnded || ts.DaysLeft != nil {
		t.Errorf("TrialStatus() after day 30 = %+v", ts)
	}
}

func TestUserService_AuthorizeDiagnosis(t *testing.T) {
	tests := []struct {
		name       string
		user       *user.User
		wantAllow  bool
		wantReason string
		wantCount  int
	}{
		{
			name:       "no trial yet",
			user:       &user.User{},
			wantReason: entitlement.ReasonNoAccess,
		},
		{
			name:      "in trial",
			user:      &user.User{TrialStartedAt: timeRef(testNow.Add(-testutil.Days(3)))},
			wantAllow: true,
			wantCount: 1,
		},
		{
			name:       "trial ended",
			user:       &user.User{TrialStartedAt: timeRef(testNow.Add(-testutil.Days(31)))},
			wantReason: entitlement.ReasonTrialEnded,
		},
		{
			name:      "premium ignores an ended trial",
			user:      &user.User{IsPremium: true, TrialStartedAt: timeRef(testNow.Add(-testutil.Days(90)))},
			wantAllow: true,
			wantCount: 1,
		},
		{
			name:       "lapsed premium falls back to trial state",
			user:       &user.User{IsPremium: true, PremiumUntil: timeRef(testNow.Add(-time.Hour))},
			wantReason: entitlement.ReasonNoAccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockUserRepository()
			svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
			u := seedUser(repo, tt.user)

			got, d, err := svc.AuthorizeDiagnosis(context.Background(), u.ID)
			if err != nil {
				t.Fatalf("AuthorizeDiagnosis() error = %v", err)
			}
			if d.Allowed != tt.wantAllow || d.Reason != tt.wantReason {
				t.Errorf("decision = %+v, want allowed=%v reason=%q", d, tt.wantAllow, tt.wantReason)
			}
			if !d.Allowed && d.Message == "" {
				t.Error("denial without a message")
			}
			if got.DiagnosisCount != tt.wantCount {
				t.Errorf("DiagnosisCount = %d, want %d", got.DiagnosisCount, tt.wantCount)
			}

			stored, _ := repo.GetByID(context.Background(), u.ID)
			if stored.DiagnosisCount != tt.wantCount {
				t.Errorf("stored DiagnosisCount = %d, want %d", stored.DiagnosisCount, tt.wantCount)
			}
			if tt.wantAllow && (stored.LastDiagnosisDate == nil || !stored.LastDiagnosisDate.Equal(testNow)) {
				t.Errorf("LastDiagnosisDate = %v, want %v", stored.LastDiagnosisDate, testNow)
			}
		})
	}
}

func TestUserService_AuthorizeDiagnosisStoreDisagrees(t *testing.T) {
	repo := &staleTrialRepo{MockUserRepository: testutil.NewMockUserRepository()}
	svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
	u := seedUser(repo.MockUserRepository, &user.User{TrialStartedAt: timeRef(testNow.Add(-testutil.Days(2)))})

	_, d, err := svc.AuthorizeDiagnosis(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("AuthorizeDiagnosis() error = %v", err)
	}
	if d.Allowed || d.Reason != entitlement.ReasonTrialActive {
		t.Errorf("decision = %+v, want TRIAL_ACTIVE denial", d)
	}
	if !strings.Contains(d.Message, "28 days remaining") {
		t.Errorf("message = %q", d.Message)
	}
}

// staleTrialRepo refuses every conditional diagnosis update
type staleTrialRepo struct {
	*testutil.MockUserRepository
}

func (r *staleTrialRepo) RecordDiagnosis(ctx context.Context, id int64, at, trialCutoff time.Time) (bool, error) {
	return false, nil
}

func TestUserService_AuthorizeFeature(t *testing.T) {
	tests := []struct {
		name      string
		user      *user.User
		wantAllow bool
		wantState entitlement.State
	}{
		{name: "premium", user: &user.User{IsPremium: true}, wantAllow: true, wantState: entitlement.StatePremium},
		{name: "in trial", user: &user.User{TrialStartedAt: timeRef(testNow)}, wantAllow: true, wantState: entitlement.StateInTrial},
		{name: "trial ended", user: &user.User{TrialStartedAt: timeRef(testNow.Add(-testutil.Days(60)))}, wantState: entitlement.StateTrialEnded},
		{name: "no trial", user: &user.User{}, wantState: entitlement.StateNoTrialYet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockUserRepository()
			svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
			u := seedUser(repo, tt.user)

			_, d, err := svc.AuthorizeFeature(context.Background(), u.ID)
			if err != nil {
				t.Fatalf("AuthorizeFeature() error = %v", err)
			}
			if d.Allowed != tt.wantAllow || d.State != tt.wantState {
				t.Errorf("decision = %+v", d)
			}
			if !d.Allowed && d.Reason != entitlement.ReasonPremiumRequired {
				t.Errorf("reason = %q, want PREMIUM_REQUIRED", d.Reason)
			}
		})
	}
}

func TestUserService_GrantAndRevokePremium(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	svc := newTestUserService(repo, testutil.NewClock(testNow), 0)
	u := seedUser(repo, &user.User{})
	ctx := context.Background()

	until := testNow.Add(testutil.Days(30))
	got, err := svc.GrantPremium(ctx, u.ID, until)
	if err != nil {
		t.Fatalf("GrantPremium() error = %v", err)
	}
	if !got.IsPremium || got.PremiumUntil == nil || !got.PremiumUntil.Equal(until) {
		t.Errorf("GrantPremium() = %+v", got)
	}

	if err := svc.RevokePremium(ctx, u.ID); err != nil {
		t.Fatalf("RevokePremium() error = %v", err)
	}
	if acc := repo.Account(u.ID); acc.IsPremium || acc.PremiumUntil != nil {
		t.Errorf("RevokePremium() left %+v", acc)
	}

	if _, err := svc.GrantPremium(ctx, 999, until); !errors.IsNotFound(err) {
		t.Errorf("GrantPremium() unknown user error = %v", err)
	}
}
