package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/repository/postgres"
	"github.com/pratik-mahalle/leafdoctor/internal/testutil"
)

func createUser(t *testing.T, repo user.Repository, username string) *user.User {
	t.Helper()
	u := &user.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return u
}

func TestUserRepository_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *user.User
		wantErr error
	}{
		{
			name: "create user successfully",
			user: &user.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"},
		},
		{
			name: "create another user",
			user: &user.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"},
		},
		{
			name:    "duplicate username",
			user:    &user.User{Username: "alice", Email: "other@example.com", PasswordHash: "hash"},
			wantErr: user.ErrDuplicate,
		},
		{
			name:    "duplicate email",
			user:    &user.User{Username: "carol", Email: "bob@example.com", PasswordHash: "hash"},
			wantErr: user.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if err != tt.wantErr {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && tt.user.ID == 0 {
				t.Error("Create() did not set user ID")
			}
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, repo, "alice")

	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Username != "alice" || byID.PasswordHash != "hash" {
		t.Errorf("GetByID() = %+v", byID)
	}
	if byID.IsPremium || byID.TrialStartedAt != nil || byID.PremiumUntil != nil {
		t.Errorf("new user should have no entitlement, got %+v", byID)
	}

	if _, err := repo.GetByUsername(ctx, "alice"); err != nil {
		t.Errorf("GetByUsername() error = %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "alice@example.com"); err != nil {
		t.Errorf("GetByEmail() error = %v", err)
	}

	if _, err := repo.GetByID(ctx, 9999); !errors.IsNotFound(err) {
		t.Errorf("GetByID() missing error = %v, want not found", err)
	}
	if _, err := repo.GetByStripeCustomerID(ctx, ""); !errors.IsNotFound(err) {
		t.Errorf("GetByStripeCustomerID() empty error = %v, want not found", err)
	}
}

func TestUserRepository_StartTrial(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, repo, "alice")
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	changed, err := repo.StartTrial(ctx, u.ID, start)
	if err != nil || !changed {
		t.Fatalf("StartTrial() = %v, %v, want true", changed, err)
	}

	// a second start never moves the timestamp
	changed, err = repo.StartTrial(ctx, u.ID, start.Add(time.Hour))
	if err != nil || changed {
		t.Fatalf("second StartTrial() = %v, %v, want false", changed, err)
	}

	got, _ := repo.GetByID(ctx, u.ID)
	if got.TrialStartedAt == nil || !got.TrialStartedAt.Equal(start) {
		t.Errorf("TrialStartedAt = %v, want %v", got.TrialStartedAt, start)
	}

	premium := createUser(t, repo, "bob")
	if err := repo.SetPremium(ctx, premium.ID, true, nil); err != nil {
		t.Fatalf("SetPremium() error = %v", err)
	}
	changed, err = repo.StartTrial(ctx, premium.ID, start)
	if err != nil || changed {
		t.Errorf("StartTrial() for premium = %v, %v, want false", changed, err)
	}
}

func TestUserRepository_RecordDiagnosis(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-30 * 24 * time.Hour)

	trial := createUser(t, repo, "trial")
	repo.StartTrial(ctx, trial.ID, now.Add(-24*time.Hour))

	expired := createUser(t, repo, "expired")
	repo.StartTrial(ctx, expired.ID, now.Add(-31*24*time.Hour))

	premium := createUser(t, repo, "premium")
	repo.SetPremium(ctx, premium.ID, true, nil)

	fresh := createUser(t, repo, "fresh")

	tests := []struct {
		name      string
		id        int64
		wantCount int
	}{
		{name: "active trial", id: trial.ID, wantCount: 1},
		{name: "ended trial", id: expired.ID, wantCount: 0},
		{name: "premium", id: premium.ID, wantCount: 1},
		{name: "no trial", id: fresh.ID, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed, err := repo.RecordDiagnosis(ctx, tt.id, now, cutoff)
			if err != nil {
				t.Fatalf("RecordDiagnosis() error = %v", err)
			}
			if changed != (tt.wantCount == 1) {
				t.Errorf("RecordDiagnosis() changed = %v", changed)
			}
			got, _ := repo.GetByID(ctx, tt.id)
			if got.DiagnosisCount != tt.wantCount {
				t.Errorf("DiagnosisCount = %d, want %d", got.DiagnosisCount, tt.wantCount)
			}
			if tt.wantCount == 1 && (got.LastDiagnosisDate == nil || !got.LastDiagnosisDate.Equal(now)) {
				t.Errorf("LastDiagnosisDate = %v, want %v", got.LastDiagnosisDate, now)
			}
		})
	}
}

func TestUserRepository_ExpirePremium(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	lapsed := createUser(t, repo, "lapsed")
	until := now.Add(-time.Minute)
	repo.SetPremium(ctx, lapsed.ID, true, &until)

	current := createUser(t, repo, "current")
	later := now.Add(time.Hour)
	repo.SetPremium(ctx, current.ID, true, &later)

	changed, err := repo.ExpirePremium(ctx, lapsed.ID, now)
	if err != nil || !changed {
		t.Fatalf("ExpirePremium() lapsed = %v, %v, want true", changed, err)
	}
	got, _ := repo.GetByID(ctx, lapsed.ID)
	if got.IsPremium || got.PremiumUntil != nil {
		t.Errorf("lapsed user still premium: %+v", got)
	}

	changed, err = repo.ExpirePremium(ctx, current.ID, now)
	if err != nil || changed {
		t.Fatalf("ExpirePremium() current = %v, %v, want false", changed, err)
	}
	got, _ = repo.GetByID(ctx, current.ID)
	if !got.IsPremium || got.PremiumUntil == nil || !got.PremiumUntil.Equal(later) {
		t.Errorf("current user lost premium: %+v", got)
	}
}

func TestUserRepository_Stripe(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, repo, "alice")

	if err := repo.SetStripeIDs(ctx, u.ID, "cus_123", ""); err != nil {
		t.Fatalf("SetStripeIDs() error = %v", err)
	}
	if err := repo.SetStripeIDs(ctx, u.ID, "", "sub_456"); err != nil {
		t.Fatalf("SetStripeIDs() error = %v", err)
	}

	got, err := repo.GetByStripeCustomerID(ctx, "cus_123")
	if err != nil {
		t.Fatalf("GetByStripeCustomerID() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByStripeCustomerID() id = %d, want %d", got.ID, u.ID)
	}
	if got.StripeSubscriptionID == nil || *got.StripeSubscriptionID != "sub_456" {
		t.Errorf("StripeSubscriptionID = %v, want sub_456", got.StripeSubscriptionID)
	}

	if err := repo.SetPremium(ctx, 9999, true, nil); !errors.IsNotFound(err) {
		t.Errorf("SetPremium() missing user error = %v, want not found", err)
	}
}
