package services

import (
	"context"
	"strings"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/auth"
	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/metrics"
)

// UserService implements user.Service. Every read of a user goes through
// reconcile, which writes back lapsed premium before anything looks at it.
type UserService struct {
	repo       user.Repository
	cfg        config.EntitlementConfig
	bcryptCost int
	now        func() time.Time
	logger     *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, cfg config.EntitlementConfig, bcryptCost int, log *logger.Logger) user.Service {
	return &UserService{
		repo:       repo,
		cfg:        cfg,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     log,
	}
}

// Register creates an account. New accounts receive the signup premium
// window when one is configured, independently of the trial.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	now := s.now().UTC()
	u := &user.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if s.cfg.SignupPremiumDays > 0 {
		until := now.Add(time.Duration(s.cfg.SignupPremiumDays) * 24 * time.Hour)
		u.IsPremium = true
		u.PremiumUntil = &until
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if err == user.ErrDuplicate {
			return nil, errors.Conflict("Username or email already exists")
		}
		s.logger.ErrorWithErr(err, "Failed to create user")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  u.ID,
		"username": u.Username,
	}).Info("User registered")

	return u, nil
}

// Authenticate checks credentials and returns the reconciled user
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*user.User, error) {
	var u *user.User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.repo.GetByEmail(ctx, identifier)
	} else {
		u, err = s.repo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Invalid username or password")
		}
		return nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, errors.Unauthorized("Invalid username or password")
	}

	return s.reconcile(ctx, u)
}

// Get reads a user, expiring lapsed premium first
func (s *UserService) Get(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, u)
}

func (s *UserService) reconcile(ctx context.Context, u *user.User) (*user.User, error) {
	now := s.now()
	acc, changed := entitlement.Reconcile(u.Account(), now)
	if !changed {
		return u, nil
	}

	if _, err := s.repo.ExpirePremium(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.SetAccount(acc)

	s.logger.With("user_id", u.ID).Info("Premium expired")
	return u, nil
}

// StartTrial begins the one-time trial and returns the days it lasts
func (s *UserService) StartTrial(ctx context.Context, id int64) (*user.User, int, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	if msg := entitlement.TrialStartRefusal(u.Account(), now); msg != "" {
		return nil, 0, errors.BadRequest(msg)
	}

	started, err := s.repo.StartTrial(ctx, id, now)
	if err != nil {
		return nil, 0, err
	}
	if !started {
		// lost a race with another start or a premium grant
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		msg := entitlement.TrialStartRefusal(current.Account(), now)
		if msg == "" {
			msg = "Trial could not be started"
		}
		return nil, 0, errors.BadRequest(msg)
	}

	acc, _ := entitlement.StartTrial(u.Account(), now)
	u.SetAccount(acc)

	s.logger.With("user_id", id).Info("Trial started")
	return u, entitlement.DaysLeft(entitlement.TrialEnd(now), now), nil
}

// TrialStatus derives the user's trial status
func (s *UserService) TrialStatus(ctx context.Context, id int64) (entitlement.TrialStatus, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return entitlement.TrialStatus{}, err
	}
	return entitlement.TrialStatusOf(u.Account(), s.now()), nil
}

// AuthorizeDiagnosis decides whether the user may diagnose. An allowed
// decision has already been counted against the user.
func (s *UserService) AuthorizeDiagnosis(ctx context.Context, id int64) (*user.User, entitlement.Decision, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, entitlement.Decision{}, err
	}

	now := s.now()
	d := entitlement.CanDiagnose(u.Account(), now)
	if !d.Allowed {
		metrics.RecordEntitlement(string(d.State), false)
		return u, d, nil
	}

	counted, err := s.repo.RecordDiagnosis(ctx, id, now, now.Add(-entitlement.TrialLength))
	if err != nil {
		return nil, entitlement.Decision{}, err
	}
	if !counted {
		// the stored row no longer qualifies; report what it says now
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, entitlement.Decision{}, err
		}
		d = entitlement.Deny(entitlement.Evaluate(current.Account(), now))
		metrics.RecordEntitlement(string(d.State), false)
		return current, d, nil
	}

	last := now
	u.DiagnosisCount++
	u.LastDiagnosisDate = &last

	metrics.RecordEntitlement(string(d.State), true)
	return u, d, nil
}

// AuthorizeFeature decides whether the user may use a premium feature
func (s *UserService) AuthorizeFeature(ctx context.Context, id int64) (*user.User, entitlement.Decision, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, entitlement.Decision{}, err
	}
	d := entitlement.CanUsePremiumFeature(u.Account(), s.now())
	metrics.RecordEntitlement(string(d.State), d.Allowed)
	return u, d, nil
}

// GrantPremium makes the user premium until the given time
func (s *UserService) GrantPremium(ctx context.Context, id int64, until time.Time) (*user.User, error) {
	until = until.UTC()
	if err := s.repo.SetPremium(ctx, id, true, &until); err != nil {
		s.logger.With("user_id", id).ErrorWithErr(err, "Failed to grant premium")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":       id,
		"premium_until": until,
	}).Info("Premium granted")

	return s.Get(ctx, id)
}

// RevokePremium clears premium
func (s *UserService) RevokePremium(ctx context.Context, id int64) error {
	if err := s.repo.SetPremium(ctx, id, false, nil); err != nil {
		s.logger.With("user_id", id).ErrorWithErr(err, "Failed to revoke premium")
		return err
	}
	s.logger.With("user_id", id).Info("Premium revoked")
	return nil
}

// LinkStripe records the user's Stripe identifiers
func (s *UserService) LinkStripe(ctx context.Context, id int64, customerID, subscriptionID string) error {
	return s.repo.SetStripeIDs(ctx, id, customerID, subscriptionID)
}

// FindByStripeCustomer resolves a Stripe customer to a user
func (s *UserService) FindByStripeCustomer(ctx context.Context, customerID string) (*user.User, error) {
	return s.repo.GetByStripeCustomerID(ctx, customerID)
}
