package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) user.Repository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password, email, is_premium, premium_until, trial_started_at,
	diagnosis_count, last_diagnosis_date, stripe_customer_id, stripe_subscription_id, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var premiumUntil, trialStartedAt, lastDiagnosis sql.NullInt64
	var customerID, subscriptionID sql.NullString
	var createdAt int64

	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.IsPremium, &premiumUntil, &trialStartedAt,
		&u.DiagnosisCount, &lastDiagnosis, &customerID, &subscriptionID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	u.PremiumUntil = timePtr(premiumUntil)
	u.TrialStartedAt = timePtr(trialStartedAt)
	u.LastDiagnosisDate = timePtr(lastDiagnosis)
	u.StripeCustomerID = stringPtr(customerID)
	u.StripeSubscriptionID = stringPtr(subscriptionID)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	defer observe("insert", "users", time.Now())

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (username, password, email, is_premium, premium_until, trial_started_at, diagnosis_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.PasswordHash, u.Email, u.IsPremium, nullTime(u.PremiumUntil), nullTime(u.TrialStartedAt),
		u.DiagnosisCount, u.CreatedAt.Unix(),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrDuplicate
		}
		return errors.DatabaseError("Failed to create user", err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column string, value interface{}) (*user.User, error) {
	defer observe("select", "users", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByStripeCustomerID retrieves the user billed under a Stripe customer
func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	if customerID == "" {
		return nil, errors.NotFound("User")
	}
	return r.getBy(ctx, "stripe_customer_id", customerID)
}

// ExpirePremium clears premium whose end has passed
func (r *UserRepository) ExpirePremium(ctx context.Context, id int64, now time.Time) (bool, error) {
	defer observe("update", "users", time.Now())

	query := `
		UPDATE users SET is_premium = FALSE, premium_until = NULL
		WHERE id = $1 AND premium_until IS NOT NULL AND premium_until < $2
	`
	return r.execChanged(ctx, "Failed to expire premium", query, id, now.Unix())
}

// StartTrial sets the trial start once
func (r *UserRepository) StartTrial(ctx context.Context, id int64, at time.Time) (bool, error) {
	defer observe("update", "users", time.Now())

	query := `
		UPDATE users SET trial_started_at = $1
		WHERE id = $2 AND trial_started_at IS NULL AND is_premium = FALSE
	`
	return r.execChanged(ctx, "Failed to start trial", query, at.Unix(), id)
}

// RecordDiagnosis counts a diagnosis for an entitled user
func (r *UserRepository) RecordDiagnosis(ctx context.Context, id int64, at, trialCutoff time.Time) (bool, error) {
	defer observe("update", "users", time.Now())

	query := `
		UPDATE users SET diagnosis_count = diagnosis_count + 1, last_diagnosis_date = $1
		WHERE id = $2 AND (is_premium = TRUE OR (trial_started_at IS NOT NULL AND trial_started_at > $3))
	`
	return r.execChanged(ctx, "Failed to record diagnosis", query, at.Unix(), id, trialCutoff.Unix())
}

// SetPremium grants or revokes premium
func (r *UserRepository) SetPremium(ctx context.Context, id int64, premium bool, until *time.Time) error {
	defer observe("update", "users", time.Now())

	query := `UPDATE users SET is_premium = $1, premium_until = $2 WHERE id = $3`
	changed, err := r.execChanged(ctx, "Failed to update premium", query, premium, nullTime(until), id)
	if err != nil {
		return err
	}
	if !changed {
		return errors.NotFound("User")
	}
	return nil
}

// SetStripeIDs stores Stripe identifiers. An empty subscription id keeps the
// stored one.
func (r *UserRepository) SetStripeIDs(ctx context.Context, id int64, customerID, subscriptionID string) error {
	defer observe("update", "users", time.Now())

	query := `
		UPDATE users
		SET stripe_customer_id = COALESCE($1, stripe_customer_id),
			stripe_subscription_id = COALESCE($2, stripe_subscription_id)
		WHERE id = $3
	`
	changed, err := r.execChanged(ctx, "Failed to update billing ids", query, nullString(customerID), nullString(subscriptionID), id)
	if err != nil {
		return err
	}
	if !changed {
		return errors.NotFound("User")
	}
	return nil
}

func (r *UserRepository) execChanged(ctx context.Context, msg, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.DatabaseError(msg, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows > 0, nil
}
