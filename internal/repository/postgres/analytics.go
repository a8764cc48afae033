package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
)

// AnalyticsRepository implements analytics.Repository
type AnalyticsRepository struct {
	db *sql.DB
	// lockClause is appended to the usage row read inside UpdateUsage
	lockClause string
}

// NewAnalyticsRepository creates a new analytics repository. driver selects
// row locking: SQLite serializes writers on its own.
func NewAnalyticsRepository(db *sql.DB, driver string) analytics.Repository {
	r := &AnalyticsRepository{db: db}
	if driver == "postgres" {
		r.lockClause = " FOR UPDATE"
	}
	return r
}

// RecordDiagnosisStat folds confidence into the running mean for disease
func (r *AnalyticsRepository) RecordDiagnosisStat(ctx context.Context, disease string, confidence float64) error {
	defer observe("upsert", "diagnosis_stats", time.Now())

	query := `
		INSERT INTO diagnosis_stats (disease_type, count, avg_confidence, updated_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (disease_type) DO UPDATE SET
			avg_confidence = (diagnosis_stats.avg_confidence * diagnosis_stats.count + excluded.avg_confidence) / (diagnosis_stats.count + 1),
			count = diagnosis_stats.count + 1,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, disease, confidence, time.Now().Unix()); err != nil {
		return errors.DatabaseError("Failed to record diagnosis statistics", err)
	}
	return nil
}

// GetDiagnosisStat retrieves the aggregate for one disease
func (r *AnalyticsRepository) GetDiagnosisStat(ctx context.Context, disease string) (*analytics.DiagnosisStats, error) {
	defer observe("select", "diagnosis_stats", time.Now())

	query := `SELECT id, disease_type, count, avg_confidence, updated_at FROM diagnosis_stats WHERE disease_type = $1`

	s, err := scanStats(r.db.QueryRowContext(ctx, query, disease))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Diagnosis statistics")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get diagnosis statistics", err)
	}
	return s, nil
}

// ListDiagnosisStats returns aggregates ordered by count, highest first
func (r *AnalyticsRepository) ListDiagnosisStats(ctx context.Context, limit int) ([]*analytics.DiagnosisStats, error) {
	defer observe("select", "diagnosis_stats", time.Now())

	query := `
		SELECT id, disease_type, count, avg_confidence, updated_at
		FROM diagnosis_stats
		ORDER BY count DESC, disease_type ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list diagnosis statistics", err)
	}
	defer rows.Close()

	out := []*analytics.DiagnosisStats{}
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan diagnosis statistics", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate diagnosis statistics", err)
	}
	return out, nil
}

func scanStats(row rowScanner) (*analytics.DiagnosisStats, error) {
	var s analytics.DiagnosisStats
	var updatedAt int64
	if err := row.Scan(&s.ID, &s.DiseaseType, &s.Count, &s.AvgConfidence, &updatedAt); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &s, nil
}

// UpdateUsage creates the (user, date) row if needed and applies fn to it
// in one transaction. Every statement goes through the transaction so a
// single-connection pool cannot deadlock.
func (r *AnalyticsRepository) UpdateUsage(ctx context.Context, userID int64, date string, fn func(m *analytics.UsageMetrics)) error {
	defer observe("upsert", "usage_metrics", time.Now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_metrics (user_id, date, diagnosis_count, login_count, feature_usage, updated_at)
		VALUES ($1, $2, 0, 0, '{}', $3)
		ON CONFLICT (user_id, date) DO NOTHING
	`, userID, date, now.Unix())
	if err != nil {
		return errors.DatabaseError("Failed to create usage metrics", err)
	}

	query := `
		SELECT id, user_id, date, diagnosis_count, login_count, feature_usage, updated_at
		FROM usage_metrics WHERE user_id = $1 AND date = $2` + r.lockClause

	m, err := scanUsage(tx.QueryRowContext(ctx, query, userID, date))
	if err != nil {
		return errors.DatabaseError("Failed to read usage metrics", err)
	}

	fn(m)
	m.UpdatedAt = now

	usage, err := json.Marshal(m.FeatureUsage)
	if err != nil {
		return errors.Internal("Failed to encode feature usage", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE usage_metrics
		SET diagnosis_count = $1, login_count = $2, feature_usage = $3, updated_at = $4
		WHERE id = $5
	`, m.DiagnosisCount, m.LoginCount, string(usage), now.Unix(), m.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update usage metrics", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit usage metrics", err)
	}
	return nil
}

// ListUsage returns a user's daily rows, newest first
func (r *AnalyticsRepository) ListUsage(ctx context.Context, userID int64, from, to string) ([]*analytics.UsageMetrics, error) {
	defer observe("select", "usage_metrics", time.Now())

	query := `
		SELECT id, user_id, date, diagnosis_count, login_count, feature_usage, updated_at
		FROM usage_metrics WHERE user_id = $1`
	args := []interface{}{userID}

	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list usage metrics", err)
	}
	defer rows.Close()

	out := []*analytics.UsageMetrics{}
	for rows.Next() {
		m, err := scanUsage(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan usage metrics", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate usage metrics", err)
	}
	return out, nil
}

func scanUsage(row rowScanner) (*analytics.UsageMetrics, error) {
	var m analytics.UsageMetrics
	var usage string
	var updatedAt int64
	if err := row.Scan(&m.ID, &m.UserID, &m.Date, &m.DiagnosisCount, &m.LoginCount, &usage, &updatedAt); err != nil {
		return nil, err
	}
	m.FeatureUsage = analytics.FeatureUsage{}
	if usage != "" {
		if err := json.Unmarshal([]byte(usage), &m.FeatureUsage); err != nil {
			return nil, err
		}
	}
	m.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &m, nil
}

// LogActivity stores an activity
func (r *AnalyticsRepository) LogActivity(ctx context.Context, a *analytics.Activity) error {
	defer observe("insert", "user_activity", time.Now())

	var details sql.NullString
	if len(a.Details) > 0 {
		b, err := json.Marshal(a.Details)
		if err != nil {
			return errors.Internal("Failed to encode activity details", err)
		}
		details = sql.NullString{String: string(b), Valid: true}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO user_activity (user_id, activity_type, details, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, a.UserID, a.ActivityType, details, a.CreatedAt.Unix()).Scan(&a.ID)
	if err != nil {
		return errors.DatabaseError("Failed to log activity", err)
	}
	return nil
}

// ListActivities returns a user's activities, newest first
func (r *AnalyticsRepository) ListActivities(ctx context.Context, userID int64, limit int) ([]*analytics.Activity, error) {
	defer observe("select", "user_activity", time.Now())

	query := `
		SELECT id, user_id, activity_type, details, created_at
		FROM user_activity WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list activities", err)
	}
	defer rows.Close()

	out := []*analytics.Activity{}
	for rows.Next() {
		var a analytics.Activity
		var details sql.NullString
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &details, &createdAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan activity", err)
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &a.Details); err != nil {
				return nil, errors.DatabaseError("Failed to decode activity details", err)
			}
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate activities", err)
	}
	return out, nil
}
