package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
)

// DiagnosisRepository implements diagnosis.Repository
type DiagnosisRepository struct {
	db *sql.DB
}

// NewDiagnosisRepository creates a new diagnosis repository
func NewDiagnosisRepository(db *sql.DB) diagnosis.Repository {
	return &DiagnosisRepository{db: db}
}

const diagnosisColumns = `id, user_id, image_url, disease, confidence, severity, description, treatments, metadata, created_at`

// Create stores a diagnosis
func (r *DiagnosisRepository) Create(ctx context.Context, d *diagnosis.Diagnosis) error {
	defer observe("insert", "diagnoses", time.Now())

	treatments, err := json.Marshal(d.Treatments)
	if err != nil {
		return errors.Internal("Failed to encode treatments", err)
	}
	metadata, err := json.Marshal(d.Metadata)
	if err != nil {
		return errors.Internal("Failed to encode metadata", err)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO diagnoses (user_id, image_url, disease, confidence, severity, description, treatments, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err = r.db.QueryRowContext(ctx, query,
		d.UserID, d.ImageURL, d.Disease, d.Confidence, d.Severity, d.Description,
		string(treatments), string(metadata), d.CreatedAt.Unix(),
	).Scan(&d.ID)
	if err != nil {
		return errors.DatabaseError("Failed to create diagnosis", err)
	}
	return nil
}

// GetByID retrieves a diagnosis by ID
func (r *DiagnosisRepository) GetByID(ctx context.Context, id int64) (*diagnosis.Diagnosis, error) {
	defer observe("select", "diagnoses", time.Now())

	query := `SELECT ` + diagnosisColumns + ` FROM diagnoses WHERE id = $1`

	d, err := scanDiagnosis(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Diagnosis")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get diagnosis", err)
	}
	return d, nil
}

// ListByUser returns all of a user's diagnoses, newest first
func (r *DiagnosisRepository) ListByUser(ctx context.Context, userID int64) ([]*diagnosis.Diagnosis, error) {
	query := `SELECT ` + diagnosisColumns + ` FROM diagnoses WHERE user_id = $1 ORDER BY id DESC`
	return r.list(ctx, query, userID)
}

// ListRecentByUser returns at most limit diagnoses, newest first
func (r *DiagnosisRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*diagnosis.Diagnosis, error) {
	query := `SELECT ` + diagnosisColumns + ` FROM diagnoses WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

func (r *DiagnosisRepository) list(ctx context.Context, query string, args ...interface{}) ([]*diagnosis.Diagnosis, error) {
	defer observe("select", "diagnoses", time.Now())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list diagnoses", err)
	}
	defer rows.Close()

	out := []*diagnosis.Diagnosis{}
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan diagnosis", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate diagnoses", err)
	}
	return out, nil
}

func scanDiagnosis(row rowScanner) (*diagnosis.Diagnosis, error) {
	var d diagnosis.Diagnosis
	var treatments, metadata string
	var createdAt int64

	err := row.Scan(
		&d.ID, &d.UserID, &d.ImageURL, &d.Disease, &d.Confidence, &d.Severity, &d.Description,
		&treatments, &metadata, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(treatments), &d.Treatments); err != nil {
		return nil, err
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &d.Metadata); err != nil {
			return nil, err
		}
	}
	d.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &d, nil
}
