package diagnosis

import "context"

// Repository defines the interface for diagnosis data access
type Repository interface {
	// Create stores a new diagnosis and sets its ID and CreatedAt
	Create(ctx context.Context, d *Diagnosis) error

	// GetByID retrieves a diagnosis by ID
	GetByID(ctx context.Context, id int64) (*Diagnosis, error)

	// ListByUser returns all of a user's diagnoses, newest first
	ListByUser(ctx context.Context, userID int64) ([]*Diagnosis, error)

	// ListRecentByUser returns at most limit diagnoses, newest first
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*Diagnosis, error)
}
