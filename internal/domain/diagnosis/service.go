package diagnosis

import "context"

// Service defines the interface for diagnosis business logic
type Service interface {
	// Diagnose runs the full pipeline for an entitled user's upload
	Diagnose(ctx context.Context, userID int64, img Image) (*Diagnosis, error)

	// List returns the user's diagnosis history
	List(ctx context.Context, userID int64) ([]*Diagnosis, error)

	// Recent returns the user's latest diagnoses
	Recent(ctx context.Context, userID int64, limit int) ([]*Diagnosis, error)

	// Get returns one diagnosis owned by the user
	Get(ctx context.Context, userID, id int64) (*Diagnosis, error)
}
