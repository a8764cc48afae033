package analytics

import "context"

// Repository defines the interface for usage and statistics storage
type Repository interface {
	// RecordDiagnosisStat folds one confidence value into the running mean
	// for disease. The update is atomic.
	RecordDiagnosisStat(ctx context.Context, disease string, confidence float64) error

	// GetDiagnosisStat retrieves the aggregate for one disease
	GetDiagnosisStat(ctx context.Context, disease string) (*DiagnosisStats, error)

	// ListDiagnosisStats returns aggregates ordered by count, highest first
	ListDiagnosisStats(ctx context.Context, limit int) ([]*DiagnosisStats, error)

	// UpdateUsage creates the (user, date) row if needed and applies fn to
	// it inside one transaction
	UpdateUsage(ctx context.Context, userID int64, date string, fn func(m *UsageMetrics)) error

	// ListUsage returns a user's rows with from <= date <= to. Empty bounds
	// are open.
	ListUsage(ctx context.Context, userID int64, from, to string) ([]*UsageMetrics, error)

	// LogActivity stores an activity and sets its ID and CreatedAt
	LogActivity(ctx context.Context, a *Activity) error

	// ListActivities returns a user's activities, newest first
	ListActivities(ctx context.Context, userID int64, limit int) ([]*Activity, error)
}
