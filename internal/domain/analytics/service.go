package analytics

import (
	"context"
	"time"
)

// Service defines the interface for usage tracking and reporting
type Service interface {
	// RecordDiagnosis updates disease statistics and the user's daily usage
	RecordDiagnosis(ctx context.Context, userID int64, disease string, confidence float64, nonPlant bool) error

	// RecordLogin bumps today's login count
	RecordLogin(ctx context.Context, userID int64) error

	// TrackUsage applies fn to the user's usage row for today
	TrackUsage(ctx context.Context, userID int64, fn func(m *UsageMetrics)) error

	// LogActivity records an activity for the user
	LogActivity(ctx context.Context, userID int64, activityType string, details map[string]interface{}) (*Activity, error)

	// Usage returns daily rows within the optional date range
	Usage(ctx context.Context, userID int64, from, to *time.Time) ([]*UsageMetrics, error)

	// DiseaseStats returns the most frequent diseases
	DiseaseStats(ctx context.Context, limit int) ([]*DiagnosisStats, error)

	// Activities returns the user's latest activities
	Activities(ctx context.Context, userID int64, limit int) ([]*Activity, error)
}
