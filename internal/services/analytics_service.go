package services

import (
	"context"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/metrics"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
)

// AnalyticsService implements analytics.Service
type AnalyticsService struct {
	repo   analytics.Repository
	now    func() time.Time
	logger *logger.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo analytics.Repository, log *logger.Logger) analytics.Service {
	return &AnalyticsService{
		repo:   repo,
		now:    time.Now,
		logger: log,
	}
}

func (s *AnalyticsService) today() string {
	return s.now().UTC().Format(utils.DateLayout)
}

// RecordDiagnosis updates the disease aggregate and today's usage row. Both
// updates are attempted; the first failure is returned.
func (s *AnalyticsService) RecordDiagnosis(ctx context.Context, userID int64, disease string, confidence float64, nonPlant bool) error {
	var firstErr error

	if err := s.repo.RecordDiagnosisStat(ctx, disease, confidence); err != nil {
		metrics.RecordAnalyticsFailure("diagnosis_stats")
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"disease": disease,
		}).ErrorWithErr(err, "Failed to update diagnosis statistics")
		firstErr = err
	}

	err := s.repo.UpdateUsage(ctx, userID, s.today(), func(m *analytics.UsageMetrics) {
		m.DiagnosisCount++
		m.FeatureUsage.IncrementIn(analytics.UsageDiseaseTypes, disease)
		m.FeatureUsage.IncrementIn(analytics.UsageConfidenceLevels, analytics.ConfidenceBucket(confidence))
		if nonPlant {
			m.FeatureUsage.Increment(analytics.UsageNonPlantImages)
		}
	})
	if err != nil {
		metrics.RecordAnalyticsFailure("usage_metrics")
		s.logger.With("user_id", userID).ErrorWithErr(err, "Failed to update usage metrics")
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// RecordLogin bumps today's login count
func (s *AnalyticsService) RecordLogin(ctx context.Context, userID int64) error {
	return s.TrackUsage(ctx, userID, func(m *analytics.UsageMetrics) {
		m.LoginCount++
	})
}

// TrackUsage applies fn to today's usage row
func (s *AnalyticsService) TrackUsage(ctx context.Context, userID int64, fn func(m *analytics.UsageMetrics)) error {
	if err := s.repo.UpdateUsage(ctx, userID, s.today(), fn); err != nil {
		metrics.RecordAnalyticsFailure("usage_metrics")
		return err
	}
	return nil
}

// LogActivity records an activity for the user
func (s *AnalyticsService) LogActivity(ctx context.Context, userID int64, activityType string, details map[string]interface{}) (*analytics.Activity, error) {
	a := &analytics.Activity{
		UserID:       userID,
		ActivityType: activityType,
		Details:      details,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.LogActivity(ctx, a); err != nil {
		metrics.RecordAnalyticsFailure("user_activity")
		return nil, err
	}
	return a, nil
}

// Usage returns daily rows within the optional date range
func (s *AnalyticsService) Usage(ctx context.Context, userID int64, from, to *time.Time) ([]*analytics.UsageMetrics, error) {
	var fromDate, toDate string
	if from != nil {
		fromDate = from.UTC().Format(utils.DateLayout)
	}
	if to != nil {
		toDate = to.UTC().Format(utils.DateLayout)
	}
	return s.repo.ListUsage(ctx, userID, fromDate, toDate)
}

// DiseaseStats returns the most frequent diseases
func (s *AnalyticsService) DiseaseStats(ctx context.Context, limit int) ([]*analytics.DiagnosisStats, error) {
	return s.repo.ListDiagnosisStats(ctx, limit)
}

// Activities returns the user's latest activities
func (s *AnalyticsService) Activities(ctx context.Context, userID int64, limit int) ([]*analytics.Activity, error) {
	return s.repo.ListActivities(ctx, userID, limit)
}
