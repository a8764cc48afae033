package services

import (
	"context"
	"strings"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/detector"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
	"github.com/pratik-mahalle/leafdoctor/internal/integrations"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/metrics"
	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
)

// ImageAnalyzer runs the vision model over one image
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img diagnosis.Image) (*integrations.Analysis, error)
	Model() string
}

// DiagnosisService implements diagnosis.Service. Entitlement is checked by
// the caller before Diagnose runs.
type DiagnosisService struct {
	repo      diagnosis.Repository
	analytics analytics.Service
	vision    ImageAnalyzer
	store     uploads.Store
	now       func() time.Time
	logger    *logger.Logger
}

// NewDiagnosisService creates a new diagnosis service
func NewDiagnosisService(
	repo diagnosis.Repository,
	analyticsService analytics.Service,
	vision ImageAnalyzer,
	store uploads.Store,
	log *logger.Logger,
) diagnosis.Service {
	return &DiagnosisService{
		repo:      repo,
		analytics: analyticsService,
		vision:    vision,
		store:     store,
		now:       time.Now,
		logger:    log,
	}
}

// Diagnose stores the image, asks the model about it, interprets the answer
// and persists the result. Statistics are updated after the diagnosis is
// stored and their failures are only logged.
func (s *DiagnosisService) Diagnose(ctx context.Context, userID int64, img diagnosis.Image) (*diagnosis.Diagnosis, error) {
	log := s.logger.With("user_id", userID)

	name := uploads.NewName(img.Filename, img.ContentType)
	if err := s.store.Save(ctx, name, img.ContentType, img.Data); err != nil {
		log.ErrorWithErr(err, "Failed to store upload")
		return nil, errors.Internal("Failed to store image", err)
	}

	analysis, err := s.vision.Analyze(ctx, img)
	if err != nil {
		log.ErrorWithErr(err, "Image analysis failed")
		return nil, errors.Internal("Failed to process diagnosis", err)
	}

	res := detector.Interpret(analysis.Prose, analysis.PlantPresent)

	d := &diagnosis.Diagnosis{
		UserID:      userID,
		ImageURL:    uploads.URL(name),
		Disease:     res.Disease,
		Confidence:  res.Confidence,
		Severity:    res.Severity,
		Description: res.FullDescription(),
		Treatments:  res.Treatments,
		Metadata: diagnosis.Metadata{
			PlantType:  plantTypeFor(res, analysis.Presence),
			AIAnalysis: true,
			AIModel:    s.vision.Model(),
		},
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		log.ErrorWithErr(err, "Failed to save diagnosis")
		return nil, err
	}

	metrics.RecordDiagnosis(string(res.Kind), res.Severity)
	log.WithFields(map[string]interface{}{
		"diagnosis_id": d.ID,
		"disease":      d.Disease,
		"confidence":   d.Confidence,
		"source":       res.Source,
	}).Info("Diagnosis created")

	s.recordDiagnosis(ctx, d)
	return d, nil
}

// plantTypeFor prefers the plant named in the analysis, then the presence
// check's guess
func plantTypeFor(res detector.Result, presence integrations.Presence) string {
	if res.IsNonPlant() {
		return diagnosis.PlantTypeNone
	}
	if res.PlantType != "" {
		return res.PlantType
	}
	if pt := strings.TrimSpace(presence.PlantType); pt != "" && !strings.EqualFold(pt, "unknown") {
		return pt
	}
	return diagnosis.PlantTypeUnknown
}

func (s *DiagnosisService) recordDiagnosis(ctx context.Context, d *diagnosis.Diagnosis) {
	// failures are logged by the analytics service
	_ = s.analytics.RecordDiagnosis(ctx, d.UserID, d.Disease, d.Confidence, d.IsNonPlant())

	details := map[string]interface{}{
		"diagnosisId": d.ID,
		"confidence":  d.Confidence,
	}
	activity := analytics.ActivityNonPlantImageUploaded
	if !d.IsNonPlant() {
		activity = analytics.ActivityDiagnosisCreated
		details["disease"] = d.Disease
	}
	s.logActivity(ctx, d.UserID, activity, details)
}

func (s *DiagnosisService) logActivity(ctx context.Context, userID int64, activityType string, details map[string]interface{}) {
	if _, err := s.analytics.LogActivity(ctx, userID, activityType, details); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id":  userID,
			"activity": activityType,
		}).WarnWithErr(err, "Failed to log activity")
	}
}

func (s *DiagnosisService) trackUsage(ctx context.Context, userID int64, fn func(m *analytics.UsageMetrics)) {
	if err := s.analytics.TrackUsage(ctx, userID, fn); err != nil {
		s.logger.With("user_id", userID).WarnWithErr(err, "Failed to track usage")
	}
}

// List returns the user's diagnosis history, newest first
func (s *DiagnosisService) List(ctx context.Context, userID int64) ([]*diagnosis.Diagnosis, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.trackUsage(ctx, userID, func(m *analytics.UsageMetrics) {
		m.FeatureUsage.Increment(analytics.UsageHistoryViews)
	})
	s.logActivity(ctx, userID, analytics.ActivityHistoryViewed, map[string]interface{}{"count": len(list)})

	return list, nil
}

// Recent returns the user's latest diagnoses
func (s *DiagnosisService) Recent(ctx context.Context, userID int64, limit int) ([]*diagnosis.Diagnosis, error) {
	list, err := s.repo.ListRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	s.trackUsage(ctx, userID, func(m *analytics.UsageMetrics) {
		m.FeatureUsage.Increment(analytics.UsageRecentViews)
	})
	s.logActivity(ctx, userID, analytics.ActivityRecentViewed, map[string]interface{}{"limit": limit})

	return list, nil
}

// Get returns one diagnosis. Diagnoses of other users are forbidden.
func (s *DiagnosisService) Get(ctx context.Context, userID, id int64) (*diagnosis.Diagnosis, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, errors.Forbidden("Access denied")
	}

	s.trackUsage(ctx, userID, func(m *analytics.UsageMetrics) {
		m.FeatureUsage.Increment(analytics.UsageDiagnosisViews)
		m.FeatureUsage.IncrementIn(analytics.UsageViewedDiseases, d.Disease)
	})
	s.logActivity(ctx, userID, analytics.ActivityDiagnosisViewed, map[string]interface{}{
		"diagnosisId": d.ID,
		"disease":     d.Disease,
	})

	return d, nil
}
