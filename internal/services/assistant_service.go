package services

import (
	"context"
	"strings"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/integrations"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
)

// AssistantService answers plant care questions for entitled users
type AssistantService struct {
	assistant integrations.Assistant
	users     user.Service
	analytics analytics.Service
	logger    *logger.Logger
}

// NewAssistantService creates a new assistant service
func NewAssistantService(assistant integrations.Assistant, users user.Service, analyticsService analytics.Service, log *logger.Logger) *AssistantService {
	return &AssistantService{
		assistant: assistant,
		users:     users,
		analytics: analyticsService,
		logger:    log,
	}
}

// Ask checks the user's access and asks the model. Denials are returned as
// AppErrors carrying TRIAL_ENDED or PREMIUM_REQUIRED.
func (s *AssistantService) Ask(ctx context.Context, userID int64, question, diseaseContext string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.BadRequest("Question is required")
	}

	_, d, err := s.users.AuthorizeFeature(ctx, userID)
	if err != nil {
		return "", err
	}
	if !d.Allowed {
		if d.State == entitlement.StateTrialEnded {
			return "", errors.Denied(entitlement.ReasonTrialEnded,
				"Your trial has ended. Upgrade to Premium to continue using the voice assistant.")
		}
		return "", errors.Denied(entitlement.ReasonPremiumRequired,
			"Premium subscription or active trial required for voice assistant.")
	}

	answer, err := s.assistant.Ask(ctx, question, diseaseContext)
	if err != nil {
		s.logger.With("user_id", userID).ErrorWithErr(err, "Voice assistant request failed")
		return "", errors.Internal("Failed to process voice assistant request", err)
	}

	if err := s.analytics.TrackUsage(ctx, userID, func(m *analytics.UsageMetrics) {
		m.FeatureUsage.Increment(analytics.UsageVoiceAssistant)
	}); err != nil {
		s.logger.With("user_id", userID).WarnWithErr(err, "Failed to track usage")
	}

	details := map[string]interface{}{"questionLength": len(question)}
	if diseaseContext != "" {
		details["diseaseContext"] = diseaseContext
	}
	if _, err := s.analytics.LogActivity(ctx, userID, analytics.ActivityVoiceAssistantUsed, details); err != nil {
		s.logger.With("user_id", userID).WarnWithErr(err, "Failed to log activity")
	}

	return answer, nil
}
