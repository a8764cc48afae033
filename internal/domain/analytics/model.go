package analytics

import (
	"encoding/json"
	"time"
)

// DiagnosisStats aggregates every diagnosis of one disease name
type DiagnosisStats struct {
	ID            int64     `json:"id"`
	DiseaseType   string    `json:"diseaseType"`
	Count         int64     `json:"count"`
	AvgConfidence float64   `json:"avgConfidence"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UsageMetrics holds one user's counters for one UTC calendar day
type UsageMetrics struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"userId"`
	Date           string       `json:"date"`
	DiagnosisCount int          `json:"diagnosisCount"`
	LoginCount     int          `json:"loginCount"`
	FeatureUsage   FeatureUsage `json:"featureUsage"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Activity is an audit entry for something a user did
type Activity struct {
	ID           int64                  `json:"id"`
	UserID       int64                  `json:"userId"`
	ActivityType string                 `json:"activityType"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Activity types
const (
	ActivityUserRegistered          = "USER_REGISTERED"
	ActivityUserLogin               = "USER_LOGIN"
	ActivityUserLogout              = "USER_LOGOUT"
	ActivityTrialStarted            = "TRIAL_STARTED"
	ActivityDiagnosisCreated        = "DIAGNOSIS_CREATED"
	ActivityNonPlantImageUploaded   = "NON_PLANT_IMAGE_UPLOADED"
	ActivityHistoryViewed           = "DIAGNOSIS_HISTORY_VIEWED"
	ActivityRecentViewed            = "RECENT_DIAGNOSES_VIEWED"
	ActivityDiagnosisViewed         = "DIAGNOSIS_VIEWED"
	ActivityAnalyticsUsageViewed    = "ANALYTICS_USAGE_VIEWED"
	ActivityAnalyticsStatsViewed    = "ANALYTICS_DISEASE_STATS_VIEWED"
	ActivityAnalyticsActivityViewed = "ANALYTICS_ACTIVITY_VIEWED"
	ActivityVoiceAssistantUsed      = "VOICE_ASSISTANT_USED"
	ActivityPaymentIntentSucceeded  = "PAYMENT_INTENT_SUCCEEDED"
	ActivityPremiumActivated        = "PREMIUM_SUBSCRIPTION_ACTIVATED"
	ActivitySubscriptionRenewed     = "SUBSCRIPTION_RENEWED"
	ActivitySubscriptionEnded       = "SUBSCRIPTION_ENDED"
	ActivitySubscriptionPaymentOK   = "SUBSCRIPTION_PAYMENT_SUCCEEDED"
	ActivitySubscriptionPaymentFail = "SUBSCRIPTION_PAYMENT_FAILED"
)

// Feature usage keys
const (
	UsageDiseaseTypes     = "diseaseTypes"
	UsageConfidenceLevels = "confidenceLevels"
	UsageNonPlantImages   = "nonPlantImages"
	UsageHistoryViews     = "historyViews"
	UsageRecentViews      = "recentDiagnosesViews"
	UsageDiagnosisViews   = "diagnosisViews"
	UsageViewedDiseases   = "viewedDiseases"
	UsageAnalyticsViews   = "analyticsViews"
	UsageVoiceAssistant   = "voiceAssistantCount"
)

// ConfidenceBucket maps a confidence score to low, medium or high
func ConfidenceBucket(confidence float64) string {
	switch {
	case confidence < 0.4:
		return "low"
	case confidence < 0.7:
		return "medium"
	default:
		return "high"
	}
}

// FeatureUsage is an open set of counters. Values decoded from JSON arrive
// as float64, nested groups as maps.
type FeatureUsage map[string]interface{}

// Increment adds one to a top-level counter
func (f FeatureUsage) Increment(key string) {
	f[key] = toInt64(f[key]) + 1
}

// IncrementIn adds one to a counter inside a nested group
func (f FeatureUsage) IncrementIn(group, key string) {
	m, ok := f[group].(map[string]interface{})
	if !ok {
		m = map[string]interface{}{}
	}
	m[key] = toInt64(m[key]) + 1
	f[group] = m
}

// Count reads a top-level counter
func (f FeatureUsage) Count(key string) int64 {
	return toInt64(f[key])
}

// CountIn reads a counter inside a nested group
func (f FeatureUsage) CountIn(group, key string) int64 {
	m, ok := f[group].(map[string]interface{})
	if !ok {
		return 0
	}
	return toInt64(m[key])
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
