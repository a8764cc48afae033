package client

import "time"

// User represents an account
type User struct {
	ID                int64       `json:"id"`
	Username          string      `json:"username"`
	Email             string      `json:"email"`
	IsPremium         bool        `json:"isPremium"`
	PremiumUntil      *time.Time  `json:"premiumUntil,omitempty"`
	TrialStartedAt    *time.Time  `json:"trialStartedAt,omitempty"`
	DiagnosisCount    int         `json:"diagnosisCount"`
	LastDiagnosisDate *time.Time  `json:"lastDiagnosisDate,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	TrialStatus       TrialStatus `json:"trialStatus"`
}

// Plan describes the user's access in one word
func (u *User) Plan() string {
	switch {
	case u.IsPremium:
		return "premium"
	case u.TrialStatus.IsInTrial:
		return "trial"
	case u.TrialStatus.TrialEnded:
		return "trial ended"
	default:
		return "free"
	}
}

// TrialStatus is the derived trial state
type TrialStatus struct {
	IsInTrial  bool `json:"isInTrial"`
	TrialEnded bool `json:"trialEnded"`
	DaysLeft   *int `json:"daysLeft,omitempty"`
}

// Diagnosis is one analyzed image
type Diagnosis struct {
	ID          int64                  `json:"id"`
	UserID      int64                  `json:"userId"`
	ImageURL    string                 `json:"imageUrl"`
	Disease     string                 `json:"disease"`
	Confidence  float64                `json:"confidence"`
	Severity    string                 `json:"severity"`
	Description string                 `json:"description"`
	Treatments  []string               `json:"treatments"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// UsageMetrics is one day of a user's usage
type UsageMetrics struct {
	Date           string                 `json:"date"`
	DiagnosisCount int                    `json:"diagnosisCount"`
	LoginCount     int                    `json:"loginCount"`
	FeatureUsage   map[string]interface{} `json:"featureUsage"`
}

// DiseaseStat aggregates diagnoses of one disease across all users
type DiseaseStat struct {
	DiseaseType   string    `json:"diseaseType"`
	Count         int64     `json:"count"`
	AvgConfidence float64   `json:"avgConfidence"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Activity is one entry of the user's activity log
type Activity struct {
	ID           int64                  `json:"id"`
	ActivityType string                 `json:"activityType"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Oracle   string `json:"oracle,omitempty"`
	Model    string `json:"model,omitempty"`
}
