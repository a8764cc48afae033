package dto

// LogActivityRequest records a client-side activity
type LogActivityRequest struct {
	ActivityType string                 `json:"activityType" validate:"required,max=100"`
	Details      map[string]interface{} `json:"details,omitempty"`
}
