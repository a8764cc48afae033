package client

import (
	"encoding/json"
	"fmt"
)

// Access denial codes
const (
	CodeTrialEnded      = "TRIAL_ENDED"
	CodeNoAccess        = "NO_ACCESS"
	CodePremiumRequired = "PREMIUM_REQUIRED"
)

// APIError represents an error returned by the API
type APIError struct {
	StatusCode int                    `json:"-"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// parseAPIError decodes either error shape the server writes: the
// {"error": {"code", "message"}} envelope, or the flat access denial
// {"error": "CODE", "message", ...} whose extra fields land in Details.
func parseAPIError(status int, body []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return &APIError{StatusCode: status, Message: string(body)}
	}

	apiErr := &APIError{StatusCode: status}
	var nested struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	}
	if err := json.Unmarshal(raw["error"], &nested); err == nil && nested.Code != "" {
		apiErr.Code = nested.Code
		apiErr.Message = nested.Message
		apiErr.Details = nested.Details
		return apiErr
	}

	_ = json.Unmarshal(raw["error"], &apiErr.Code)
	_ = json.Unmarshal(raw["message"], &apiErr.Message)
	for k, v := range raw {
		if k == "success" || k == "error" || k == "message" {
			continue
		}
		var val interface{}
		if err := json.Unmarshal(v, &val); err == nil {
			if apiErr.Details == nil {
				apiErr.Details = map[string]interface{}{}
			}
			apiErr.Details[k] = val
		}
	}
	if apiErr.Message == "" && apiErr.Code == "" {
		apiErr.Message = string(body)
	}
	return apiErr
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized returns true if the error is a 401 unauthorized error
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsForbidden returns true if the error is a 403 forbidden error
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == 403
}

// IsValidationError returns true if the error is a 400 validation error
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == 400
}

// IsRateLimited returns true if the error is a 429
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// CanStartTrial reports whether a denial invites the user to start a trial
func (e *APIError) CanStartTrial() bool {
	v, _ := e.Details["canStartTrial"].(bool)
	return v
}
