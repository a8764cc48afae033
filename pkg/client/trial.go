package client

import "context"

// TrialService handles trial API calls
type TrialService struct {
	client *Client
}

// TrialStartResponse is returned when a trial begins
type TrialStartResponse struct {
	User     *User `json:"user"`
	DaysLeft int   `json:"daysLeft"`
}

// Start begins the one-time free trial
func (s *TrialService) Start(ctx context.Context) (*TrialStartResponse, error) {
	var resp TrialStartResponse
	if err := s.client.doRequest(ctx, "POST", "/api/trial/start", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status reports the current trial state
func (s *TrialService) Status(ctx context.Context) (*TrialStatus, error) {
	var status TrialStatus
	if err := s.client.doRequest(ctx, "GET", "/api/trial/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
