package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// AnalyticsService handles analytics API calls. Every view except
// LogActivity requires premium or an active trial.
type AnalyticsService struct {
	client *Client
}

// UsageOptions bounds the usage query. Zero times are left to the server.
type UsageOptions struct {
	StartDate time.Time
	EndDate   time.Time
}

// Usage returns the per-day usage metrics of the current user
func (s *AnalyticsService) Usage(ctx context.Context, opts *UsageOptions) ([]UsageMetrics, error) {
	path := "/api/analytics/usage"
	if opts != nil {
		params := url.Values{}
		if !opts.StartDate.IsZero() {
			params.Set("startDate", opts.StartDate.Format(dateLayout))
		}
		if !opts.EndDate.IsZero() {
			params.Set("endDate", opts.EndDate.Format(dateLayout))
		}
		if len(params) > 0 {
			path += "?" + params.Encode()
		}
	}

	var usage []UsageMetrics
	if err := s.client.doRequest(ctx, "GET", path, nil, &usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// DiseaseStats returns the most diagnosed diseases across all users
func (s *AnalyticsService) DiseaseStats(ctx context.Context, limit int) ([]DiseaseStat, error) {
	var stats []DiseaseStat
	if err := s.client.doRequest(ctx, "GET", withLimit("/api/analytics/disease-stats", limit), nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Activities returns the current user's latest activities
func (s *AnalyticsService) Activities(ctx context.Context, limit int) ([]Activity, error) {
	var activities []Activity
	if err := s.client.doRequest(ctx, "GET", withLimit("/api/analytics/activities", limit), nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// LogActivity records a client-side activity
func (s *AnalyticsService) LogActivity(ctx context.Context, activityType string, details map[string]interface{}) (*Activity, error) {
	req := map[string]interface{}{
		"activityType": activityType,
	}
	if details != nil {
		req["details"] = details
	}

	var activity Activity
	if err := s.client.doRequest(ctx, "POST", "/api/analytics/log-activity", req, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

func withLimit(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return path + "?limit=" + strconv.Itoa(limit)
}
