package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// DiagnosisService handles diagnosis API calls
type DiagnosisService struct {
	client *Client
}

// Diagnose uploads one leaf image and returns the stored diagnosis. A
// denied upload returns an *APIError whose Code is TRIAL_ENDED or
// NO_ACCESS.
func (s *DiagnosisService) Diagnose(ctx context.Context, filename string, image io.Reader) (*Diagnosis, error) {
	var d Diagnosis
	if err := s.client.doUpload(ctx, "/api/diagnose", "image", filename, image, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns every diagnosis of the current user, newest first
func (s *DiagnosisService) List(ctx context.Context) ([]Diagnosis, error) {
	var diagnoses []Diagnosis
	if err := s.client.doRequest(ctx, "GET", "/api/diagnoses", nil, &diagnoses); err != nil {
		return nil, err
	}
	return diagnoses, nil
}

// Recent returns the latest diagnoses. A limit of zero uses the server default.
func (s *DiagnosisService) Recent(ctx context.Context, limit int) ([]Diagnosis, error) {
	path := "/api/diagnoses/recent"
	if limit > 0 {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		path += "?" + params.Encode()
	}

	var diagnoses []Diagnosis
	if err := s.client.doRequest(ctx, "GET", path, nil, &diagnoses); err != nil {
		return nil, err
	}
	return diagnoses, nil
}

// Get retrieves a single diagnosis by ID
func (s *DiagnosisService) Get(ctx context.Context, id int64) (*Diagnosis, error) {
	var d Diagnosis
	if err := s.client.doRequest(ctx, "GET", fmt.Sprintf("/api/diagnoses/%d", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
