package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestLogin_SetsTokenAndPicksIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantField  string
	}{
		{name: "username", identifier: "grower", wantField: "username"},
		{name: "email", identifier: "grower@example.com", wantField: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/auth/login", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				writeJSON(w, http.StatusOK, `{"success":true,"data":{"accessToken":"tok","refreshToken":"ref","user":{"id":1,"username":"grower"}}}`)
			})

			resp, err := c.Login(context.Background(), tt.identifier, "secret1")
			require.NoError(t, err)
			assert.Equal(t, "tok", resp.Token)
			assert.Equal(t, "tok", c.GetToken())
			assert.Equal(t, "grower", resp.User.Username)
			assert.Equal(t, tt.identifier, body[tt.wantField])
			assert.Equal(t, "secret1", body["password"])
		})
	}
}

func TestDo_SendsBearerToken(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"isInTrial":true,"trialEnded":false,"daysLeft":12}}`)
	})
	c.SetToken("tok")

	status, err := c.Trial().Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsInTrial)
	require.NotNil(t, status.DaysLeft)
	assert.Equal(t, 12, *status.DaysLeft)
}

func TestDiagnose_UploadsMultipart(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/diagnose", r.URL.Path)
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "leaf.png", header.Filename)
		assert.Equal(t, "pixels", string(data))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":3,"disease":"Apple Scab","confidence":0.85,"severity":"High","treatments":["Prune"]}}`)
	})

	d, err := c.Diagnoses().Diagnose(context.Background(), "leaf.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.ID)
	assert.Equal(t, "Apple Scab", d.Disease)
	assert.Equal(t, []string{"Prune"}, d.Treatments)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      string
		wantMessage   string
		wantTrial     bool
		wantForbidden bool
	}{
		{
			name:        "enveloped error",
			status:      http.StatusNotFound,
			body:        `{"success":false,"error":{"code":"NOT_FOUND","message":"Diagnosis not found"}}`,
			wantCode:    "NOT_FOUND",
			wantMessage: "Diagnosis not found",
		},
		{
			name:          "flat denial with trial offer",
			status:        http.StatusForbidden,
			body:          `{"success":false,"error":"NO_ACCESS","message":"Start your free trial","canStartTrial":true}`,
			wantCode:      CodeNoAccess,
			wantMessage:   "Start your free trial",
			wantTrial:     true,
			wantForbidden: true,
		},
		{
			name:          "trial ended",
			status:        http.StatusForbidden,
			body:          `{"success":false,"error":"TRIAL_ENDED","message":"Your trial has ended","trialEnded":true}`,
			wantCode:      CodeTrialEnded,
			wantMessage:   "Your trial has ended",
			wantForbidden: true,
		},
		{
			name:        "non-json body",
			status:      http.StatusBadGateway,
			body:        "upstream down",
			wantMessage: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.Diagnoses().Get(context.Background(), 9)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantTrial, apiErr.CanStartTrial())
			assert.Equal(t, tt.wantForbidden, apiErr.IsForbidden())
		})
	}
}

func TestAnalytics_QueryParameters(t *testing.T) {
	var gotQuery string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"diseaseType":"Apple Scab","count":4,"avgConfidence":0.8}]}`)
	})

	stats, err := c.Analytics().DiseaseStats(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "limit=3", gotQuery)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(4), stats[0].Count)

	_, err = c.Analytics().DiseaseStats(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestAssistant_Ask(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Is it spreading?", body["question"])
		assert.Equal(t, "Apple Scab", body["diseaseContext"])
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"response":"Remove fallen leaves."}}`)
	})

	answer, err := c.Assistant().Ask(context.Background(), "Is it spreading?", "Apple Scab")
	require.NoError(t, err)
	assert.Equal(t, "Remove fallen leaves.", answer)
}

func TestLogout_ClearsToken(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"message":"Logged out successfully"}`)
	})
	c.SetToken("tok")

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.GetToken())
}
