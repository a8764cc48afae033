package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/leafdoctor/internal/api/middleware"
	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/integrations"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/validator"
	"github.com/pratik-mahalle/leafdoctor/internal/services"
	"github.com/pratik-mahalle/leafdoctor/internal/testutil"
	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
)

const day = 24 * time.Hour

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// testEnv wires real services over the in-memory repositories
type testEnv struct {
	users         *testutil.MockUserRepository
	diagnoses     *testutil.MockDiagnosisRepository
	analyticsRepo *testutil.MockAnalyticsRepository
	userService   user.Service
	analytics     analytics.Service
	store         *uploads.LocalStore
	log           *logger.Logger
	val           *validator.Validator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()
	store, err := uploads.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	env := &testEnv{
		users:         testutil.NewMockUserRepository(),
		diagnoses:     testutil.NewMockDiagnosisRepository(),
		analyticsRepo: testutil.NewMockAnalyticsRepository(),
		store:         store,
		log:           log,
		val:           validator.New(),
	}
	env.userService = services.NewUserService(env.users,
		config.EntitlementConfig{SignupPremiumDays: 0, PaidPremiumDays: 30}, 4, log)
	env.analytics = services.NewAnalyticsService(env.analyticsRepo, log)
	return env
}

// seed stores u and returns its id
func (e *testEnv) seed(u *user.User) int64 {
	if u.Username == "" {
		u.Username = "grower"
		u.Email = "grower@example.com"
	}
	e.users.Put(u)
	return u.ID
}

func ago(d time.Duration) *time.Time {
	t := time.Now().Add(-d)
	return &t
}

func withUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return body
}

// errorCode reads the code of an enveloped error response
func errorCode(body map[string]interface{}) string {
	detail, _ := body["error"].(map[string]interface{})
	code, _ := detail["code"].(string)
	return code
}

func dataOf(body map[string]interface{}) map[string]interface{} {
	data, _ := body["data"].(map[string]interface{})
	return data
}

// imageUpload builds a multipart body. An empty field leaves the image out.
func imageUpload(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		part.Write(data)
	} else {
		mw.WriteField("note", "no image here")
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/diagnose", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type fakeAnalyzer struct {
	analysis *integrations.Analysis
	calls    int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, img diagnosis.Image) (*integrations.Analysis, error) {
	f.calls++
	return f.analysis, nil
}

func (f *fakeAnalyzer) Model() string { return "gpt-4o" }

func timeIn(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}
