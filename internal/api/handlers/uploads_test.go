package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
)

func TestUploadHandler_Serve(t *testing.T) {
	env := newTestEnv(t)
	handler := NewUploadHandler(env.store, env.log)

	stored := uploads.NewName("leaf.png", "image/png")
	if err := env.store.Save(context.Background(), stored, "image/png", pngHeader); err != nil {
		t.Fatalf("failed to save upload: %v", err)
	}

	tests := []struct {
		name           string
		upload         string
		expectedStatus int
	}{
		{name: "stored image", upload: stored, expectedStatus: http.StatusOK},
		{name: "unknown image", upload: uploads.NewName("other.png", "image/png"), expectedStatus: http.StatusNotFound},
		{name: "traversal", upload: "..%2Fconfig.yaml", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/uploads/x", nil)
			req = withURLParam(withUser(req, 1), "name", tt.upload)
			rr := httptest.NewRecorder()

			handler.Serve(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
			if rr.Code != http.StatusOK {
				return
			}
			if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Content-Type = %q, want image/png", ct)
			}
			if rr.Body.String() != string(pngHeader) {
				t.Error("served bytes differ from the stored image")
			}
		})
	}
}

func TestUploadHandler_RequiresUser(t *testing.T) {
	env := newTestEnv(t)
	handler := NewUploadHandler(env.store, env.log)

	rr := httptest.NewRecorder()
	handler.Serve(rr, httptest.NewRequest(http.MethodGet, "/uploads/x.png", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
	}
}
