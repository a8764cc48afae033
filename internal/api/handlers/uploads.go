package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
)

// UploadHandler serves stored diagnosis images
type UploadHandler struct {
	store  uploads.Store
	logger *logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store uploads.Store, log *logger.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: log}
}

// Serve streams one stored image to an authenticated user
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if !uploads.ValidName(name) {
		utils.WriteError(w, errors.NotFound("Image"))
		return
	}

	rc, contentType, err := h.store.Open(r.Context(), name)
	if err != nil {
		if stderrors.Is(err, uploads.ErrNotFound) {
			utils.WriteError(w, errors.NotFound("Image"))
			return
		}
		writeServiceError(w, r, h.logger, err, "Failed to read image")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.With("upload", name).WarnWithErr(err, "Failed to stream image")
	}
}
