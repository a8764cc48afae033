package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/leafdoctor/internal/api/middleware"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/utils"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/validator"
)

// requireUser returns the authenticated user id or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Not authenticated"))
		return 0, false
	}
	return userID, true
}

// decodeBody decodes and validates a JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, val *validator.Validator, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return false
	}
	if validationErrs := val.Validate(dst); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return false
	}
	return true
}

// writeServiceError writes err as returned by a service. Errors without
// application context become a 500 carrying fallback; server errors are
// logged with the request's user and id.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, fallback string) {
	appErr := errors.FromError(err, fallback)
	if appErr.StatusCode >= http.StatusInternalServerError {
		fields := map[string]interface{}{
			"request_id": middleware.GetRequestID(r),
			"path":       r.URL.Path,
		}
		if userID, ok := middleware.GetUserID(r); ok {
			fields["user_id"] = userID
		}
		log.WithFields(fields).ErrorWithErr(err, fallback)
	}
	utils.WriteError(w, appErr)
}

// idParam parses a positive integer URL parameter
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
