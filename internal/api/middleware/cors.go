package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// devOrigins are the local frontend dev servers
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS returns a CORS middleware with the given allowed origins. Session
// cookies are sent cross-origin, so origins must be listed explicitly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})
}

// DefaultCORS allows the frontend, plus the local dev servers in development
func DefaultCORS(frontendURL string, development bool) func(http.Handler) http.Handler {
	var allowedOrigins []string
	if frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}
	if development {
		allowedOrigins = append(allowedOrigins, devOrigins...)
	}

	return CORS(allowedOrigins)
}
