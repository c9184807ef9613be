package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const corsMaxAgeSeconds = 300

// localStorefront is the dev server origin used when none are configured.
const localStorefront = "http://localhost:3000"

// CORS applies the storefront origin policy. Origins may use a single wildcard, as in
// https://*.heritageheaven.lk, for preview deployments.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{localStorefront}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader, currencyHeader, requestIDHeader},
		// Retry-After lets the login form show the throttle countdown.
		ExposedHeaders:   []string{SessionHeader, requestIDHeader, "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeSeconds,
	}).Handler
}
