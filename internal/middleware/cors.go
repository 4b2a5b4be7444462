package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler builds the CORS layer from the configured origin allowlist.
// Origins are matched verbatim (scheme plus host, no trailing slash). The
// method and header lists cover everything the dispatch API accepts,
// including the PUT used for trip pricing.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler
}
