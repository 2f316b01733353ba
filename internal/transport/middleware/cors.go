package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the given origins; "*" or an empty list allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Trace-ID", "X-Request-Id"},
		ExposedHeaders: []string{"X-Trace-ID", "Content-Disposition"},
		MaxAge:         300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.New(opts).Handler
}
