// internal/api/cors.go
package api

import (
	"net/http"
	"slices"
)

const corsAllowHeaders = "authorization, x-client-info, apikey, content-type"

// corsMiddleware computes CORS headers per request from an exact-match origin
// allow-list. Requests are never rejected for CORS: a non-matching or absent
// origin receives a response addressed to the first allowed origin, which a
// browser on a disallowed origin will refuse to read. Preflight requests
// short-circuit after the headers are set.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && slices.Contains(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigins[0])
			}
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
