// internal/api/middleware.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github-sync-proxy/internal/apperror"
	"github-sync-proxy/internal/auth"
	"github-sync-proxy/internal/ratelimit"
)

type contextKey string

const userIDKey contextKey = "user_id"

// GetUserID extracts the authenticated caller identity from the request
// context. Empty when the request did not pass authentication.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// authenticate resolves the caller identity from the Authorization header.
// Both gates fail closed: no header is distinguishable from a bad credential
// only by message, never by behavior.
func authenticate(verifier *auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, err := verifier.ValidateToken(auth.ExtractBearerToken(header))
			if err != nil {
				logger.Debug("Token validation failed", "error", err)
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimited applies a per-identity limiter. Runs after authenticate.
func rateLimited(limiter ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())

			result, err := limiter.Check(r.Context(), userID)
			if err != nil {
				respondWithAppError(w, logger, err)
				return
			}
			if !result.Allowed {
				logger.Warn("Rate limit exceeded", "user_id", userID, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				respondWithAppError(w, logger, apperror.RateLimited(result.RetryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs each completed request with structured fields.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logger.Info("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration", time.Since(start),
			)
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}
