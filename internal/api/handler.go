// internal/api/handler.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-sync-proxy/internal/assistant"
	"github-sync-proxy/internal/auth"
	"github-sync-proxy/internal/github"
	"github-sync-proxy/internal/ratelimit"
	"github-sync-proxy/internal/store"
	"github-sync-proxy/internal/syncer"
)

// Deps is the container for API dependencies.
type Deps struct {
	Store          store.Store
	GithubClient   *github.Client
	Syncer         *syncer.Syncer
	Gateway        *assistant.Client
	Verifier       *auth.Verifier
	GithubLimiter  ratelimit.Limiter
	ChatLimiter    ratelimit.Limiter
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// Gate order on the proxy endpoints is fixed: CORS headers are always set,
// then authentication, then the per-endpoint rate limit, then the action.
func NewRouter(d Deps) http.Handler {
	githubHandler := NewGithubHandler(d.Store, d.GithubClient, d.Syncer, d.Logger)
	chatHandler := NewChatHandler(d.Gateway, d.Logger)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware(d.AllowedOrigins))

	// API Routes
	r.Get("/health", healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Use(authenticate(d.Verifier, d.Logger))

		r.With(rateLimited(d.GithubLimiter, d.Logger)).
			Post("/github", githubHandler.ServeAction)
		r.With(rateLimited(d.ChatLimiter, d.Logger)).
			Post("/chat", chatHandler.ServeChat)
	})

	return r
}

// healthCheck is a simple health endpoint.
func healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
