// internal/api/github.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github-sync-proxy/internal/apperror"
	"github-sync-proxy/internal/github"
	"github-sync-proxy/internal/model"
	"github-sync-proxy/internal/store"
	"github-sync-proxy/internal/syncer"
)

// tokenPrefix is GitHub's classic personal-access-token prefix. Verify
// rejects anything else before a single upstream call is made.
const tokenPrefix = "ghp_"

// githubRequest is the action envelope for the GitHub proxy endpoint.
type githubRequest struct {
	Action   string               `json:"action"`
	Token    string               `json:"token,omitempty"`
	RepoData []model.ExternalRepo `json:"repoData,omitempty"`
}

// GithubHandler routes proxy actions to the token store, the GitHub client,
// and the syncer.
type GithubHandler struct {
	store    store.Store
	ghClient *github.Client
	syncer   *syncer.Syncer
	logger   *slog.Logger
}

// NewGithubHandler creates the handler for the GitHub proxy endpoint.
func NewGithubHandler(st store.Store, ghClient *github.Client, sn *syncer.Syncer, logger *slog.Logger) *GithubHandler {
	return &GithubHandler{
		store:    st,
		ghClient: ghClient,
		syncer:   sn,
		logger:   logger,
	}
}

// ServeAction dispatches a proxy request to the matching action handler.
// Auth and rate limiting have already run as middleware.
// POST /v1/github
func (h *GithubHandler) ServeAction(w http.ResponseWriter, r *http.Request) {
	var req githubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithAppError(w, h.logger, apperror.InvalidInput("Invalid request body"))
		return
	}

	userID := GetUserID(r.Context())
	h.logger.Info("GitHub proxy action", "action", req.Action, "user_id", userID)

	switch req.Action {
	case "verify":
		h.verify(w, r, userID, req.Token)
	case "fetch_repos":
		h.fetchRepos(w, r, userID)
	case "sync_repos":
		h.syncRepos(w, r, userID, req.RepoData)
	case "save_token":
		// Historical action, kept only to redirect callers.
		respondWithError(w, http.StatusBadRequest, "Use verify action instead")
	default:
		respondWithAppError(w, h.logger, apperror.InvalidAction())
	}
}

// verify checks a caller-supplied token upstream and stores it on success.
// The token is never persisted on failure and never echoed back.
func (h *GithubHandler) verify(w http.ResponseWriter, r *http.Request, userID, token string) {
	if token == "" || !strings.HasPrefix(token, tokenPrefix) {
		respondWithAppError(w, h.logger, apperror.InvalidTokenFormat())
		return
	}

	username, err := h.ghClient.VerifyToken(r.Context(), token)
	if err != nil {
		h.logger.Error("GitHub token verification failed", "user_id", userID, "status", github.StatusFromError(err))
		respondWithError(w, http.StatusUnauthorized, "Invalid GitHub token")
		return
	}

	if err := h.store.UpsertCredential(r.Context(), userID, token, username); err != nil {
		respondWithAppError(w, h.logger, err)
		return
	}

	h.logger.Info("GitHub connected", "user_id", userID, "username", username)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": username,
	})
}

// fetchRepos lists the caller's repositories using the stored credential.
func (h *GithubHandler) fetchRepos(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.store.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithJSON(w, http.StatusBadRequest, map[string]any{
				"error":     "GitHub not connected",
				"connected": false,
			})
			return
		}
		respondWithAppError(w, h.logger, err)
		return
	}

	repos, err := h.ghClient.ListRepos(r.Context(), profile.Token)
	if err != nil {
		status := github.StatusFromError(err)
		h.logger.Error("Failed to fetch GitHub repos", "user_id", userID, "status", status)
		if status == 0 {
			status = http.StatusBadGateway
		}
		respondWithError(w, status, "Failed to fetch repositories")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"repos":     repos,
		"connected": true,
	})
}

// syncRepos persists the caller's selection of their fetched repositories.
func (h *GithubHandler) syncRepos(w http.ResponseWriter, r *http.Request, userID string, repoData []model.ExternalRepo) {
	if _, err := h.store.GetProfile(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithAppError(w, h.logger, apperror.NotConnected())
			return
		}
		respondWithAppError(w, h.logger, err)
		return
	}

	if len(repoData) == 0 {
		respondWithAppError(w, h.logger, apperror.InvalidInput("Invalid repository data"))
		return
	}

	syncedCount, err := h.syncer.SyncBatch(r.Context(), userID, repoData)
	if err != nil {
		respondWithAppError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"syncedCount": syncedCount,
	})
}
