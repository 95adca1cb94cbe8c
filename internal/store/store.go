// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github-sync-proxy/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface for the proxy handlers.
type Store interface {
	// GetProfile loads a user's GitHub connection state with the token
	// decrypted. Returns ErrNotFound when the user has no stored credential.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// UpsertCredential stores a verified token and the account login for a
	// user, replacing any previous credential.
	UpsertCredential(ctx context.Context, userID, token, username string) error
	// GetRepositoryOwner returns the user that owns the row for an external
	// repository id, regardless of which caller asks. Returns ErrNotFound
	// when no row claims the id.
	GetRepositoryOwner(ctx context.Context, githubRepoID string) (string, error)
	// UpsertRepository creates or refreshes a repository row keyed on
	// (user_id, github_repo_id).
	UpsertRepository(ctx context.Context, repo *model.Repository) error
	// GetRepository loads one repository row by owner and external id.
	GetRepository(ctx context.Context, userID, githubRepoID string) (*model.Repository, error)
}
