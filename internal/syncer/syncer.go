// internal/syncer/syncer.go
package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github-sync-proxy/internal/model"
	"github-sync-proxy/internal/store"
)

const (
	// Hard ceiling per sync call. Excess entries are dropped, not paginated.
	maxReposPerSync = 50

	maxNameLen        = 255
	maxDescriptionLen = 1000
	maxLanguageLen    = 50
	maxFullNameLen    = 255
	maxCloneURLLen    = 500
)

// Syncer writes caller-selected repositories into the repository table while
// protecting externally-assigned ids from cross-user collision.
type Syncer struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(st store.Store, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// SyncBatch upserts the given repositories for userID, in input order, and
// returns how many were actually written.
//
// Records past the first 50 are dropped. A record is skipped, without
// failing the batch, when it carries no usable identifier or when its
// external id is already claimed by a different user (the anti-hijack
// guard). Each upsert is its own statement: an error partway through leaves
// prior records committed and aborts the remainder.
func (s *Syncer) SyncBatch(ctx context.Context, userID string, repos []model.ExternalRepo) (int, error) {
	logger := s.logger.With("user_id", userID)

	if len(repos) > maxReposPerSync {
		logger.Info("Truncating sync batch", "requested", len(repos), "limit", maxReposPerSync)
		repos = repos[:maxReposPerSync]
	}

	synced := 0
	for _, repo := range repos {
		if repo.ID == 0 || repo.Name == "" {
			continue
		}

		githubRepoID := strconv.FormatInt(repo.ID, 10)

		// The ownership check is read-then-write, not atomic against a
		// concurrent sync of the same id by another user. External ids are
		// globally assigned by GitHub, so cross-account collisions are not
		// the common case; the unique constraint still bounds the damage.
		owner, err := s.store.GetRepositoryOwner(ctx, githubRepoID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return synced, fmt.Errorf("checking repository owner: %w", err)
		}
		if err == nil && owner != userID {
			logger.Info("Skipping repository claimed by another user", "github_repo_id", githubRepoID)
			continue
		}

		if err := s.store.UpsertRepository(ctx, s.toRepository(userID, githubRepoID, repo)); err != nil {
			return synced, fmt.Errorf("upserting repository %s: %w", githubRepoID, err)
		}
		synced++
	}

	logger.Info("Sync batch complete", "synced", synced, "considered", len(repos))
	return synced, nil
}

// toRepository maps an external record onto a row for userID, applying the
// column length limits.
func (s *Syncer) toRepository(userID, githubRepoID string, repo model.ExternalRepo) *model.Repository {
	visibility := "public"
	if repo.Private {
		visibility = "private"
	}

	return &model.Repository{
		UserID:         userID,
		Name:           truncate(repo.Name, maxNameLen),
		Description:    truncatePtr(repo.Description, maxDescriptionLen),
		Visibility:     visibility,
		Language:       truncatePtr(repo.Language, maxLanguageLen),
		StarsCount:     repo.StargazersCount,
		ForksCount:     repo.ForksCount,
		GithubRepoID:   githubRepoID,
		GithubFullName: nonEmptyPtr(truncate(repo.FullName, maxFullNameLen)),
		CloneURL:       nonEmptyPtr(truncate(repo.CloneURL, maxCloneURLLen)),
		IsSynced:       true,
		LastSyncedAt:   sql.NullTime{Time: s.now().UTC(), Valid: true},
	}
}

// truncate caps s at max characters. Counting is rune-based: the column
// limits are character limits, and a byte slice could cut a multi-byte rune
// in half and produce invalid UTF-8 that Postgres rejects.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func truncatePtr(s *string, max int) *string {
	if s == nil || *s == "" {
		return nil
	}
	t := truncate(*s, max)
	return &t
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
