// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-sync-proxy/internal/model"
	"github-sync-proxy/internal/tokencipher"
)

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	pool   *pgxpool.Pool
	cipher *tokencipher.Cipher
}

// NewPGStore creates a store that encrypts credentials with cipher.
func NewPGStore(pool *pgxpool.Pool, cipher *tokencipher.Cipher) *PGStore {
	return &PGStore{pool: pool, cipher: cipher}
}

var _ Store = (*PGStore)(nil)

// GetProfile loads a user's GitHub connection state. A profile row without a
// stored token counts as not found: the user exists but is not connected.
func (s *PGStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT github_username, github_access_token
		FROM profiles
		WHERE user_id = $1 AND github_access_token IS NOT NULL`

	var username *string
	var ciphertext []byte

	err := s.pool.QueryRow(ctx, query, userID).Scan(&username, &ciphertext)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	token, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting stored token: %w", err)
	}

	p := &model.Profile{UserID: userID, Token: token}
	if username != nil {
		p.GithubUsername = *username
	}
	return p, nil
}

// UpsertCredential stores a verified token and login for a user.
func (s *PGStore) UpsertCredential(ctx context.Context, userID, token, username string) error {
	ciphertext, err := s.cipher.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypting token: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, github_username, github_access_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			github_username = EXCLUDED.github_username,
			github_access_token = EXCLUDED.github_access_token,
			updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	if _, err := s.pool.Exec(ctx, query, userID, username, ciphertext, now); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// GetRepositoryOwner returns the owning user for an external repository id.
func (s *PGStore) GetRepositoryOwner(ctx context.Context, githubRepoID string) (string, error) {
	query := `SELECT user_id FROM repositories WHERE github_repo_id = $1 LIMIT 1`

	var owner string
	err := s.pool.QueryRow(ctx, query, githubRepoID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("querying repository owner: %w", err)
	}
	return owner, nil
}

// UpsertRepository creates or refreshes a repository row. Conflict resolution
// is keyed on (user_id, github_repo_id), so a user re-syncing the same
// repository refreshes their own row and never touches anyone else's.
func (s *PGStore) UpsertRepository(ctx context.Context, repo *model.Repository) error {
	query := `
		INSERT INTO repositories (
			user_id, name, description, visibility, language,
			stars_count, forks_count, github_repo_id, github_full_name,
			clone_url, is_synced, last_synced_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (user_id, github_repo_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			visibility = EXCLUDED.visibility,
			language = EXCLUDED.language,
			stars_count = EXCLUDED.stars_count,
			forks_count = EXCLUDED.forks_count,
			github_full_name = EXCLUDED.github_full_name,
			clone_url = EXCLUDED.clone_url,
			is_synced = EXCLUDED.is_synced,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, query,
		repo.UserID, repo.Name, repo.Description, repo.Visibility, repo.Language,
		repo.StarsCount, repo.ForksCount, repo.GithubRepoID, repo.GithubFullName,
		repo.CloneURL, repo.IsSynced, repo.LastSyncedAt, now,
	)
	if err != nil {
		return fmt.Errorf("upserting repository: %w", err)
	}
	return nil
}

// GetRepository loads one repository row by owner and external id.
func (s *PGStore) GetRepository(ctx context.Context, userID, githubRepoID string) (*model.Repository, error) {
	query := `
		SELECT id, user_id, name, description, visibility, language,
			stars_count, forks_count, github_repo_id, github_full_name,
			clone_url, is_synced, last_synced_at, created_at, updated_at
		FROM repositories
		WHERE user_id = $1 AND github_repo_id = $2`

	var repo model.Repository
	err := s.pool.QueryRow(ctx, query, userID, githubRepoID).Scan(
		&repo.ID, &repo.UserID, &repo.Name, &repo.Description, &repo.Visibility,
		&repo.Language, &repo.StarsCount, &repo.ForksCount, &repo.GithubRepoID,
		&repo.GithubFullName, &repo.CloneURL, &repo.IsSynced, &repo.LastSyncedAt,
		&repo.DBCreatedAt, &repo.DBUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying repository: %w", err)
	}
	return &repo, nil
}
