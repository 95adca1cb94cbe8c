// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-sync-proxy/internal/model"
)

const defaultAPIURL = "https://api.github.com"

// maxReposPerFetch is the listing page size. Listing is a single page: the
// proxy returns the most recently updated repositories, not the user's full
// history.
const maxReposPerFetch = 100

// Client is a wrapper around the go-github client. Unlike a single-token
// setup, every call authenticates with the caller's own stored token, so the
// underlying client is built per call.
type Client struct {
	baseURL string
	logger  *slog.Logger
}

// NewClient creates and configures a new Client instance. baseURL is the
// GitHub API root; pass "" for the public API.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return &Client{
		baseURL: baseURL,
		logger:  logger,
	}
}

// forToken builds an authenticated go-github client for one request.
func (c *Client) forToken(ctx context.Context, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	gh := github.NewClient(tc)
	if c.baseURL != defaultAPIURL {
		return gh.WithEnterpriseURLs(c.baseURL, c.baseURL)
	}
	return gh, nil
}

// VerifyToken checks a token against the GitHub identity endpoint and
// returns the account login it belongs to.
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	gh, err := c.forToken(ctx, token)
	if err != nil {
		return "", err
	}

	user, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// ListRepos fetches up to 100 of the token owner's repositories sorted by
// recency and translates them to the internal shape.
func (c *Client) ListRepos(ctx context.Context, token string) ([]model.ExternalRepo, error) {
	gh, err := c.forToken(ctx, token)
	if err != nil {
		return nil, err
	}

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort: "updated",
		ListOptions: github.ListOptions{
			PerPage: maxReposPerFetch,
		},
	}

	c.logger.Debug("Fetching repositories", "per_page", maxReposPerFetch, "sort", opts.Sort)

	repos, _, err := gh.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, err
	}

	out := make([]model.ExternalRepo, 0, len(repos))
	for _, r := range repos {
		out = append(out, toExternalRepo(r))
	}
	return out, nil
}

// StatusFromError extracts the upstream HTTP status from a go-github error.
// Returns 0 when the error carries no response.
func StatusFromError(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the GitHub API.
func IsUnauthorized(err error) bool {
	return StatusFromError(err) == http.StatusUnauthorized
}

// toExternalRepo translates a github.Repository object to our internal shape.
func toExternalRepo(r *github.Repository) model.ExternalRepo {
	return model.ExternalRepo{
		ID:              r.GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Description:     r.Description,
		Language:        r.Language,
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		CloneURL:        r.GetCloneURL(),
		Private:         r.GetPrivate(),
	}
}
