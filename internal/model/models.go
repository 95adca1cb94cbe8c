// internal/model/models.go
package model

import (
	"database/sql"
	"time"
)

// ExternalRepo is a repository as returned by the GitHub API. JSON tags match
// the API field names so handler responses keep the wire shape clients expect.
type ExternalRepo struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	FullName        string  `json:"full_name"`
	Description     *string `json:"description"`
	Language        *string `json:"language"`
	StargazersCount int     `json:"stargazers_count"`
	ForksCount      int     `json:"forks_count"`
	CloneURL        string  `json:"clone_url"`
	Private         bool    `json:"private"`
}

// Repository is a persisted repository row owned by one user.
type Repository struct {
	ID             int64
	UserID         string
	Name           string
	Description    *string
	Visibility     string
	Language       *string
	StarsCount     int
	ForksCount     int
	GithubRepoID   string
	GithubFullName *string
	CloneURL       *string
	IsSynced       bool
	LastSyncedAt   sql.NullTime
	DBCreatedAt    time.Time
	DBUpdatedAt    time.Time
}

// Profile holds the per-user GitHub connection state. Token is the decrypted
// personal-access token; it is only ever held in memory on the server.
type Profile struct {
	UserID         string
	GithubUsername string
	Token          string
}

// ChatMessage is one turn in the assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
