// internal/syncer/syncer_test.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github-sync-proxy/internal/model"
	"github-sync-proxy/internal/store"
)

// MockStore is a mock of the store.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockStore) UpsertCredential(ctx context.Context, userID, token, username string) error {
	args := m.Called(ctx, userID, token, username)
	return args.Error(0)
}

func (m *MockStore) GetRepositoryOwner(ctx context.Context, githubRepoID string) (string, error) {
	args := m.Called(ctx, githubRepoID)
	return args.String(0), args.Error(1)
}

func (m *MockStore) UpsertRepository(ctx context.Context, repo *model.Repository) error {
	args := m.Called(ctx, repo)
	return args.Error(0)
}

func (m *MockStore) GetRepository(ctx context.Context, userID, githubRepoID string) (*model.Repository, error) {
	args := m.Called(ctx, userID, githubRepoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Repository), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func externalRepo(id int64, name string) model.ExternalRepo {
	return model.ExternalRepo{
		ID:       id,
		Name:     name,
		FullName: "alice/" + name,
		CloneURL: fmt.Sprintf("https://github.com/alice/%s.git", name),
	}
}

func TestSyncer_SyncBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts new repositories and counts them", func(t *testing.T) {
		mockStore := new(MockStore)
		s := NewSyncer(mockStore, testLogger())

		mockStore.On("GetRepositoryOwner", ctx, "1").Return("", store.ErrNotFound).Once()
		mockStore.On("GetRepositoryOwner", ctx, "2").Return("", store.ErrNotFound).Once()
		mockStore.On("UpsertRepository", ctx, mock.Anything).Return(nil).Twice()

		count, err := s.SyncBatch(ctx, "user-a", []model.ExternalRepo{
			externalRepo(1, "one"),
			externalRepo(2, "two"),
		})

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		mockStore.AssertExpectations(t)
	})

	t.Run("skips a repository claimed by another user", func(t *testing.T) {
		mockStore := new(MockStore)
		s := NewSyncer(mockStore, testLogger())

		mockStore.On("GetRepositoryOwner", ctx, "42").Return("user-b", nil).Once()
		mockStore.On("GetRepositoryOwner", ctx, "43").Return("", store.ErrNotFound).Once()
		mockStore.On("UpsertRepository", ctx, mock.MatchedBy(func(r *model.Repository) bool {
			return r.GithubRepoID == "43"
		})).Return(nil).Once()

		count, err := s.SyncBatch(ctx, "user-a", []model.ExternalRepo{
			externalRepo(42, "claimed"),
			externalRepo(43, "free"),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		mockStore.AssertExpectations(t)
	})

	t.Run("re-syncing own repository is allowed", func(t *testing.T) {
		mockStore := new(MockStore)
		s := NewSyncer(mockStore, testLogger())

		mockStore.On("GetRepositoryOwner", ctx, "42").Return("user-a", nil).Once()
		mockStore.On("UpsertRepository", ctx, mock.Anything).Return(nil).Once()

		count, err := s.SyncBatch(ctx, "user-a", []model.ExternalRepo{externalRepo(42, "mine")})

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		mockStore.AssertExpectations(t)
	})

	t.Run("skips records without a usable identifier", func(t *testing.T) {
		mockStore := new(MockStore)
		s := NewSyncer(mockStore, testLogger())

		mockStore.On("GetRepositoryOwner", ctx, "7").Return("", store.ErrNotFound).Once()
		mockStore.On("UpsertRepository", ctx, mock.Anything).Return(nil).Once()

		count, err := s.SyncBatch(ctx, "user-a", []model.ExternalRepo{
			{ID: 0, Name: "no-id"},
			{ID: 5, Name: ""},
			externalRepo(7, "ok"),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		mockStore.AssertExpectations(t)
	})

	t.Run("truncates the batch to 50 records", func(t *testing.T) {
		mockStore := new(MockStore)
		s := NewSyncer(mockStore, testLogger())

		repos := make([]model.ExternalRepo, 75)
		for i := range repos {
			id := int64(i + 1)
			repos[i] = externalRepo(id, "repo-"+strconv.FormatInt(id, 10))
		}

		for i := 1; i <= 50; i++ {
			mockStore.On("GetRepositoryOwner", ctx, strconv.Itoa(i)).Return("", store.ErrNotFound).Once()
		}
		mockStore.On("UpsertRepository", ctx, mock.Anything).Return(nil).Times(50)

		count, err := s.SyncBatch(ctx, "user-a", repos)

		require.NoError(t, err)
		assert.Equal(t, 50, count)
		mockStore.AssertExpectations(t)
		mockStore.AssertNumberOfCalls(t, "UpsertRepository", 50)
	})

	t.Run("an upsert failure aborts the remainder and reports prior count", func(t *testing.T) {
		mockStore := new(MockStore)
		s := NewSyncer(mockStore, testLogger())
		dbErr := errors.New("connection reset")

		mockStore.On("GetRepositoryOwner", ctx, "1").Return("", store.ErrNotFound).Once()
		mockStore.On("UpsertRepository", ctx, mock.Anything).Return(nil).Once()
		mockStore.On("GetRepositoryOwner", ctx, "2").Return("", store.ErrNotFound).Once()
		mockStore.On("UpsertRepository", ctx, mock.Anything).Return(dbErr).Once()

		count, err := s.SyncBatch(ctx, "user-a", []model.ExternalRepo{
			externalRepo(1, "one"),
			externalRepo(2, "two"),
			externalRepo(3, "three"),
		})

		require.Error(t, err)
		assert.Equal(t, 1, count)
		mockStore.AssertNotCalled(t, "GetRepositoryOwner", ctx, "3")
	})
}

func TestSyncer_FieldMapping(t *testing.T) {
	ctx := context.Background()
	longDesc := make([]byte, 1500)
	for i := range longDesc {
		longDesc[i] = 'd'
	}
	desc := string(longDesc)
	lang := "Go"

	mockStore := new(MockStore)
	s := NewSyncer(mockStore, testLogger())

	var captured *model.Repository
	mockStore.On("GetRepositoryOwner", ctx, "99").Return("", store.ErrNotFound).Once()
	mockStore.On("UpsertRepository", ctx, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*model.Repository)
	}).Return(nil).Once()

	_, err := s.SyncBatch(ctx, "user-a", []model.ExternalRepo{{
		ID:              99,
		Name:            "proj",
		FullName:        "alice/proj",
		Description:     &desc,
		Language:        &lang,
		StargazersCount: 7,
		ForksCount:      3,
		CloneURL:        "https://github.com/alice/proj.git",
		Private:         true,
	}})
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, "user-a", captured.UserID)
	assert.Equal(t, "99", captured.GithubRepoID)
	assert.Equal(t, "private", captured.Visibility)
	assert.Equal(t, 7, captured.StarsCount)
	assert.Equal(t, 3, captured.ForksCount)
	require.NotNil(t, captured.Description)
	assert.Len(t, *captured.Description, 1000)
	assert.True(t, captured.IsSynced)
	assert.True(t, captured.LastSyncedAt.Valid)
}

func TestSyncer_TruncationKeepsValidUTF8(t *testing.T) {
	ctx := context.Background()

	// 999 ASCII characters followed by multi-byte runes: the 1000-byte
	// boundary falls inside the first rocket. A byte-indexed cut would hand
	// Postgres invalid UTF-8 and fail the upsert for a valid record.
	desc := strings.Repeat("d", 999) + "\U0001F680\U0001F680"

	mockStore := new(MockStore)
	s := NewSyncer(mockStore, testLogger())

	var captured *model.Repository
	mockStore.On("GetRepositoryOwner", ctx, "7").Return("", store.ErrNotFound).Once()
	mockStore.On("UpsertRepository", ctx, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*model.Repository)
	}).Return(nil).Once()

	count, err := s.SyncBatch(ctx, "user-a", []model.ExternalRepo{{
		ID:          7,
		Name:        "proj",
		Description: &desc,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NotNil(t, captured)
	require.NotNil(t, captured.Description)
	assert.True(t, utf8.ValidString(*captured.Description))
	assert.Equal(t, 1000, utf8.RuneCountInString(*captured.Description))
	assert.True(t, strings.HasSuffix(*captured.Description, "\U0001F680"))
}
