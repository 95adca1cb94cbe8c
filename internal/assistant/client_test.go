// internal/assistant/client_test.go
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-sync-proxy/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestClient_Complete(t *testing.T) {
	t.Run("prepends the system preamble and returns the reply", func(t *testing.T) {
		var gotBody chatRequest
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			fmt.Fprintln(w, `{"choices":[{"message":{"content":"Use git rebase -i."}}]}`)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		c := NewClient(server.URL, "test-key", testLogger())
		reply, err := c.Complete(context.Background(), []model.ChatMessage{
			{Role: "user", Content: "How do I squash commits?"},
		})

		require.NoError(t, err)
		assert.Equal(t, "Use git rebase -i.", reply)

		require.Len(t, gotBody.Messages, 2)
		assert.Equal(t, "system", gotBody.Messages[0].Role)
		assert.Equal(t, "user", gotBody.Messages[1].Role)
	})

	t.Run("maps a gateway 429 to ErrThrottled", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		c := NewClient(server.URL, "test-key", testLogger())
		_, err := c.Complete(context.Background(), []model.ChatMessage{{Role: "user", Content: "hi"}})

		assert.ErrorIs(t, err, ErrThrottled)
	})

	t.Run("other gateway failures surface as errors", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		c := NewClient(server.URL, "test-key", testLogger())
		_, err := c.Complete(context.Background(), []model.ChatMessage{{Role: "user", Content: "hi"}})

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrThrottled)
	})

	t.Run("empty choices fall back to a placeholder", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"choices":[]}`)
		})
		server := httptest.NewServer(handler)
		defer server.Close()

		c := NewClient(server.URL, "test-key", testLogger())
		reply, err := c.Complete(context.Background(), []model.ChatMessage{{Role: "user", Content: "hi"}})

		require.NoError(t, err)
		assert.Equal(t, "No response generated", reply)
	})
}
