// internal/assistant/client.go
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github-sync-proxy/internal/model"
)

// ErrThrottled is returned when the gateway itself rate limits the request.
var ErrThrottled = errors.New("gateway rate limit exceeded")

const chatModel = "google/gemini-2.5-flash"

// systemPreamble anchors every conversation before the user's messages.
const systemPreamble = `You are Co-Pilot, an AI coding assistant for a repository management platform.

Your role is to help developers with:
- Code explanations and debugging
- Git operations and best practices
- Repository management
- Programming questions across all languages
- Architecture and design patterns

Be concise, technical, and helpful. Use code examples when appropriate.`

// Client calls the OpenAI-compatible chat completions endpoint of the
// configured gateway.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a gateway client. baseURL is the gateway root without a
// trailing slash.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []model.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete forwards the conversation, prefixed with the system preamble, and
// returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []model.ChatMessage) (string, error) {
	payload := chatRequest{
		Model:    chatModel,
		Messages: append([]model.ChatMessage{{Role: "system", Content: systemPreamble}}, messages...),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling AI gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("AI gateway error", "status", resp.StatusCode, "body", string(errText))
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", ErrThrottled
		}
		return "", fmt.Errorf("AI gateway returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "No response generated", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
