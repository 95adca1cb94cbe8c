// internal/api/chat.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github-sync-proxy/internal/apperror"
	"github-sync-proxy/internal/assistant"
	"github-sync-proxy/internal/model"
)

const (
	maxChatMessages   = 50
	maxMessageContent = 10000
)

type chatRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

// ChatHandler proxies assistant conversations to the AI gateway.
type ChatHandler struct {
	gateway *assistant.Client
	logger  *slog.Logger
}

// NewChatHandler creates the handler for the chat proxy endpoint.
func NewChatHandler(gateway *assistant.Client, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{gateway: gateway, logger: logger}
}

// ServeChat validates the conversation and forwards it upstream.
// POST /v1/chat
func (h *ChatHandler) ServeChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithAppError(w, h.logger, apperror.InvalidInput("Messages must be an array"))
		return
	}

	if err := validateMessages(req.Messages); err != nil {
		h.logger.Error("Message validation failed", "error", err)
		respondWithAppError(w, h.logger, err)
		return
	}

	userID := GetUserID(r.Context())
	h.logger.Info("Chat request received", "user_id", userID, "messages", len(req.Messages))

	reply, err := h.gateway.Complete(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, assistant.ErrThrottled) {
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment.")
			return
		}
		respondWithAppError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// validateMessages enforces the conversation shape limits.
func validateMessages(messages []model.ChatMessage) error {
	if len(messages) == 0 {
		return apperror.InvalidInput("Messages array cannot be empty")
	}
	if len(messages) > maxChatMessages {
		return apperror.InvalidInput(fmt.Sprintf("Too many messages (max %d)", maxChatMessages))
	}

	for i, msg := range messages {
		if msg.Role != "user" && msg.Role != "assistant" {
			return apperror.InvalidInput(fmt.Sprintf("Invalid role at index %d", i))
		}
		if utf8.RuneCountInString(msg.Content) > maxMessageContent {
			return apperror.InvalidInput(fmt.Sprintf("Message content too long at index %d (max %d chars)", i, maxMessageContent))
		}
	}
	return nil
}
