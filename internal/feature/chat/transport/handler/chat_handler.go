// Package handler provides the HTTP handler for the chat feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindflow_backend/internal/api"
	"mindflow_backend/internal/feature/chat/usecase"
)

// ChatUsecase defines the chat operation used by the handler.
type ChatUsecase interface {
	Reply(ctx context.Context, prompt string, history []usecase.Message) (string, error)
}

// ChatHandler handles chat requests.
type ChatHandler struct {
	chat ChatUsecase
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat ChatUsecase) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat handles POST /chat.
// - 400 for a missing prompt or malformed history
// - 503 when no generator is configured
// - 502 when the upstream model fails
func (h *ChatHandler) Chat(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Invalid(c, http.StatusBadRequest, err)
		return
	}

	history := make([]usecase.Message, 0, len(req.ChatHistory))
	for _, m := range req.ChatHistory {
		history = append(history, usecase.Message{Role: m.Role, Content: m.Content})
	}

	text, err := h.chat.Reply(c.Request.Context(), req.Prompt, history)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyPrompt):
			api.Fail(c, http.StatusBadRequest, "Please provide a prompt")
		case errors.Is(err, usecase.ErrChatUnavailable):
			api.Fail(c, http.StatusServiceUnavailable, "Chat is not configured")
		default:
			slog.Error("chat generation failed", "error", err, "remote_addr", c.ClientIP())
			api.Fail(c, http.StatusBadGateway, "An error occurred while generating a response")
		}
		return
	}

	api.OK(c, http.StatusOK, "", api.ChatData{Text: text})
}
