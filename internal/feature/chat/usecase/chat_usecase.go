// Package usecase implements the chat feature: it flattens a conversation into a
// single prompt and asks a text generator for the assistant's reply.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPrompt is returned when the prompt is blank.
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrChatUnavailable is returned when no generator is configured.
	ErrChatUnavailable = errors.New("chat is not configured")
)

// Role values accepted in the chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// TextGenerator produces a completion for a prompt.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type chatUsecase struct {
	generator TextGenerator
}

// NewChatUsecase creates a chat usecase. A nil generator makes every call fail with ErrChatUnavailable.
func NewChatUsecase(generator TextGenerator) *chatUsecase {
	return &chatUsecase{generator: generator}
}

// Reply returns the assistant's answer to prompt given the earlier turns.
func (u *chatUsecase) Reply(ctx context.Context, prompt string, history []Message) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if u.generator == nil {
		return "", ErrChatUnavailable
	}

	text, err := u.generator.Generate(ctx, BuildPrompt(history, prompt))
	if err != nil {
		return "", fmt.Errorf("text generation failed: %w", err)
	}
	return text, nil
}

// BuildPrompt renders the history as "User:" / "Assistant:" lines and ends with the
// new prompt followed by an open "Assistant:" turn.
func BuildPrompt(history []Message, prompt string) string {
	var b strings.Builder
	for _, m := range history {
		speaker := "Assistant"
		if m.Role == RoleUser {
			speaker = "User"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	b.WriteString("User: ")
	b.WriteString(prompt)
	b.WriteString("\nAssistant:")
	return b.String()
}
