package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGenerator is a function-field mock of TextGenerator.
type mockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "ok", nil
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		history  []Message
		prompt   string
		expected string
	}{
		{
			name:     "no history",
			prompt:   "Hello",
			expected: "User: Hello\nAssistant:",
		},
		{
			name: "with history",
			history: []Message{
				{Role: RoleUser, Content: "Hi"},
				{Role: RoleAssistant, Content: "Hello! How can I help?"},
			},
			prompt:   "Summarise my notes",
			expected: "User: Hi\nAssistant: Hello! How can I help?\nUser: Summarise my notes\nAssistant:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildPrompt(tt.history, tt.prompt))
		})
	}
}

func TestChatUsecase_Reply(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var sent string
		uc := NewChatUsecase(&mockGenerator{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
			sent = prompt
			return "Sure.", nil
		}})

		text, err := uc.Reply(context.Background(), "Help me", []Message{{Role: RoleUser, Content: "Hi"}})

		require.NoError(t, err)
		assert.Equal(t, "Sure.", text)
		assert.Equal(t, "User: Hi\nUser: Help me\nAssistant:", sent)
	})

	t.Run("blank prompt", func(t *testing.T) {
		uc := NewChatUsecase(&mockGenerator{})

		_, err := uc.Reply(context.Background(), "   ", nil)

		assert.ErrorIs(t, err, ErrEmptyPrompt)
	})

	t.Run("not configured", func(t *testing.T) {
		uc := NewChatUsecase(nil)

		_, err := uc.Reply(context.Background(), "Hello", nil)

		assert.ErrorIs(t, err, ErrChatUnavailable)
	})

	t.Run("generator failure", func(t *testing.T) {
		upstream := errors.New("quota exceeded")
		uc := NewChatUsecase(&mockGenerator{GenerateFunc: func(context.Context, string) (string, error) {
			return "", upstream
		}})

		_, err := uc.Reply(context.Background(), "Hello", nil)

		assert.ErrorIs(t, err, upstream)
	})
}
