// Package api defines the JSON envelope and payload types shared by every HTTP handler.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Response is the envelope wrapping every JSON body.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// User is the public profile of a user. It never carries credentials.
type User struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Email           openapi_types.Email `json:"email"`
	IsEmailVerified bool                `json:"isEmailVerified"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// AuthData is returned by register and login.
type AuthData struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

// UserData is returned by the current-user endpoint.
type UserData struct {
	User User `json:"user"`
}

// TokenData is returned by the refresh endpoint.
type TokenData struct {
	AccessToken string `json:"accessToken"`
}

// ChatMessage is one prior turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the body of the chat endpoint.
type ChatRequest struct {
	Prompt      string        `json:"prompt" binding:"required,max=8000"`
	ChatHistory []ChatMessage `json:"chatHistory" binding:"omitempty,max=50,dive"`
}

// ChatData is returned by the chat endpoint.
type ChatData struct {
	Text string `json:"text"`
}

// HealthData is returned by the health endpoint.
type HealthData struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
