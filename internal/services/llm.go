package services

import (
	"context"
	"errors"

	"github.com/jwebster45206/town-engine/pkg/chat"
)

// ErrRateLimited is returned when a provider answers HTTP 429.
var ErrRateLimited = errors.New("llm provider rate limited")

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a free-form response
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// ChatJSON generates a response that should be a single JSON object matching schema.
	// Providers without structured output rely on the prompt alone.
	ChatJSON(ctx context.Context, messages []chat.ChatMessage, schemaName string, schema map[string]interface{}) (*chat.ChatResponse, error)
}
