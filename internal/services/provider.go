package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/town-engine/internal/config"
)

// NewLLMService builds the provider named by cfg.LLMProvider.
func NewLLMService(cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required when using anthropic provider")
		}
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger), nil
	case "venice":
		if cfg.VeniceAPIKey == "" {
			return nil, fmt.Errorf("venice API key is required when using venice provider")
		}
		return NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName), nil
	case "mock":
		return NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("invalid LLM provider %q (supported: anthropic, venice, mock)", cfg.LLMProvider)
	}
}
