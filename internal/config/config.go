package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Cognition provider
	LLMProvider     string
	ModelName       string
	AnthropicAPIKey string
	VeniceAPIKey    string

	// Optional integrations; empty disables them
	RedisURL  string
	TownFile  string
	OutputDir string

	// Browser origins allowed to call the API
	CORSOrigins []string

	// Simulation pacing
	TickRate         int
	DayLength        time.Duration
	ThoughtInterval  time.Duration
	CognitionTimeout time.Duration
	Seed             int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LLMProvider:     getEnv("LLM_PROVIDER", "mock"),
		ModelName:       getEnv("MODEL_NAME", "claude-3-5-haiku-latest"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		VeniceAPIKey:    os.Getenv("VENICE_API_KEY"),
		RedisURL:        os.Getenv("REDIS_URL"),
		TownFile:        os.Getenv("TOWN_FILE"),
		OutputDir:       os.Getenv("OUTPUT_DIR"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	var err error
	if cfg.TickRate, err = strconv.Atoi(getEnv("TICK_RATE", "60")); err != nil || cfg.TickRate <= 0 {
		return nil, fmt.Errorf("invalid TICK_RATE %q", os.Getenv("TICK_RATE"))
	}
	if cfg.DayLength, err = time.ParseDuration(getEnv("DAY_LENGTH", "3m")); err != nil {
		return nil, fmt.Errorf("invalid DAY_LENGTH: %w", err)
	}
	if cfg.ThoughtInterval, err = time.ParseDuration(getEnv("THOUGHT_INTERVAL", "30s")); err != nil {
		return nil, fmt.Errorf("invalid THOUGHT_INTERVAL: %w", err)
	}
	if cfg.CognitionTimeout, err = time.ParseDuration(getEnv("COGNITION_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid COGNITION_TIMEOUT: %w", err)
	}
	if cfg.Seed, err = strconv.ParseInt(getEnv("SEED", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid SEED: %w", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
