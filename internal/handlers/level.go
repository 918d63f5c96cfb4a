package handlers

import (
	"log/slog"
	"net/http"
)

type LevelResponse struct {
	Level int `json:"level"`
}

// LevelHandler serves GET /v1/level and POST /v1/level/next.
type LevelHandler struct {
	levels Levels
	logger *slog.Logger
}

func NewLevelHandler(levels Levels, logger *slog.Logger) *LevelHandler {
	return &LevelHandler{levels: levels, logger: logger}
}

func (h *LevelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/v1/level", "/v1/level/":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, h.logger, http.MethodGet)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, h.levels.Status())

	case "/v1/level/next":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, h.logger, http.MethodPost)
			return
		}
		level, err := h.levels.Next()
		if err != nil {
			h.logger.Error("Failed to start next level", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to start next level.")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, LevelResponse{Level: level})

	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown level endpoint.")
	}
}
