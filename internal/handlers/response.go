package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/pkg/town"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Town is the engine surface the handlers drive.
type Town interface {
	Snapshot() sim.Snapshot
	Buildings() []town.Building
	SyncNPCs(updates []town.Update)
	SetCooldown(id string, d time.Duration) error
	SetPlayerIntent(dx, dy float64)
	MovePlayer(p town.Point)
	Summon(id string) error
	Select(id string) error
	Say(id, message string) error
}

// Levels is the game progression surface.
type Levels interface {
	Status() rules.Status
	Next() (int, error)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, logger *slog.Logger, allowed string) {
	logger.Warn("Method not allowed",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)
	w.Header().Set("Allow", allowed)
	writeError(w, logger, http.StatusMethodNotAllowed, "Method not allowed. Only "+allowed+" is supported.")
}
