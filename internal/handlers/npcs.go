package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/pkg/town"
)

// SyncRequest carries externally decided NPC fields.
type SyncRequest struct {
	NPCs []town.Update `json:"npcs" validate:"dive"`
}

// CooldownRequest sets an interaction cooldown. Duration is a Go duration
// string such as "25s"; Milliseconds is accepted as well.
type CooldownRequest struct {
	Duration     string `json:"duration,omitempty" validate:"required_without=Milliseconds"`
	Milliseconds int64  `json:"ms,omitempty" validate:"gte=0"`
}

func (c CooldownRequest) parse() (time.Duration, error) {
	if c.Duration != "" {
		d, err := time.ParseDuration(c.Duration)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %w", err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return d, nil
	}
	if c.Milliseconds <= 0 {
		return 0, fmt.Errorf("duration or ms is required")
	}
	return time.Duration(c.Milliseconds) * time.Millisecond, nil
}

// AcceptedResponse acknowledges a command queued for the next tick.
type AcceptedResponse struct {
	Status string `json:"status"`
	NPCID  string `json:"npcId,omitempty"`
}

// NPCHandler serves the /v1/npcs/ commands:
//
//	POST /v1/npcs/sync
//	POST /v1/npcs/{id}/cooldown
//	POST /v1/npcs/{id}/summon
//	POST /v1/npcs/{id}/select
type NPCHandler struct {
	town   Town
	logger *slog.Logger
}

func NewNPCHandler(town Town, logger *slog.Logger) *NPCHandler {
	return &NPCHandler{town: town, logger: logger}
}

// Routes returns the NPC endpoints, to be mounted at /v1/npcs.
func (h *NPCHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/sync", h.handleSync)
	r.HandleFunc("/{id}/{action}", h.handleCommand)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, h.logger, http.StatusNotFound, "Unknown NPC endpoint.")
	})
	return r
}

func (h *NPCHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid sync body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'npcs' array.")
		return
	}
	if err := validateRequest(req); err != nil {
		h.logger.Warn("Rejected sync request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.town.SyncNPCs(req.NPCs)
	h.logger.Debug("NPC sync queued", "count", len(req.NPCs))
	writeJSON(w, h.logger, http.StatusAccepted, AcceptedResponse{Status: "queued"})
}

func (h *NPCHandler) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	id, action := chi.URLParam(r, "id"), chi.URLParam(r, "action")
	var err error
	switch action {
	case "cooldown":
		var req CooldownRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'duration'.")
			return
		}
		if vErr := validateRequest(req); vErr != nil {
			writeError(w, h.logger, http.StatusBadRequest, vErr.Error())
			return
		}
		d, parseErr := req.parse()
		if parseErr != nil {
			writeError(w, h.logger, http.StatusBadRequest, parseErr.Error())
			return
		}
		err = h.town.SetCooldown(id, d)
	case "summon":
		err = h.town.Summon(id)
	case "select":
		err = h.town.Select(id)
	default:
		writeError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Unknown NPC action %q.", action))
		return
	}

	if errors.Is(err, sim.ErrUnknownNPC) {
		writeError(w, h.logger, http.StatusNotFound, fmt.Sprintf("NPC %q not found.", id))
		return
	}
	if err != nil {
		h.logger.Error("NPC command failed", "npc_id", id, "action", action, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Command failed.")
		return
	}

	h.logger.Info("NPC command queued", "npc_id", id, "action", action)
	writeJSON(w, h.logger, http.StatusAccepted, AcceptedResponse{Status: "queued", NPCID: id})
}
