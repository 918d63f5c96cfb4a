package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/town-engine/internal/sim"
)

// ChatRequest is a player message to one NPC.
type ChatRequest struct {
	NPCID   string `json:"npcId" validate:"required"`
	Message string `json:"message" validate:"notblank,max=1000"`
}

// ChatHandler queues player messages. Replies arrive on the event feed as
// npc.thought events of kind interaction.
type ChatHandler struct {
	town   Town
	logger *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(town Town, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		town:   town,
		logger: logger,
	}
}

// ServeHTTP handles HTTP requests for chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	var request ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'npcId' and 'message' fields.")
		return
	}

	if err := validateRequest(request); err != nil {
		h.logger.Warn("Rejected chat request", "npc_id", request.NPCID, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	err := h.town.Say(request.NPCID, request.Message)
	if errors.Is(err, sim.ErrUnknownNPC) {
		writeError(w, h.logger, http.StatusNotFound, fmt.Sprintf("NPC %q not found.", request.NPCID))
		return
	}
	if err != nil {
		h.logger.Error("Error queueing chat message", "error", err, "npc_id", request.NPCID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to send message. Please try again.")
		return
	}

	h.logger.Info("Chat message queued", "npc_id", request.NPCID)
	writeJSON(w, h.logger, http.StatusAccepted, AcceptedResponse{Status: "queued", NPCID: request.NPCID})
}
