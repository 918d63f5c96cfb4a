package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/town-engine/pkg/town"
)

// PlayerIntentRequest sets the walking direction. A position, if given,
// places the player there first.
type PlayerIntentRequest struct {
	DX       float64     `json:"dx" validate:"gte=-1,lte=1"`
	DY       float64     `json:"dy" validate:"gte=-1,lte=1"`
	Position *town.Point `json:"position,omitempty"`
}

type PlayerHandler struct {
	town   Town
	logger *slog.Logger
}

func NewPlayerHandler(town Town, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{town: town, logger: logger}
}

func (h *PlayerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	var req PlayerIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'dx' and 'dy'.")
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if req.Position != nil {
		h.town.MovePlayer(*req.Position)
	}
	h.town.SetPlayerIntent(req.DX, req.DY)
	w.WriteHeader(http.StatusNoContent)
}
