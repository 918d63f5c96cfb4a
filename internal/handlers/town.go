package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/pkg/town"
)

// TownResponse is the full observer view of the town.
type TownResponse struct {
	sim.Snapshot
	Buildings []town.Building `json:"buildings"`
	Level     *rules.Status   `json:"level,omitempty"`
}

type TownHandler struct {
	town   Town
	levels Levels
	logger *slog.Logger
}

// NewTownHandler creates a handler for GET /v1/town. levels may be nil.
func NewTownHandler(town Town, levels Levels, logger *slog.Logger) *TownHandler {
	return &TownHandler{town: town, levels: levels, logger: logger}
}

func (h *TownHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, h.logger, http.MethodGet)
		return
	}

	resp := TownResponse{
		Snapshot:  h.town.Snapshot(),
		Buildings: h.town.Buildings(),
	}
	if h.levels != nil {
		st := h.levels.Status()
		resp.Level = &st
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
