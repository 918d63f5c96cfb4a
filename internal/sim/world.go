package sim

import (
	"github.com/jwebster45206/town-engine/pkg/town"
)

// World holds everything with a position.
type World struct {
	Bounds    town.Bounds
	Buildings *town.Registry
	Player    town.Player

	npcs  map[string]*town.NPC
	order []string
}

func NewWorld(bounds town.Bounds, buildings *town.Registry, residents []town.Resident) *World {
	w := &World{
		Bounds:    bounds,
		Buildings: buildings,
		Player:    town.Player{Position: bounds.Center()},
		npcs:      make(map[string]*town.NPC, len(residents)),
		order:     make([]string, 0, len(residents)),
	}
	for _, r := range residents {
		w.npcs[r.ID] = r.NewNPC()
		w.order = append(w.order, r.ID)
	}
	return w
}

// NPC returns the NPC with id, or nil.
func (w *World) NPC(id string) *town.NPC {
	return w.npcs[id]
}

// NPCs returns the roster in its fixed iteration order.
func (w *World) NPCs() []*town.NPC {
	out := make([]*town.NPC, len(w.order))
	for i, id := range w.order {
		out[i] = w.npcs[id]
	}
	return out
}

func (w *World) Len() int { return len(w.order) }
