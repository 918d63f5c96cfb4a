package sim

import "github.com/jwebster45206/town-engine/pkg/town"

// scheduleThought picks one resident at random and asks it to think, unless
// it is night or the pick is busy. At most one request per interval.
func (e *Engine) scheduleThought(period town.Period) {
	if period == town.Night || e.world.Len() == 0 {
		return
	}
	npcs := e.world.NPCs()
	n := npcs[e.rng.IntN(len(npcs))]
	if n.Partner() != "" || e.nearPlayer[n.ID] {
		e.logger.Debug("Skipping thought, resident is busy", "npc_id", n.ID)
		return
	}
	e.think(n, period)
}
