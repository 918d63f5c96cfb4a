package sim

import (
	"github.com/jwebster45206/town-engine/pkg/town"
)

// applySync adopts a batch of external updates. Destination and target travel
// together. Partners may be cleared, set to the player, or restate a pair
// the engine already formed; engine pairs are never changed here.
func (e *Engine) applySync(updates []town.Update) {
	for _, u := range updates {
		n := e.world.NPC(u.ID)
		if n == nil {
			e.logger.Debug("Sync for unknown NPC", "npc_id", u.ID)
			continue
		}

		e.syncTrip(n, u)
		e.syncPartner(n, u)

		if u.Label != nil {
			n.Label = *u.Label
		}
		if u.Mood != nil {
			n.Mood = *u.Mood
		}
		if u.Thought != nil {
			n.Thought = *u.Thought
		}
	}
}

func (e *Engine) syncTrip(n *town.NPC, u town.Update) {
	if u.Target == nil {
		if u.Destination != nil {
			e.logger.Warn("Sync destination without a target, ignored", "npc_id", n.ID)
		}
		return
	}

	var trip *town.Moving
	if *u.Target != "" {
		if u.Destination == nil {
			e.logger.Warn("Sync target without a destination, ignored", "npc_id", n.ID)
			return
		}
		trip = &town.Moving{Destination: e.world.Bounds.Clamp(u.Destination.Vec()), Target: *u.Target}
	}

	switch n.State.(type) {
	case town.WithNPC:
		e.logger.Debug("Sync trip for paired NPC, ignored", "npc_id", n.ID)
	case town.WithPlayer:
		n.State = town.WithPlayer{Resume: trip}
	default:
		if trip == nil {
			n.State = town.Idle{}
			return
		}
		n.State = *trip
	}
}

func (e *Engine) syncPartner(n *town.NPC, u town.Update) {
	if u.Partner == nil {
		return
	}
	partner := *u.Partner
	current := n.Partner()
	if partner == current {
		return
	}
	if _, paired := n.State.(town.WithNPC); paired {
		e.logger.Debug("Sync cannot change an NPC conversation", "npc_id", n.ID, "partner", partner)
		return
	}

	switch partner {
	case "":
		if _, ok := n.State.(town.WithPlayer); ok {
			e.leavePlayer(n)
			e.nearPlayer[n.ID] = false
		}
		n.Summoned = false
	case town.PartnerPlayer:
		n.Summoned = true
	default:
		e.logger.Debug("Sync cannot start an NPC conversation", "npc_id", n.ID, "partner", partner)
	}
}
