package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/pkg/town"
)

// checkPlayer applies player proximity to n. It runs after steer so it can
// override the velocity chosen there.
func (e *Engine) checkPlayer(n *town.NPC, period town.Period) {
	player := e.world.Player.Position
	near := town.Distance(player, n.Position) < e.tuning.NearPlayer
	was := e.nearPlayer[n.ID]

	_, withPlayer := n.State.(town.WithPlayer)
	_, withNPC := n.State.(town.WithNPC)

	switch {
	case near && (n.Summoned || withPlayer):
		n.Velocity = r2.Vec{}
		if !was {
			e.nearPlayer[n.ID] = true
			e.joinPlayer(n)
			view := n.View()
			e.emit(Event{Type: EventApproached, NPCID: n.ID, PartnerID: town.PartnerPlayer, NPC: &view})
		}

	case near:
		e.nearPlayer[n.ID] = false
		if period == town.Night || withNPC {
			return
		}
		away := r2.Sub(n.Position, player)
		if r2.Norm(away) == 0 {
			away = r2.Vec{X: 1}
		}
		n.Velocity = r2.Scale(e.tuning.YieldSpeed*period.SpeedMultiplier(), r2.Unit(away))

	case was:
		e.nearPlayer[n.ID] = false
		e.emit(Event{Type: EventBubbleHidden, NPCID: n.ID})
		e.leavePlayer(n)
	}
}

// joinPlayer puts n in conversation with the player, parking any trip.
func (e *Engine) joinPlayer(n *town.NPC) {
	n.Summoned = false
	if _, ok := n.State.(town.WithPlayer); ok {
		return
	}
	var resume *town.Moving
	if mv, ok := n.State.(town.Moving); ok {
		resume = &mv
	}
	n.State = town.WithPlayer{Resume: resume}
}

// leavePlayer ends a player conversation, resuming any parked trip.
func (e *Engine) leavePlayer(n *town.NPC) {
	n.Summoned = false
	wp, ok := n.State.(town.WithPlayer)
	if !ok {
		return
	}
	if wp.Resume != nil {
		n.State = *wp.Resume
		return
	}
	n.State = town.Idle{}
}

// canPair reports whether n may start an NPC conversation right now.
func (e *Engine) canPair(n *town.NPC) bool {
	if _, _, ok := n.Destination(); ok {
		return false
	}
	if n.Partner() != "" {
		return false
	}
	if !e.cooldowns.Ready(n.ID, e.now) {
		return false
	}
	return town.Distance(n.Position, e.world.Player.Position) > e.tuning.PlayerPriorityRadius
}

// pairUp scans for NPC conversations. Each NPC is compared with every later
// NPC once; the first one in range wins. NPCs paired earlier in the scan are
// no longer eligible.
func (e *Engine) pairUp(period town.Period) {
	if period == town.Night {
		return
	}
	npcs := e.world.NPCs()
	for i, a := range npcs {
		if !e.canPair(a) {
			continue
		}
		for _, b := range npcs[i+1:] {
			if !e.canPair(b) {
				continue
			}
			if town.Distance(a.Position, b.Position) >= e.tuning.InteractionRadius {
				continue
			}
			e.pair(a, b, period)
			break
		}
	}
}

func (e *Engine) pair(a, b *town.NPC, period town.Period) {
	a.State = town.WithNPC{Partner: b.ID}
	b.State = town.WithNPC{Partner: a.ID}
	a.Velocity = r2.Vec{}
	b.Velocity = r2.Vec{}

	e.emit(Event{Type: EventPaired, NPCID: a.ID, PartnerID: b.ID})
	e.logger.Debug("NPCs paired", "npc_id", a.ID, "partner_id", b.ID)

	e.converse(cognition.ConversationRequest{
		Initiator: cognition.PersonaOf(a),
		Responder: cognition.PersonaOf(b),
		Period:    period,
	})
}
