package sim

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/pkg/town"
)

// completion is a finished cognition call waiting to be merged on the
// simulation goroutine.
type completion struct {
	session uuid.UUID
	kind    string
	apply   func(e *Engine)
}

// dispatch runs call off the simulation goroutine. call must only read what
// it captured; the func it returns is applied at the start of a later tick.
func (e *Engine) dispatch(kind string, call func(ctx context.Context) func(e *Engine)) {
	session := e.session
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		apply := call(ctx)

		e.doneMu.Lock()
		e.done = append(e.done, completion{session: session, kind: kind, apply: apply})
		e.doneMu.Unlock()
	}()
}

// drainCompletions merges every finished call. Calls from an earlier session are dropped.
func (e *Engine) drainCompletions() {
	e.doneMu.Lock()
	batch := e.done
	e.done = nil
	e.doneMu.Unlock()

	for _, c := range batch {
		if c.session != e.session {
			e.logger.Debug("Dropping stale cognition result", "kind", c.kind, "session", c.session)
			continue
		}
		c.apply(e)
	}
}

func (e *Engine) think(n *town.NPC, period town.Period) {
	req := cognition.ThoughtRequest{NPC: cognition.PersonaOf(n), Period: period}
	e.dispatch("think", func(ctx context.Context) func(*Engine) {
		out, err := e.brain.Think(ctx, req)
		if err != nil {
			e.logger.Warn("Thought failed, using fallback", "npc_id", req.NPC.ID, "error", err)
			out = cognition.FallbackThought(req.NPC)
		}
		return func(e *Engine) { e.applyThought(req.NPC.ID, out) }
	})
}

func (e *Engine) respond(n *town.NPC, message string, period town.Period) {
	req := cognition.PlayerRequest{NPC: cognition.PersonaOf(n), Message: message, Period: period}
	e.dispatch("respond", func(ctx context.Context) func(*Engine) {
		out, err := e.brain.RespondToPlayer(ctx, req)
		if err != nil {
			e.logger.Warn("Player reply failed, using fallback", "npc_id", req.NPC.ID, "error", err)
			out = cognition.FallbackPlayerReply(req.NPC)
		}
		return func(e *Engine) { e.applyPlayerReply(req.NPC.ID, out) }
	})
}

func (e *Engine) converse(req cognition.ConversationRequest) {
	e.dispatch("converse", func(ctx context.Context) func(*Engine) {
		out, err := e.brain.Converse(ctx, req)
		if err != nil {
			e.logger.Warn("Conversation failed, using fallback",
				"npc_id", req.Initiator.ID, "partner_id", req.Responder.ID, "error", err)
			out = cognition.FallbackConversation(req.Initiator, req.Responder)
		}
		return func(e *Engine) { e.applyConversation(req.Initiator.ID, req.Responder.ID, out) }
	})
}

func (e *Engine) applyThought(id string, out *cognition.Thought) {
	n := e.world.NPC(id)
	if n == nil {
		return
	}
	n.Thought = out.Thought
	n.Mood = out.Mood
	n.Remember(out.MemoryAddition)
	if out.Thought != "" && out.Thought != "..." {
		e.emit(Event{Type: EventThought, NPCID: id, Text: out.Thought, Kind: KindThought})
	}
}

func (e *Engine) applyPlayerReply(id string, out *cognition.PlayerReply) {
	n := e.world.NPC(id)
	if n == nil {
		return
	}
	n.Mood = out.NewMood
	n.Thought = out.Response
	e.emit(Event{Type: EventThought, NPCID: id, PartnerID: town.PartnerPlayer, Text: out.Response, Kind: KindInteraction})

	// An NPC that paired up while the reply was in flight belongs to that
	// conversation until it resolves.
	if _, paired := n.State.(town.WithNPC); paired {
		return
	}

	n.Summoned = false
	n.State = town.Idle{}
	if b, ok := e.resolve(n, out.Intent, out.TargetLocation); ok {
		e.travel(n, b)
		e.emit(Event{Type: EventThought, NPCID: id, Location: b.Name, Kind: KindSystem,
			Text: fmt.Sprintf("%s is now moving to the %s.", n.Name, b.Name)})
	}
}

// applyConversation releases the pair and applies what they said. The pair
// is released whether or not a shared destination resolves.
func (e *Engine) applyConversation(aID, bID string, out *cognition.Conversation) {
	a, b := e.world.NPC(aID), e.world.NPC(bID)
	if a == nil || b == nil || !pairedWith(a, bID) || !pairedWith(b, aID) {
		e.logger.Debug("Dropping conversation for a pair that no longer exists", "npc_id", aID, "partner_id", bID)
		return
	}

	a.Mood, b.Mood = out.InitiatorNewMood, out.ResponderNewMood
	a.Thought, b.Thought = out.InitiatorResponse, out.ResponderResponse
	e.emit(Event{Type: EventThought, NPCID: bID, PartnerID: aID, Text: out.ResponderResponse, Kind: KindInteraction})
	e.emit(Event{Type: EventThought, NPCID: aID, PartnerID: bID, Text: out.InitiatorResponse, Kind: KindInteraction})

	a.State, b.State = town.Idle{}, town.Idle{}
	if dest, ok := e.resolve(a, out.SharedIntent, out.SharedTargetLocation); ok {
		e.travel(a, dest)
		e.travel(b, dest)
		e.emit(Event{Type: EventThought, NPCID: aID, PartnerID: bID, Location: dest.Name, Kind: KindSystem,
			Text: fmt.Sprintf("%s and %s are heading to %s.", a.Name, b.Name, dest.Name)})
	}

	e.cooldowns.Set(aID, e.now, e.tuning.PairCooldown)
	e.cooldowns.Set(bID, e.now, e.tuning.PairCooldown)
}

// resolve turns a movement intent into a building, nearest to n on ties.
func (e *Engine) resolve(n *town.NPC, intent, target string) (town.Building, bool) {
	name, ok := cognition.MovementTarget(intent, target)
	if !ok {
		return town.Building{}, false
	}
	b, ok := e.world.Buildings.Match(name, n.Position)
	if !ok {
		e.logger.Debug("Ignoring intent for unknown location", "npc_id", n.ID, "target", name)
	}
	return b, ok
}

func (e *Engine) travel(n *town.NPC, b town.Building) {
	n.State = town.Moving{Destination: b.Position(), Target: b.Name}
	n.Label = "moving"
}

func pairedWith(n *town.NPC, partner string) bool {
	s, ok := n.State.(town.WithNPC)
	return ok && s.Partner == partner
}
