package town

import "gonum.org/v1/gonum/spatial/r2"

// PartnerPlayer is the partner reference used when an NPC is engaged with the player.
const PartnerPlayer = "player"

// State is the action state of an NPC. It is one of Idle, Moving, WithPlayer or WithNPC;
// fields that only make sense for one state live on that state's type.
type State interface {
	Name() string
	isState()
}

// Idle has no destination and no partner.
type Idle struct{}

// Moving walks toward Destination, labelled Target. The two always travel together.
type Moving struct {
	Destination r2.Vec
	Target      string
}

// WithPlayer is a conversation with the player. Resume holds the trip that was
// interrupted, if any, and is picked up again when the player walks away.
type WithPlayer struct {
	Resume *Moving
}

// WithNPC is a conversation with another NPC. The partner points back at us.
type WithNPC struct {
	Partner string
}

func (Idle) Name() string       { return "idle" }
func (Moving) Name() string     { return "moving" }
func (WithPlayer) Name() string { return "with_player" }
func (WithNPC) Name() string    { return "with_npc" }

func (Idle) isState()       {}
func (Moving) isState()     {}
func (WithPlayer) isState() {}
func (WithNPC) isState()    {}

// Travel returns the state for heading to dest, or Idle when target is empty.
func Travel(dest r2.Vec, target string) State {
	if target == "" {
		return Idle{}
	}
	return Moving{Destination: dest, Target: target}
}
