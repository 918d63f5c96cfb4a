package town

import "gonum.org/v1/gonum/spatial/r2"

// MaxMemory bounds the number of memory snippets an NPC keeps.
const MaxMemory = 10

// NPC is a simulated townsperson.
type NPC struct {
	ID          string
	Name        string
	Personality string
	Color       uint32
	Home        r2.Vec

	Mood    string
	Thought string
	Memory  []string // most recent first
	Label   string   // free-form action label, e.g. "moving" or "at_market"

	Position r2.Vec
	Velocity r2.Vec
	State    State

	// Summoned is set when the player asked for this NPC's attention
	// but has not reached it yet.
	Summoned bool
}

// Destination reports where the NPC is heading and the name of that place.
// Both are present or both are absent.
func (n *NPC) Destination() (r2.Vec, string, bool) {
	switch s := n.State.(type) {
	case Moving:
		return s.Destination, s.Target, true
	case WithPlayer:
		if s.Resume != nil {
			return s.Resume.Destination, s.Resume.Target, true
		}
	}
	return r2.Vec{}, "", false
}

// Partner returns "", PartnerPlayer or the id of the NPC this one is talking to.
func (n *NPC) Partner() string {
	switch s := n.State.(type) {
	case WithNPC:
		return s.Partner
	case WithPlayer:
		return PartnerPlayer
	}
	if n.Summoned {
		return PartnerPlayer
	}
	return ""
}

// Remember pushes a memory to the front, dropping the oldest beyond MaxMemory.
func (n *NPC) Remember(snippet string) {
	if snippet == "" {
		return
	}
	n.Memory = append([]string{snippet}, n.Memory...)
	if len(n.Memory) > MaxMemory {
		n.Memory = n.Memory[:MaxMemory]
	}
}

// Clone returns a deep copy.
func (n *NPC) Clone() *NPC {
	c := *n
	c.Memory = append([]string(nil), n.Memory...)
	if wp, ok := n.State.(WithPlayer); ok && wp.Resume != nil {
		resume := *wp.Resume
		c.State = WithPlayer{Resume: &resume}
	}
	return &c
}

// View is the read-only, serializable picture of an NPC handed to observers.
type View struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Personality    string   `json:"personality"`
	Color          uint32   `json:"color"`
	Mood           string   `json:"mood"`
	Thought        string   `json:"currentThought"`
	Memory         []string `json:"memory"`
	Label          string   `json:"currentAction,omitempty"`
	Position       Point    `json:"position"`
	Home           Point    `json:"homeLocation"`
	Destination    *Point   `json:"destination,omitempty"`
	TargetLocation string   `json:"targetLocationName,omitempty"`
	State          string   `json:"state"`
	Partner        string   `json:"interactingWith,omitempty"`
}

// View builds the observer view of the NPC.
func (n *NPC) View() View {
	v := View{
		ID:          n.ID,
		Name:        n.Name,
		Personality: n.Personality,
		Color:       n.Color,
		Mood:        n.Mood,
		Thought:     n.Thought,
		Memory:      append([]string(nil), n.Memory...),
		Label:       n.Label,
		Position:    PointOf(n.Position),
		Home:        PointOf(n.Home),
		State:       n.State.Name(),
		Partner:     n.Partner(),
	}
	if dest, target, ok := n.Destination(); ok {
		p := PointOf(dest)
		v.Destination = &p
		v.TargetLocation = target
	}
	return v
}

// Update is an externally decided change to an NPC, adopted at the next tick.
// Nil fields are left untouched.
type Update struct {
	ID          string  `json:"id" validate:"required,npcid"`
	Destination *Point  `json:"destination,omitempty"`
	Target      *string `json:"targetLocationName,omitempty"`
	Partner     *string `json:"interactingWith,omitempty"`
	Label       *string `json:"currentAction,omitempty"`
	Mood        *string `json:"mood,omitempty"`
	Thought     *string `json:"currentThought,omitempty"`
}

// Player is the user-controlled character.
type Player struct {
	Position r2.Vec
	Intent   r2.Vec // unit direction from input, zero when idle
}
