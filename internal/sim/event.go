package sim

import "github.com/jwebster45206/town-engine/pkg/town"

// EventType names a notification for the presentation layer.
type EventType string

const (
	EventTimeUpdated    EventType = "time.updated"
	EventSelected       EventType = "npc.selected"
	EventThought        EventType = "npc.thought"
	EventApproached     EventType = "npc.approached"
	EventPaired         EventType = "npc.paired"
	EventArrived        EventType = "npc.arrived"
	EventBubbleHidden   EventType = "npc.bubble_hidden"
	EventLevelCompleted EventType = "level.completed"
	EventLevelStarted   EventType = "level.started"
)

// ThoughtKind tells observers how to present an EventThought.
type ThoughtKind string

const (
	KindThought     ThoughtKind = "thought"
	KindInteraction ThoughtKind = "interaction"
	KindSystem      ThoughtKind = "system"
)

// Event is a notification emitted by the engine. Only the fields relevant
// to Type are set.
type Event struct {
	Type    EventType `json:"type"`
	Session string    `json:"session"`
	Seq     uint64    `json:"seq"`
	Time    float64   `json:"time"` // engine seconds since the session started

	NPCID     string      `json:"npcId,omitempty"`
	PartnerID string      `json:"partnerId,omitempty"`
	Location  string      `json:"location,omitempty"`
	Text      string      `json:"text,omitempty"`
	Kind      ThoughtKind `json:"kind,omitempty"`
	Hour      float64     `json:"hour,omitempty"`
	Period    town.Period `json:"period,omitempty"`
	Level     int         `json:"level,omitempty"`
	NPC       *town.View  `json:"npc,omitempty"`
}

// Sink receives events on the simulation goroutine. Publish must not block.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})
