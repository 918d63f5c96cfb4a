// Package cognition is the boundary to whatever decides what an NPC thinks,
// says and does next.
package cognition

import (
	"context"
	"errors"
	"strings"

	"github.com/jwebster45206/town-engine/pkg/prompts"
	"github.com/jwebster45206/town-engine/pkg/town"
)

var (
	// ErrRateLimited means the backing model refused the call for being too frequent.
	ErrRateLimited = errors.New("cognition rate limited")
	// ErrCoolingOff is returned without calling the model while a rate-limit cool-off is active.
	ErrCoolingOff = errors.New("cognition cooling off")
	// ErrMalformed means the model answered with something that is not the expected JSON.
	ErrMalformed = errors.New("malformed cognition reply")
	// ErrUnavailable is returned without calling the model while the circuit breaker is open.
	ErrUnavailable = errors.New("cognition unavailable")
)

// IntentMoving is the only intent the engine acts on.
const IntentMoving = "moving"

// Persona is the snapshot of an NPC sent with a request.
type Persona struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Personality string   `json:"personality"`
	Mood        string   `json:"mood"`
	Memory      []string `json:"memory"`
}

// PersonaOf snapshots n.
func PersonaOf(n *town.NPC) Persona {
	return Persona{
		ID:          n.ID,
		Name:        n.Name,
		Personality: n.Personality,
		Mood:        n.Mood,
		Memory:      append([]string(nil), n.Memory...),
	}
}

func (p Persona) prompt() prompts.Persona {
	return prompts.Persona{Name: p.Name, Personality: p.Personality, Mood: p.Mood, Memory: p.Memory}
}

type ThoughtRequest struct {
	NPC    Persona     `json:"npc"`
	Period town.Period `json:"period"`
}

type Thought struct {
	Thought        string `json:"thought"`
	Mood           string `json:"mood"`
	MemoryAddition string `json:"memoryAddition,omitempty"`
}

type PlayerRequest struct {
	NPC     Persona     `json:"npc"`
	Message string      `json:"message"`
	Period  town.Period `json:"period"`
}

type PlayerReply struct {
	Response       string `json:"response"`
	NewMood        string `json:"newMood"`
	Intent         string `json:"intent,omitempty"`
	TargetLocation string `json:"targetLocation,omitempty"`
}

type ConversationRequest struct {
	Initiator Persona     `json:"initiator"`
	Responder Persona     `json:"responder"`
	Period    town.Period `json:"period"`
}

type Conversation struct {
	InitiatorResponse    string `json:"initiatorResponse"`
	ResponderResponse    string `json:"responderResponse"`
	InitiatorNewMood     string `json:"initiatorNewMood"`
	ResponderNewMood     string `json:"responderNewMood"`
	SharedIntent         string `json:"sharedIntent,omitempty"`
	SharedTargetLocation string `json:"sharedTargetLocation,omitempty"`
}

// Service turns NPC snapshots into thoughts, replies and intents.
// Implementations may block; callers run them off the simulation loop.
type Service interface {
	Think(ctx context.Context, req ThoughtRequest) (*Thought, error)
	RespondToPlayer(ctx context.Context, req PlayerRequest) (*PlayerReply, error)
	Converse(ctx context.Context, req ConversationRequest) (*Conversation, error)
}

// MovementTarget reports the location named by a movement intent.
func MovementTarget(intent, target string) (string, bool) {
	target = strings.TrimSpace(target)
	if !strings.EqualFold(strings.TrimSpace(intent), IntentMoving) || target == "" {
		return "", false
	}
	return target, true
}

// Fallbacks keep the NPC's mood and give it something mundane to say.

func FallbackThought(p Persona) *Thought {
	return &Thought{Thought: "Just wandering...", Mood: p.Mood}
}

func FallbackPlayerReply(p Persona) *PlayerReply {
	return &PlayerReply{Response: "I'm busy right now.", NewMood: p.Mood}
}

func FallbackConversation(initiator, responder Persona) *Conversation {
	return &Conversation{
		InitiatorResponse: "Hey.",
		ResponderResponse: "Hello.",
		InitiatorNewMood:  initiator.Mood,
		ResponderNewMood:  responder.Mood,
	}
}
