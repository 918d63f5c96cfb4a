package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/town-engine/pkg/chat"
	"github.com/jwebster45206/town-engine/pkg/town"
)

// Kind selects which of the three cognition requests a Builder produces.
type Kind int

const (
	KindThought Kind = iota
	KindPlayer
	KindConversation
)

// Persona is the part of an NPC that goes into a prompt.
type Persona struct {
	Name        string
	Personality string
	Mood        string
	Memory      []string
}

// Builder constructs chat messages for LLM interaction using a fluent interface.
type Builder struct {
	kind          Kind
	persona       *Persona
	partner       *Persona
	period        town.Period
	locations     []string
	playerMessage string
	memoryLimit   int
	messages      []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New(kind Kind) *Builder {
	return &Builder{
		kind:        kind,
		memoryLimit: 5,
		messages:    make([]chat.ChatMessage, 0),
	}
}

// WithPersona sets the speaking NPC (the initiator for conversations).
func (b *Builder) WithPersona(p Persona) *Builder {
	b.persona = &p
	return b
}

// WithPartner sets the responder of an NPC conversation.
func (b *Builder) WithPartner(p Persona) *Builder {
	b.partner = &p
	return b
}

func (b *Builder) WithPeriod(p town.Period) *Builder {
	b.period = p
	return b
}

// WithLocations sets the building names the model may choose from.
func (b *Builder) WithLocations(names []string) *Builder {
	b.locations = names
	return b
}

func (b *Builder) WithPlayerMessage(message string) *Builder {
	b.playerMessage = message
	return b
}

// WithMemoryLimit caps how many memories are included.
func (b *Builder) WithMemoryLimit(limit int) *Builder {
	b.memoryLimit = limit
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.persona == nil {
		return nil, fmt.Errorf("persona is required")
	}

	b.messages = make([]chat.ChatMessage, 0, 4)
	locations := strings.Join(b.locations, ", ")

	switch b.kind {
	case KindThought:
		b.addSystem(fmt.Sprintf(thoughtSystemPrompt, b.persona.Name, b.persona.Personality, b.persona.Mood, b.period, locations))
		b.addMemory(b.persona)
		b.addSystem(thoughtInstructions)

	case KindPlayer:
		if strings.TrimSpace(b.playerMessage) == "" {
			return nil, fmt.Errorf("player message is required")
		}
		b.addSystem(fmt.Sprintf(playerSystemPrompt, b.persona.Name, b.persona.Personality, b.persona.Mood, b.period, locations))
		b.addMemory(b.persona)
		b.messages = append(b.messages, chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: b.playerMessage,
		})
		b.addSystem(playerInstructions)

	case KindConversation:
		if b.partner == nil {
			return nil, fmt.Errorf("partner is required for a conversation")
		}
		b.addSystem(fmt.Sprintf(conversationSystemPrompt, b.period,
			b.persona.Name, b.persona.Personality, b.persona.Mood,
			b.partner.Name, b.partner.Personality, b.partner.Mood,
			locations))
		b.addMemory(b.persona)
		b.addMemory(b.partner)
		b.addSystem(conversationInstructions)

	default:
		return nil, fmt.Errorf("unknown prompt kind %d", b.kind)
	}

	// Anthropic requires at least one user turn.
	if b.kind != KindPlayer {
		b.messages = append(b.messages, chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: "Respond now.",
		})
	}

	return b.messages, nil
}

func (b *Builder) addSystem(content string) {
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: content,
	})
}

// addMemory adds the persona's newest memories, if any.
func (b *Builder) addMemory(p *Persona) {
	if len(p.Memory) == 0 || b.memoryLimit <= 0 {
		return
	}
	mem := p.Memory
	if len(mem) > b.memoryLimit {
		mem = mem[:b.memoryLimit]
	}
	lines := make([]string, len(mem))
	for i, m := range mem {
		lines[i] = "- " + m
	}
	b.addSystem(fmt.Sprintf(memoryPrompt, p.Name, strings.Join(lines, "\n")))
}
