package cognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/town-engine/internal/services"
	"github.com/jwebster45206/town-engine/pkg/chat"
	"github.com/jwebster45206/town-engine/pkg/prompts"
	"github.com/jwebster45206/town-engine/pkg/textfilter"
)

// Gateway implements Service on top of a chat model.
type Gateway struct {
	llm       services.LLMService
	locations []string
	logger    *slog.Logger
	speech    *textfilter.Speech

	thought      *replySchema
	playerReply  *replySchema
	conversation *replySchema
}

var _ Service = (*Gateway)(nil)

// NewGateway builds a gateway that offers the model the given location names.
func NewGateway(llm services.LLMService, locations []string, logger *slog.Logger) (*Gateway, error) {
	g := &Gateway{
		llm:       llm,
		locations: append([]string(nil), locations...),
		logger:    logger,
		speech:    textfilter.NewSpeech(textfilter.DefaultMaxLen),
	}

	var err error
	if g.thought, err = loadSchema(schemaThought); err != nil {
		return nil, err
	}
	if g.playerReply, err = loadSchema(schemaPlayerReply); err != nil {
		return nil, err
	}
	if g.conversation, err = loadSchema(schemaConversation); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Gateway) Think(ctx context.Context, req ThoughtRequest) (*Thought, error) {
	msgs, err := prompts.New(prompts.KindThought).
		WithPersona(req.NPC.prompt()).
		WithPeriod(req.Period).
		WithLocations(g.locations).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build thought prompt: %w", err)
	}

	var out Thought
	if err := g.ask(ctx, msgs, g.thought, &out); err != nil {
		return nil, err
	}
	out.Thought = g.speech.Clean(out.Thought)
	out.MemoryAddition = g.speech.Clean(out.MemoryAddition)
	if out.Thought == "" {
		out.Thought = "..."
	}
	if out.Mood == "" {
		out.Mood = req.NPC.Mood
	}
	return &out, nil
}

func (g *Gateway) RespondToPlayer(ctx context.Context, req PlayerRequest) (*PlayerReply, error) {
	msgs, err := prompts.New(prompts.KindPlayer).
		WithPersona(req.NPC.prompt()).
		WithPeriod(req.Period).
		WithLocations(g.locations).
		WithPlayerMessage(req.Message).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build player prompt: %w", err)
	}

	var out PlayerReply
	if err := g.ask(ctx, msgs, g.playerReply, &out); err != nil {
		return nil, err
	}
	out.Response = g.speech.Clean(out.Response)
	if out.Response == "" {
		out.Response = "..."
	}
	if out.NewMood == "" {
		out.NewMood = req.NPC.Mood
	}
	return &out, nil
}

func (g *Gateway) Converse(ctx context.Context, req ConversationRequest) (*Conversation, error) {
	msgs, err := prompts.New(prompts.KindConversation).
		WithPersona(req.Initiator.prompt()).
		WithPartner(req.Responder.prompt()).
		WithPeriod(req.Period).
		WithLocations(g.locations).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build conversation prompt: %w", err)
	}

	var out Conversation
	if err := g.ask(ctx, msgs, g.conversation, &out); err != nil {
		return nil, err
	}
	out.InitiatorResponse = g.speech.Clean(out.InitiatorResponse)
	out.ResponderResponse = g.speech.Clean(out.ResponderResponse)
	if out.InitiatorResponse == "" {
		out.InitiatorResponse = "..."
	}
	if out.ResponderResponse == "" {
		out.ResponderResponse = "..."
	}
	if out.InitiatorNewMood == "" {
		out.InitiatorNewMood = req.Initiator.Mood
	}
	if out.ResponderNewMood == "" {
		out.ResponderNewMood = req.Responder.Mood
	}
	return &out, nil
}

func (g *Gateway) ask(ctx context.Context, msgs []chat.ChatMessage, schema *replySchema, out interface{}) error {
	resp, err := g.llm.ChatJSON(ctx, msgs, schema.name, schema.raw)
	if err != nil {
		if errors.Is(err, services.ErrRateLimited) {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return fmt.Errorf("%s request failed: %w", schema.name, err)
	}

	if err := schema.decode(resp.Message, out); err != nil {
		g.logger.Warn("Discarding cognition reply", "schema", schema.name, "error", err)
		return err
	}
	return nil
}
