package cognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/town-engine/internal/services"
	"github.com/jwebster45206/town-engine/pkg/chat"
	"github.com/jwebster45206/town-engine/pkg/town"
)

var testLocations = []string{"Coffee Shop", "Market", "Library"}

func newTestGateway(t *testing.T, llm services.LLMService) *Gateway {
	t.Helper()
	g, err := NewGateway(llm, testLocations, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return g
}

func kiran() Persona {
	return Persona{ID: "kiran", Name: "Kiran", Personality: "loner", Mood: "angry"}
}

func TestGateway_Think(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatJSONResponse("```json\n{\"thought\":\"Too loud here\",\"mood\":\"grumpy\",\"memoryAddition\":null}\n```")
	g := newTestGateway(t, llm)

	out, err := g.Think(context.Background(), ThoughtRequest{NPC: kiran(), Period: town.Morning})
	require.NoError(t, err)
	assert.Equal(t, "Too loud here", out.Thought)
	assert.Equal(t, "grumpy", out.Mood)
	assert.Empty(t, out.MemoryAddition)

	_, calls := llm.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, schemaThought, calls[0].SchemaName)
}

func TestGateway_ThinkDefaults(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatJSONResponse(`{"thought":"","mood":""}`)
	g := newTestGateway(t, llm)

	out, err := g.Think(context.Background(), ThoughtRequest{NPC: kiran(), Period: town.Morning})
	require.NoError(t, err)
	assert.Equal(t, "...", out.Thought)
	assert.Equal(t, "angry", out.Mood)
}

func TestGateway_CleansSpeech(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatJSONResponse(`{"response":"\"*sighs*   What the hell do you want?\"","newMood":"irritated"}`)
	g := newTestGateway(t, llm)

	out, err := g.RespondToPlayer(context.Background(), PlayerRequest{NPC: kiran(), Message: "hey"})
	require.NoError(t, err)
	assert.Equal(t, "(sighs) What the heck do you want?", out.Response)
}

func TestGateway_RespondToPlayer(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatJSONResponse(`Sure thing! {"response":"Fine, I'll go.","newMood":"resigned","intent":"moving","targetLocation":"the market"}`)
	g := newTestGateway(t, llm)

	out, err := g.RespondToPlayer(context.Background(), PlayerRequest{NPC: kiran(), Message: "Go shopping", Period: town.Evening})
	require.NoError(t, err)
	assert.Equal(t, "Fine, I'll go.", out.Response)
	assert.Equal(t, "resigned", out.NewMood)

	target, ok := MovementTarget(out.Intent, out.TargetLocation)
	assert.True(t, ok)
	assert.Equal(t, "the market", target)
}

func TestGateway_Converse(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatJSONResponse(`{"initiatorResponse":"Coffee?","responderResponse":"Sure.","initiatorNewMood":"happy","responderNewMood":"","sharedIntent":"moving","sharedTargetLocation":"coffee"}`)
	g := newTestGateway(t, llm)

	anya := Persona{ID: "anya", Name: "Anya", Mood: "hopeful"}
	out, err := g.Converse(context.Background(), ConversationRequest{Initiator: anya, Responder: kiran(), Period: town.Morning})
	require.NoError(t, err)
	assert.Equal(t, "Coffee?", out.InitiatorResponse)
	assert.Equal(t, "happy", out.InitiatorNewMood)
	assert.Equal(t, "angry", out.ResponderNewMood)
	assert.Equal(t, "coffee", out.SharedTargetLocation)
}

func TestGateway_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json", "I am thinking about lunch."},
		{"broken json", `{"thought": "half`},
		{"missing required", `{"thought":"hi"}`},
		{"wrong type", `{"thought":42,"mood":"calm"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := services.NewMockLLMAPI()
			llm.SetChatJSONResponse(tt.reply)
			g := newTestGateway(t, llm)

			_, err := g.Think(context.Background(), ThoughtRequest{NPC: kiran()})
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestGateway_ConversationRequiresLines(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatJSONResponse(`{"initiatorResponse":"","responderResponse":"Hi","initiatorNewMood":"a","responderNewMood":"b"}`)
	g := newTestGateway(t, llm)

	_, err := g.Converse(context.Background(), ConversationRequest{Initiator: kiran(), Responder: kiran()})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGateway_ConversationBlankAfterCleaning(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatJSONResponse(`{"initiatorResponse":"   ","responderResponse":"\"\"","initiatorNewMood":"a","responderNewMood":"b"}`)
	g := newTestGateway(t, llm)

	out, err := g.Converse(context.Background(), ConversationRequest{Initiator: kiran(), Responder: kiran()})
	require.NoError(t, err)
	assert.Equal(t, "...", out.InitiatorResponse)
	assert.Equal(t, "...", out.ResponderResponse)
}

func TestGateway_RateLimit(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatError(fmt.Errorf("provider: %w", services.ErrRateLimited))
	g := newTestGateway(t, llm)

	_, err := g.Think(context.Background(), ThoughtRequest{NPC: kiran()})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGateway_TransportError(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.ChatJSONFunc = func(ctx context.Context, messages []chat.ChatMessage, schemaName string) (*chat.ChatResponse, error) {
		return nil, errors.New("connection refused")
	}
	g := newTestGateway(t, llm)

	_, err := g.RespondToPlayer(context.Background(), PlayerRequest{NPC: kiran(), Message: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestGateway_DefaultMockRepliesValidate(t *testing.T) {
	g := newTestGateway(t, services.NewMockLLMAPI())
	ctx := context.Background()

	_, err := g.Think(ctx, ThoughtRequest{NPC: kiran()})
	assert.NoError(t, err)
	_, err = g.RespondToPlayer(ctx, PlayerRequest{NPC: kiran(), Message: "hi"})
	assert.NoError(t, err)
	_, err = g.Converse(ctx, ConversationRequest{Initiator: kiran(), Responder: kiran()})
	assert.NoError(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Here you go:\n{\"a\":{\"b\":2}} hope that helps", `{"a":{"b":2}}`},
		{"nothing here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.in), tt.in)
	}
}

func TestMovementTarget(t *testing.T) {
	tests := []struct {
		intent, target string
		want           string
		ok             bool
	}{
		{"moving", "Market", "Market", true},
		{"Moving", " the market ", "the market", true},
		{"moving", "", "", false},
		{"idle", "Market", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		got, ok := MovementTarget(tt.intent, tt.target)
		assert.Equal(t, tt.ok, ok, "%q/%q", tt.intent, tt.target)
		assert.Equal(t, tt.want, got)
	}
}

func TestFallbacksKeepMood(t *testing.T) {
	p := kiran()
	assert.Equal(t, "Just wandering...", FallbackThought(p).Thought)
	assert.Equal(t, "angry", FallbackThought(p).Mood)
	assert.Equal(t, "I'm busy right now.", FallbackPlayerReply(p).Response)
	assert.Equal(t, "angry", FallbackPlayerReply(p).NewMood)

	c := FallbackConversation(p, Persona{Mood: "hopeful"})
	assert.Equal(t, "Hey.", c.InitiatorResponse)
	assert.Equal(t, "Hello.", c.ResponderResponse)
	assert.Equal(t, "angry", c.InitiatorNewMood)
	assert.Equal(t, "hopeful", c.ResponderNewMood)
}
