package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/town-engine/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	ChatFunc      func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
	ChatJSONFunc  func(ctx context.Context, messages []chat.ChatMessage, schemaName string) (*chat.ChatResponse, error)

	// Track calls for testing
	InitModelCalls []string
	ChatCalls      []ChatCall

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages   []chat.ChatMessage
	SchemaName string // empty for free-form Chat
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls: make([]string, 0),
		ChatCalls:      make([]ChatCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	m.InitModelCalls = append(m.InitModelCalls, modelName)
	fn := m.InitModelFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modelName)
	}
	return nil
}

// Chat mocks a free-form response
func (m *MockLLMAPI) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return &chat.ChatResponse{Message: "Mock response"}, nil
}

// ChatJSON mocks a structured response. The default reply satisfies every
// schema the cognition gateway sends.
func (m *MockLLMAPI) ChatJSON(ctx context.Context, messages []chat.ChatMessage, schemaName string, schema map[string]interface{}) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages, SchemaName: schemaName})
	fn := m.ChatJSONFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, schemaName)
	}

	switch schemaName {
	case "npc_conversation":
		return &chat.ChatResponse{Message: `{"initiatorResponse":"Nice weather today.","responderResponse":"It really is.","initiatorNewMood":"cheerful","responderNewMood":"relaxed","sharedIntent":null,"sharedTargetLocation":null}`}, nil
	case "npc_player_reply":
		return &chat.ChatResponse{Message: `{"response":"Mock response","newMood":"calm","intent":null,"targetLocation":null}`}, nil
	default:
		return &chat.ChatResponse{Message: `{"thought":"Mock thought","mood":"calm","memoryAddition":""}`}, nil
	}
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.ChatCalls = make([]ChatCall, 0)
}

// SetChatError makes both Chat and ChatJSON return err
func (m *MockLLMAPI) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, err
	}
	m.ChatJSONFunc = func(ctx context.Context, messages []chat.ChatMessage, schemaName string) (*chat.ChatResponse, error) {
		return nil, err
	}
}

// SetChatJSONResponse makes ChatJSON return raw as the model output
func (m *MockLLMAPI) SetChatJSONResponse(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatJSONFunc = func(ctx context.Context, messages []chat.ChatMessage, schemaName string) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: raw}, nil
	}
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() ([]string, []ChatCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := make([]string, len(m.InitModelCalls))
	copy(initCalls, m.InitModelCalls)

	chatCalls := make([]ChatCall, len(m.ChatCalls))
	copy(chatCalls, m.ChatCalls)

	return initCalls, chatCalls
}
