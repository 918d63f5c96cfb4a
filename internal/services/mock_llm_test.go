package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebster45206/town-engine/pkg/chat"
)

func TestMockLLMService(t *testing.T) {
	mockService := NewMockLLMAPI()

	if err := mockService.InitModel(context.Background(), "test-model"); err != nil {
		t.Errorf("InitModel failed: %v", err)
	}

	initCalls, _ := mockService.GetCalls()
	if len(initCalls) != 1 || initCalls[0] != "test-model" {
		t.Errorf("Expected one InitModel call for test-model, got %v", initCalls)
	}

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "Hello"},
	}

	response, err := mockService.Chat(context.Background(), messages)
	if err != nil {
		t.Errorf("Chat failed: %v", err)
	}
	if response.Message != "Mock response" {
		t.Errorf("Expected 'Mock response', got '%s'", response.Message)
	}

	if _, err := mockService.ChatJSON(context.Background(), messages, "npc_thought", nil); err != nil {
		t.Errorf("ChatJSON failed: %v", err)
	}

	_, chatCalls := mockService.GetCalls()
	if len(chatCalls) != 2 {
		t.Fatalf("Expected 2 chat calls, got %d", len(chatCalls))
	}
	if chatCalls[1].SchemaName != "npc_thought" {
		t.Errorf("Expected schema name to be tracked, got %q", chatCalls[1].SchemaName)
	}

	mockService.Reset()
	if _, chatCalls := mockService.GetCalls(); len(chatCalls) != 0 {
		t.Errorf("Expected calls to be cleared, got %d", len(chatCalls))
	}
}

func TestMockLLMService_ErrorHandling(t *testing.T) {
	mockService := NewMockLLMAPI()

	mockService.SetChatError(ErrRateLimited)

	if _, err := mockService.Chat(context.Background(), nil); !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited from Chat, got %v", err)
	}
	if _, err := mockService.ChatJSON(context.Background(), nil, "npc_thought", nil); !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited from ChatJSON, got %v", err)
	}
}

func TestMockLLMService_ChatJSONResponse(t *testing.T) {
	mockService := NewMockLLMAPI()
	mockService.SetChatJSONResponse(`{"thought":"x"}`)

	resp, err := mockService.ChatJSON(context.Background(), nil, "npc_thought", nil)
	if err != nil {
		t.Fatalf("ChatJSON failed: %v", err)
	}
	if resp.Message != `{"thought":"x"}` {
		t.Errorf("Unexpected message %q", resp.Message)
	}
}
