package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/town-engine/pkg/chat"
)

func TestNewVeniceService(t *testing.T) {
	service := NewVeniceService("test-api-key", "test-model")

	if service.apiKey != "test-api-key" {
		t.Errorf("Expected apiKey test-api-key, got %s", service.apiKey)
	}
	if service.modelName != "test-model" {
		t.Errorf("Expected modelName test-model, got %s", service.modelName)
	}
	if service.httpClient == nil {
		t.Error("Expected httpClient to be initialized")
	}
}

func TestVeniceService_ChatJSONSendsSchema(t *testing.T) {
	var got VeniceChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"{\"mood\":\"calm\"}"}}]}`))
	}))
	defer server.Close()

	service := NewVeniceService("test-key", "test-model")
	service.SetBaseURL(server.URL)

	schema := map[string]interface{}{"type": "object"}
	resp, err := service.ChatJSON(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "Think."}}, "npc_thought", schema)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Message != `{"mood":"calm"}` {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if got.ResponseFormat == nil {
		t.Fatal("Expected response_format to be set")
	}
	if got.ResponseFormat.Type != "json_schema" || got.ResponseFormat.JSONSchema.Name != "npc_thought" {
		t.Errorf("Unexpected response format %+v", got.ResponseFormat)
	}
	if got.VeniceParameters.IncludeVeniceSystemPrompt {
		t.Error("Venice system prompt should be disabled")
	}
}

func TestVeniceService_ChatOmitsSchema(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	service := NewVeniceService("test-key", "test-model")
	service.SetBaseURL(server.URL)

	resp, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "Hi"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Message != msgNoResponse {
		t.Errorf("Expected %q for empty choices, got %q", msgNoResponse, resp.Message)
	}
	if _, ok := got["response_format"]; ok {
		t.Error("Free-form chat should not send response_format")
	}
}

func TestVeniceService_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := NewVeniceService("test-key", "test-model")
	service.SetBaseURL(server.URL)

	_, err := service.ChatJSON(context.Background(), nil, "npc_thought", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}
