package cognition

import (
	"context"
	"sync"
)

// Stub is a scriptable Service for tests. Unset funcs return fixed answers.
type Stub struct {
	ThinkFunc    func(ctx context.Context, req ThoughtRequest) (*Thought, error)
	RespondFunc  func(ctx context.Context, req PlayerRequest) (*PlayerReply, error)
	ConverseFunc func(ctx context.Context, req ConversationRequest) (*Conversation, error)

	mu            sync.Mutex
	thinkCalls    []ThoughtRequest
	respondCalls  []PlayerRequest
	converseCalls []ConversationRequest
}

var _ Service = (*Stub)(nil)

func (s *Stub) Think(ctx context.Context, req ThoughtRequest) (*Thought, error) {
	s.mu.Lock()
	s.thinkCalls = append(s.thinkCalls, req)
	fn := s.ThinkFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &Thought{Thought: "Stub thought", Mood: req.NPC.Mood}, nil
}

func (s *Stub) RespondToPlayer(ctx context.Context, req PlayerRequest) (*PlayerReply, error) {
	s.mu.Lock()
	s.respondCalls = append(s.respondCalls, req)
	fn := s.RespondFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &PlayerReply{Response: "Stub reply", NewMood: req.NPC.Mood}, nil
}

func (s *Stub) Converse(ctx context.Context, req ConversationRequest) (*Conversation, error) {
	s.mu.Lock()
	s.converseCalls = append(s.converseCalls, req)
	fn := s.ConverseFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &Conversation{
		InitiatorResponse: "Stub hello",
		ResponderResponse: "Stub hi",
		InitiatorNewMood:  req.Initiator.Mood,
		ResponderNewMood:  req.Responder.Mood,
	}, nil
}

// Calls returns how many times each method was called.
func (s *Stub) Calls() (think, respond, converse int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.thinkCalls), len(s.respondCalls), len(s.converseCalls)
}

// ConverseRequests returns a copy of the recorded conversation requests.
func (s *Stub) ConverseRequests() []ConversationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ConversationRequest(nil), s.converseCalls...)
}
