package chat

// ChatResponse is a completion returned by an LLM provider.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}

const (
	ChatRoleUser   = "user"      // Player or engine prompt
	ChatRoleAgent  = "assistant" // NPC
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage represents a single chat message in the conversation
// sent to the LLM.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}
