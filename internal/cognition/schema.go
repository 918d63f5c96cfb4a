package cognition

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaThought      = "npc_thought"
	schemaPlayerReply  = "npc_player_reply"
	schemaConversation = "npc_conversation"
)

// replySchema is one embedded schema, compiled for validation and decoded
// for providers that accept a response format.
type replySchema struct {
	name     string
	raw      map[string]interface{}
	compiled *jsonschema.Schema
}

func loadSchema(name string) (*replySchema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}

	compiled, err := jsonschema.CompileString(name+".json", string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %w", name, err)
	}
	delete(raw, "$schema")

	return &replySchema{name: name, raw: raw, compiled: compiled}, nil
}

// decode extracts the JSON object from a model reply, validates it and
// unmarshals it into out.
func (s *replySchema) decode(reply string, out interface{}) error {
	obj := extractJSON(reply)
	if obj == "" {
		return fmt.Errorf("%w: no JSON object in reply", ErrMalformed)
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, s.name, err)
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// extractJSON pulls the outermost JSON object out of text that may carry
// markdown fences or narration around it.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		var kept []string
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				continue
			}
			kept = append(kept, line)
		}
		text = strings.Join(kept, "\n")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
