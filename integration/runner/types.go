package runner

import (
	"time"

	"github.com/jwebster45206/town-engine/pkg/town"
)

// Step actions
const (
	ActionSend     = "send"     // sync destination+target to a named building
	ActionSync     = "sync"     // raw sync payload
	ActionSummon   = "summon"   // POST /v1/npcs/{id}/summon
	ActionSelect   = "select"   // POST /v1/npcs/{id}/select
	ActionChat     = "chat"     // POST /v1/chat
	ActionCooldown = "cooldown" // POST /v1/npcs/{id}/cooldown
	ActionWalk     = "walk"     // POST /v1/player/intent
	ActionNext     = "next"     // POST /v1/level/next
	ActionWait     = "wait"     // just poll expectations
)

// TestSuite is one scripted session against a running server. A suite either
// has Steps or lists other case files in Cases.
type TestSuite struct {
	Name  string     `yaml:"name"`
	Steps []TestStep `yaml:"steps,omitempty"`
	Cases []string   `yaml:"cases,omitempty"`
}

// IsSequence returns true if this suite only sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one action and what the town should look like afterwards.
type TestStep struct {
	Name     string        `yaml:"name,omitempty"`
	Action   string        `yaml:"action"`
	NPC      string        `yaml:"npc,omitempty"`
	Location string        `yaml:"location,omitempty"`
	Message  string        `yaml:"message,omitempty"`
	Duration string        `yaml:"duration,omitempty"`
	DX       float64       `yaml:"dx,omitempty"`
	DY       float64       `yaml:"dy,omitempty"`
	Position *town.Point   `yaml:"position,omitempty"`
	Updates  []town.Update `yaml:"updates,omitempty"`

	// Within bounds how long expectations are polled for. Empty uses StepTimeout.
	Within       string       `yaml:"within,omitempty"`
	Expectations Expectations `yaml:"expect"`
}

// Expectations are checked against GET /v1/town until they all hold.
type Expectations struct {
	States        map[string]string `yaml:"states,omitempty"`   // npc id -> idle|moving|with_player|with_npc
	Labels        map[string]string `yaml:"labels,omitempty"`   // npc id -> currentAction
	Targets       map[string]string `yaml:"targets,omitempty"`  // npc id -> targetLocationName
	Partners      map[string]string `yaml:"partners,omitempty"` // npc id -> interactingWith
	Level         *int              `yaml:"level,omitempty"`
	LevelComplete *bool             `yaml:"level_complete,omitempty"`
	Period        string            `yaml:"period,omitempty"`
}

// Empty reports whether there is nothing to check.
func (e Expectations) Empty() bool {
	return len(e.States) == 0 && len(e.Labels) == 0 && len(e.Targets) == 0 &&
		len(e.Partners) == 0 && e.Level == nil && e.LevelComplete == nil && e.Period == ""
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  string // engine session the suite finished in
}
