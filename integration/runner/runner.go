package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/town-engine/internal/handlers"
	"github.com/jwebster45206/town-engine/pkg/town"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes scripted sessions against a running town-engine server
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 10 * time.Second},
		Timeout:           StepTimeout,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}
	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{Name: suite.Name, Suite: suite, CaseFile: filename}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}
	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}
		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	if t, err := GetTown(ctx, r.Client, r.BaseURL); err == nil {
		result.Session = t.Session
	}
	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) runStep(ctx context.Context, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	if err := r.perform(ctx, step); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	if !step.Expectations.Empty() {
		timeout := r.Timeout
		if step.Within != "" {
			d, err := time.ParseDuration(step.Within)
			if err != nil {
				result.Error = fmt.Errorf("invalid within %q: %w", step.Within, err)
				result.Duration = time.Since(start)
				return result
			}
			timeout = d
		}
		_, err := PollTown(ctx, r.Client, r.BaseURL, timeout, func(t *handlers.TownResponse) error {
			return CheckExpectations(step.Expectations, t)
		})
		if err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// perform issues the step's request
func (r *Runner) perform(ctx context.Context, step TestStep) error {
	npcURL := func(op string) string {
		return fmt.Sprintf("%s/v1/npcs/%s/%s", r.BaseURL, step.NPC, op)
	}

	switch step.Action {
	case ActionWait, "":
		return nil

	case ActionSend:
		t, err := GetTown(ctx, r.Client, r.BaseURL)
		if err != nil {
			return err
		}
		b, ok := findBuilding(t.Buildings, step.Location)
		if !ok {
			return fmt.Errorf("no building named %q", step.Location)
		}
		dest := town.Point{X: b.X, Y: b.Y}
		label := "moving"
		update := town.Update{ID: step.NPC, Destination: &dest, Target: &b.Name, Label: &label}
		return Post(ctx, r.Client, r.BaseURL+"/v1/npcs/sync", handlers.SyncRequest{NPCs: []town.Update{update}}, http.StatusAccepted)

	case ActionSync:
		return Post(ctx, r.Client, r.BaseURL+"/v1/npcs/sync", handlers.SyncRequest{NPCs: step.Updates}, http.StatusAccepted)

	case ActionSummon:
		return Post(ctx, r.Client, npcURL("summon"), nil, http.StatusAccepted)

	case ActionSelect:
		return Post(ctx, r.Client, npcURL("select"), nil, http.StatusAccepted)

	case ActionCooldown:
		return Post(ctx, r.Client, npcURL("cooldown"), handlers.CooldownRequest{Duration: step.Duration}, http.StatusAccepted)

	case ActionChat:
		return Post(ctx, r.Client, r.BaseURL+"/v1/chat", handlers.ChatRequest{NPCID: step.NPC, Message: step.Message}, http.StatusAccepted)

	case ActionWalk:
		return Post(ctx, r.Client, r.BaseURL+"/v1/player/intent",
			handlers.PlayerIntentRequest{DX: step.DX, DY: step.DY, Position: step.Position}, http.StatusNoContent)

	case ActionNext:
		return Post(ctx, r.Client, r.BaseURL+"/v1/level/next", nil, http.StatusOK)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func findBuilding(buildings []town.Building, name string) (town.Building, bool) {
	for _, b := range buildings {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return town.Building{}, false
}

// CheckExpectations reports the first expectation the town does not meet.
func CheckExpectations(e Expectations, t *handlers.TownResponse) error {
	for id, want := range e.States {
		v, ok := t.NPC(id)
		if !ok {
			return fmt.Errorf("npc %s not found", id)
		}
		if v.State != want {
			return fmt.Errorf("npc %s state is %q, want %q", id, v.State, want)
		}
	}
	for id, want := range e.Labels {
		v, ok := t.NPC(id)
		if !ok {
			return fmt.Errorf("npc %s not found", id)
		}
		if v.Label != want {
			return fmt.Errorf("npc %s label is %q, want %q", id, v.Label, want)
		}
	}
	for id, want := range e.Targets {
		v, ok := t.NPC(id)
		if !ok {
			return fmt.Errorf("npc %s not found", id)
		}
		if v.TargetLocation != want {
			return fmt.Errorf("npc %s target is %q, want %q", id, v.TargetLocation, want)
		}
	}
	for id, want := range e.Partners {
		v, ok := t.NPC(id)
		if !ok {
			return fmt.Errorf("npc %s not found", id)
		}
		if v.Partner != want {
			return fmt.Errorf("npc %s partner is %q, want %q", id, v.Partner, want)
		}
	}

	if e.Level != nil || e.LevelComplete != nil {
		if t.Level == nil {
			return fmt.Errorf("town response has no level status")
		}
		if e.Level != nil && t.Level.Level != *e.Level {
			return fmt.Errorf("level is %d, want %d", t.Level.Level, *e.Level)
		}
		if e.LevelComplete != nil && t.Level.Complete != *e.LevelComplete {
			return fmt.Errorf("level complete is %t, want %t", t.Level.Complete, *e.LevelComplete)
		}
	}

	if e.Period != "" && string(t.Period) != e.Period {
		return fmt.Errorf("period is %q, want %q", t.Period, e.Period)
	}
	return nil
}
