package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/town-engine/internal/config"
	"github.com/jwebster45206/town-engine/internal/rules"
	"github.com/jwebster45206/town-engine/pkg/town"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <town.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &TownValidator{goals: rules.DefaultGoals}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Town file is valid!")
}

// TownValidator checks a town file beyond what LoadTown enforces: ids are
// snake_case, building names are unique and inside the world, and every
// level goal can be reached with this roster.
type TownValidator struct {
	goals  []rules.Goal
	errors []string
}

func (v *TownValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	ext := filepath.Ext(filename)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("town file must have .yaml extension: %s", filepath.Base(filename))
	}

	t, err := config.LoadTown(filename)
	if err != nil {
		return err
	}

	v.errors = nil
	v.validateTown(t)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *TownValidator) validateTown(t *config.Town) {
	names := make(map[string]bool, len(t.Buildings))
	for _, b := range t.Buildings {
		key := strings.ToLower(b.Name)
		if names[key] {
			v.addError(fmt.Sprintf("building %q is listed twice", b.Name))
		}
		names[key] = true
		if b.X < 0 || b.X > t.Bounds.Width || b.Y < 0 || b.Y > t.Bounds.Height {
			v.addError(fmt.Sprintf("building %q is outside the world", b.Name))
		}
	}

	roster := make(map[string]bool, len(t.Residents))
	for _, r := range t.Residents {
		v.validateIDFormat("resident id", r.ID)
		roster[r.ID] = true
	}

	registry := town.NewRegistry(t.Buildings)
	for i, g := range v.goals {
		b, ok := registry.Match(g.Location, t.Bounds.Center())
		if !ok {
			v.addError(fmt.Sprintf("level %d needs a building matching %q", i+1, g.Location))
		} else if !strings.EqualFold(b.Name, g.Location) {
			v.addError(fmt.Sprintf("level %d location %q only loosely matches building %q", i+1, g.Location, b.Name))
		}
		for _, id := range g.NPCs {
			if !roster[id] {
				v.addError(fmt.Sprintf("level %d needs resident %q", i+1, id))
			}
		}
	}

	if t.Tuning.ArrivalThreshold <= 0 {
		v.addError("tuning.arrival_threshold must be positive")
	}
	if t.Tuning.InteractionRadius <= t.Tuning.ArrivalThreshold {
		v.addError("tuning.interaction_radius should exceed tuning.arrival_threshold")
	}
}

func (v *TownValidator) validateIDFormat(fieldName, id string) {
	if !validIDRegex.MatchString(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *TownValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
