package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/town-engine/pkg/town"
)

// Town describes the map and its residents. It is loaded from a YAML file
// or taken from the built-in defaults.
type Town struct {
	Bounds    town.Bounds     `yaml:"world"`
	Buildings []town.Building `yaml:"buildings"`
	Residents []town.Resident `yaml:"residents"`
	Tuning    Tuning          `yaml:"tuning"`
}

// Tuning holds the simulation constants. Distances are in world units,
// speeds in units per second.
type Tuning struct {
	StartHour            float64       `yaml:"start_hour"`
	ClockStep            float64       `yaml:"clock_step"`
	ArrivalThreshold     float64       `yaml:"arrival_threshold"`
	BaseSpeed            float64       `yaml:"base_speed"`
	WanderSpeed          float64       `yaml:"wander_speed"`
	WanderChance         float64       `yaml:"wander_chance"`
	YieldSpeed           float64       `yaml:"yield_speed"`
	PlayerSpeed          float64       `yaml:"player_speed"`
	NearPlayer           float64       `yaml:"near_player"`
	PlayerPriorityRadius float64       `yaml:"player_priority_radius"`
	InteractionRadius    float64       `yaml:"interaction_radius"`
	PairCooldown         time.Duration `yaml:"pair_cooldown"`
	PlayerCooldown       time.Duration `yaml:"player_cooldown"`
	RateLimitCoolOff     time.Duration `yaml:"rate_limit_cool_off"`
}

// DefaultTuning matches the pacing of the original town.
func DefaultTuning() Tuning {
	return Tuning{
		StartHour:            8,
		ClockStep:            0.1,
		ArrivalThreshold:     15,
		BaseSpeed:            80,
		WanderSpeed:          40,
		WanderChance:         0.005,
		YieldSpeed:           100,
		PlayerSpeed:          160,
		NearPlayer:           90,
		PlayerPriorityRadius: 120,
		InteractionRadius:    60,
		PairCooldown:         25 * time.Second,
		PlayerCooldown:       25 * time.Second,
		RateLimitCoolOff:     60 * time.Second,
	}
}

// DefaultTown returns the built-in town.
func DefaultTown() *Town {
	return &Town{
		Bounds:    town.DefaultBounds,
		Buildings: town.DefaultBuildings(town.DefaultBounds),
		Residents: town.DefaultResidents(),
		Tuning:    DefaultTuning(),
	}
}

// LoadTown reads a town file. Sections missing from the file fall back to the defaults.
func LoadTown(path string) (*Town, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read town file: %w", err)
	}

	t := &Town{Tuning: DefaultTuning()}
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("failed to parse town file %s: %w", path, err)
	}

	if t.Bounds.Width <= 0 || t.Bounds.Height <= 0 {
		t.Bounds = town.DefaultBounds
	}
	if len(t.Buildings) == 0 {
		t.Buildings = town.DefaultBuildings(t.Bounds)
	}
	if len(t.Residents) == 0 {
		t.Residents = town.DefaultResidents()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that residents have unique ids and sit inside the world.
func (t *Town) Validate() error {
	seen := make(map[string]bool, len(t.Residents))
	for _, r := range t.Residents {
		if r.ID == "" {
			return fmt.Errorf("resident %q has no id", r.Name)
		}
		if r.ID == town.PartnerPlayer {
			return fmt.Errorf("resident id %q is reserved", r.ID)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate resident id %q", r.ID)
		}
		seen[r.ID] = true
		if r.Home.X < 0 || r.Home.X > t.Bounds.Width || r.Home.Y < 0 || r.Home.Y > t.Bounds.Height {
			return fmt.Errorf("resident %q lives outside the world", r.ID)
		}
	}
	for _, b := range t.Buildings {
		if b.Name == "" {
			return fmt.Errorf("building at (%.0f, %.0f) has no name", b.X, b.Y)
		}
	}
	return nil
}
