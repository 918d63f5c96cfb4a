package town

import "gonum.org/v1/gonum/spatial/r2"

// Resident describes an NPC's starting values.
type Resident struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Mood        string   `yaml:"mood"`
	Personality string   `yaml:"personality"`
	Thought     string   `yaml:"thought"`
	Memory      []string `yaml:"memory"`
	Color       uint32   `yaml:"color"`
	Home        Point    `yaml:"home"`
}

// NewNPC creates an idle NPC standing at home.
func (r Resident) NewNPC() *NPC {
	home := r.Home.Vec()
	n := &NPC{
		ID:          r.ID,
		Name:        r.Name,
		Personality: r.Personality,
		Color:       r.Color,
		Home:        home,
		Mood:        r.Mood,
		Thought:     r.Thought,
		Position:    home,
		State:       Idle{},
	}
	for i := len(r.Memory) - 1; i >= 0; i-- {
		n.Remember(r.Memory[i])
	}
	return n
}

// DefaultBounds is the size of the default town.
var DefaultBounds = Bounds{Width: 800, Height: 600}

// DefaultBuildings lays out the default town's landmarks for the given bounds.
func DefaultBuildings(b Bounds) []Building {
	return []Building{
		{Name: "Coffee Shop", X: 100, Y: 100, Color: 0x78350f},
		{Name: "Market", X: b.Width - 150, Y: 120, Color: 0x15803d},
		{Name: "Library", X: 120, Y: b.Height - 150, Color: 0x1e40af},
		{Name: "School", X: b.Width - 150, Y: b.Height - 150, Color: 0xa21caf},
		{Name: "Corporate Co.", X: b.Width/2 - 50, Y: 60, Color: 0x334155},
	}
}

// DefaultResidents is the starting roster of the default town.
func DefaultResidents() []Resident {
	return []Resident{
		{
			ID:          "ravi",
			Name:        "Ravi",
			Mood:        "anxious",
			Personality: "overthinker",
			Thought:     "Is someone watching me?",
			Memory:      []string{"Felt ignored earlier", "The air feels heavy today"},
			Color:       0x3b82f6,
			Home:        Point{X: 50, Y: 300},
		},
		{
			ID:          "anya",
			Name:        "Anya",
			Mood:        "hopeful",
			Personality: "social",
			Thought:     "I wonder who I will meet today!",
			Memory:      []string{"Had a great dream about a city in the clouds"},
			Color:       0xec4899,
			Home:        Point{X: 400, Y: 550},
		},
		{
			ID:          "kiran",
			Name:        "Kiran",
			Mood:        "angry",
			Personality: "loner",
			Thought:     "Everyone is so loud...",
			Memory:      []string{"Someone stepped on my shadow", "The morning sun was too bright"},
			Color:       0xef4444,
			Home:        Point{X: 750, Y: 300},
		},
	}
}

// Distance is the straight-line distance between two points.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
