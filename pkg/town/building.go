package town

import (
	"strings"

	"golang.org/x/text/cases"
	"gonum.org/v1/gonum/spatial/r2"
)

// Building is a named point of interest in town.
type Building struct {
	Name  string  `yaml:"name" json:"name"`
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Color uint32  `yaml:"color" json:"color"`
}

// Position returns the building's location.
func (b Building) Position() r2.Vec { return r2.Vec{X: b.X, Y: b.Y} }

// Registry is the immutable set of buildings loaded at startup.
type Registry struct {
	buildings []Building
	folded    []string
}

// NewRegistry copies buildings into a registry.
func NewRegistry(buildings []Building) *Registry {
	fold := cases.Fold()
	r := &Registry{
		buildings: append([]Building(nil), buildings...),
		folded:    make([]string, len(buildings)),
	}
	for i, b := range buildings {
		r.folded[i] = fold.String(b.Name)
	}
	return r
}

// All returns a copy of the registered buildings.
func (r *Registry) All() []Building {
	return append([]Building(nil), r.buildings...)
}

// Names lists building names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.buildings))
	for i, b := range r.buildings {
		names[i] = b.Name
	}
	return names
}

// Match resolves a free-text location name to a building. A building matches when
// either name contains the other, ignoring case, so "the market" finds "Market" and
// "coffee" finds "Coffee Shop". Among several matches the one nearest to from wins.
func (r *Registry) Match(query string, from r2.Vec) (Building, bool) {
	q := cases.Fold().String(strings.TrimSpace(query))
	if q == "" {
		return Building{}, false
	}

	best := -1
	bestDist := 0.0
	for i, name := range r.folded {
		if !strings.Contains(name, q) && !strings.Contains(q, name) {
			continue
		}
		d := r2.Norm(r2.Sub(r.buildings[i].Position(), from))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Building{}, false
	}
	return r.buildings[best], true
}
