package town

import "gonum.org/v1/gonum/spatial/r2"

// Bounds is the rectangular world every entity is clamped to.
type Bounds struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Clamp returns p constrained to the world rectangle.
func (b Bounds) Clamp(p r2.Vec) r2.Vec {
	return r2.Vec{X: clamp(p.X, 0, b.Width), Y: clamp(p.Y, 0, b.Height)}
}

// Center is the middle of the world, where the player spawns.
func (b Bounds) Center() r2.Vec {
	return r2.Vec{X: b.Width / 2, Y: b.Height / 2}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Point is the JSON/YAML friendly form of a position.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Vec converts the point to a gonum vector.
func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// PointOf converts a gonum vector to a Point.
func PointOf(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }
