package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/jwebster45206/town-engine/pkg/town"
)

const wallBounce = 0.5

// steer sets n's velocity for this tick from its state. Arrival is detected
// here, against the start-of-tick position.
func (e *Engine) steer(n *town.NPC, period town.Period) {
	mult := period.SpeedMultiplier()

	switch s := n.State.(type) {
	case town.Moving:
		offset := r2.Sub(s.Destination, n.Position)
		if r2.Norm(offset) > e.tuning.ArrivalThreshold {
			n.Velocity = r2.Scale(e.tuning.BaseSpeed*mult, r2.Unit(offset))
			return
		}
		n.Velocity = r2.Vec{}
		n.State = town.Idle{}
		e.emit(Event{Type: EventArrived, NPCID: n.ID, Location: s.Target})

	case town.Idle:
		switch {
		case period == town.Night:
			n.Velocity = r2.Vec{}
		case !n.Summoned && e.rng.Float64() < e.tuning.WanderChance:
			angle := e.rng.Float64() * 2 * math.Pi
			n.Velocity = r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
			n.Velocity = r2.Scale(e.tuning.WanderSpeed*mult, n.Velocity)
		}

	default:
		n.Velocity = r2.Vec{}
	}
}

// integrate moves n by its velocity. A walk toward a destination stops on
// the destination rather than stepping past it. Drift bounces off the walls.
func (e *Engine) integrate(n *town.NPC, dt float64) {
	step := r2.Scale(dt, n.Velocity)
	if mv, ok := n.State.(town.Moving); ok {
		remaining := r2.Sub(mv.Destination, n.Position)
		if r2.Norm(step) >= r2.Norm(remaining) {
			step = remaining
		}
	}

	next := r2.Add(n.Position, step)
	clamped := e.world.Bounds.Clamp(next)
	if clamped.X != next.X {
		n.Velocity.X = -n.Velocity.X * wallBounce
	}
	if clamped.Y != next.Y {
		n.Velocity.Y = -n.Velocity.Y * wallBounce
	}
	n.Position = clamped
}

// movePlayer follows the input intent.
func (e *Engine) movePlayer(dt float64) {
	p := &e.world.Player
	if p.Intent == (r2.Vec{}) {
		return
	}
	p.Position = e.world.Bounds.Clamp(r2.Add(p.Position, r2.Scale(e.tuning.PlayerSpeed*dt, p.Intent)))
}
