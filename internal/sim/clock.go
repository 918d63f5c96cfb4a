package sim

import (
	"math"

	"github.com/jwebster45206/town-engine/pkg/town"
)

// Clock is the simulated time of day.
type Clock struct {
	Hour float64
	step float64
	last town.Period
}

func NewClock(start, step float64) *Clock {
	start = math.Mod(start, 24)
	return &Clock{Hour: start, step: step, last: town.PeriodAt(start)}
}

func (c *Clock) Period() town.Period {
	return town.PeriodAt(c.Hour)
}

// Advance moves time forward one step, wrapping at 24. It returns the new
// period and whether that period differs from the one seen on the previous advance.
func (c *Clock) Advance() (town.Period, bool) {
	// rounding keeps repeated 0.1 steps on exact tenths
	c.Hour = math.Round(math.Mod(c.Hour+c.step, 24)*1e6) / 1e6
	p := c.Period()
	changed := p != c.last
	c.last = p
	return p, changed
}

// advanceClock runs one clock pulse.
func (e *Engine) advanceClock() {
	period, changed := e.clock.Advance()
	if changed && period == town.Night {
		e.sendEveryoneHome()
	}
	e.emit(Event{Type: EventTimeUpdated, Hour: e.clock.Hour, Period: period})
}

// sendEveryoneHome gives every NPC that is not engaged with someone a trip home.
func (e *Engine) sendEveryoneHome() {
	for _, n := range e.world.NPCs() {
		if n.Partner() != "" {
			continue
		}
		n.State = town.Moving{Destination: n.Home, Target: "Home"}
		n.Label = "moving"
	}
	e.logger.Debug("Night fell, residents heading home")
}
