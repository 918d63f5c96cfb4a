package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwebster45206/town-engine/pkg/town"
)

func TestClock_Advance(t *testing.T) {
	c := NewClock(11.9, 0.1)

	p, changed := c.Advance()
	assert.Equal(t, 12.0, c.Hour)
	assert.Equal(t, town.Evening, p)
	assert.True(t, changed)

	_, changed = c.Advance()
	assert.False(t, changed)
}

func TestClock_Wraps(t *testing.T) {
	c := NewClock(23.95, 0.1)
	p, _ := c.Advance()
	assert.InDelta(t, 0.05, c.Hour, 1e-9)
	assert.Equal(t, town.Night, p)
}

func TestClock_NoDrift(t *testing.T) {
	c := NewClock(8, 0.1)
	for i := 0; i < 100; i++ {
		c.Advance()
	}
	assert.Equal(t, 18.0, c.Hour)
}

func TestCooldowns(t *testing.T) {
	c := NewCooldowns()
	assert.True(t, c.Ready("ravi", 0), "never set is ready")

	c.Set("ravi", 5*time.Second, 25*time.Second)
	assert.False(t, c.Ready("ravi", 29*time.Second))
	assert.True(t, c.Ready("ravi", 30*time.Second))
	assert.True(t, c.Ready("anya", 0))
}
