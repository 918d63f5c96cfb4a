package sim

import "time"

// Cooldowns holds per-NPC deadlines on the engine clock before which the NPC
// may not start another NPC conversation.
type Cooldowns struct {
	deadlines map[string]time.Duration
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{deadlines: make(map[string]time.Duration)}
}

// Set makes id ineligible until now+d.
func (c *Cooldowns) Set(id string, now, d time.Duration) {
	c.deadlines[id] = now + d
}

// Ready reports whether id's cooldown has expired at now.
func (c *Cooldowns) Ready(id string, now time.Duration) bool {
	return now >= c.deadlines[id]
}

// Deadline returns the engine time id is cooling down until, zero if never set.
func (c *Cooldowns) Deadline(id string) time.Duration {
	return c.deadlines[id]
}
