package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/pkg/town"
)

func ptr[T any](v T) *T { return &v }

func TestSyncNPCs_AppliedAtNextTick(t *testing.T) {
	e, _ := newTestEngine(t, &cognition.Stub{}, resident("ravi", 50, 300))

	e.SyncNPCs([]town.Update{{
		ID:          "ravi",
		Destination: &town.Point{X: 100, Y: 100},
		Target:      ptr("Coffee Shop"),
		Label:       ptr("moving"),
		Mood:        ptr("curious"),
		Thought:     ptr("Coffee time"),
	}})

	n := e.world.NPC("ravi")
	assert.Equal(t, "calm", n.Mood, "nothing changes before the tick")

	e.Step(tick)
	dest, target, ok := n.Destination()
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: 100, Y: 100}, dest)
	assert.Equal(t, "Coffee Shop", target)
	assert.Equal(t, "moving", n.Label)
	assert.Equal(t, "curious", n.Mood)
	assert.Equal(t, "Coffee Shop", e.Snapshot().NPCs[0].TargetLocation)
}

func TestSyncNPCs_DestinationAndTargetTravelTogether(t *testing.T) {
	e, _ := newTestEngine(t, &cognition.Stub{}, resident("ravi", 50, 300))
	n := e.world.NPC("ravi")

	e.SyncNPCs([]town.Update{{ID: "ravi", Destination: &town.Point{X: 100, Y: 100}}})
	e.Step(tick)
	_, _, ok := n.Destination()
	assert.False(t, ok, "destination without target is ignored")

	e.SyncNPCs([]town.Update{{ID: "ravi", Target: ptr("Market")}})
	e.Step(tick)
	_, _, ok = n.Destination()
	assert.False(t, ok, "target without destination is ignored")

	n.State = town.Moving{Destination: r2.Vec{X: 700, Y: 100}, Target: "Market"}
	e.SyncNPCs([]town.Update{{ID: "ravi", Target: ptr("")}})
	e.Step(tick)
	_, _, ok = n.Destination()
	assert.False(t, ok, "empty target clears the trip")
}

func TestSyncNPCs_CannotBreakEnginePair(t *testing.T) {
	e, _ := newTestEngine(t, &cognition.Stub{}, resident("anya", 400, 550), resident("kiran", 750, 300))
	a, k := e.world.NPC("anya"), e.world.NPC("kiran")
	a.State = town.WithNPC{Partner: "kiran"}
	k.State = town.WithNPC{Partner: "anya"}

	e.SyncNPCs([]town.Update{
		{ID: "anya", Partner: ptr(""), Destination: &town.Point{X: 1, Y: 1}, Target: ptr("Nowhere")},
		{ID: "kiran", Partner: ptr(town.PartnerPlayer), Mood: ptr("bored")},
	})
	e.Step(tick)

	assert.Equal(t, "kiran", a.Partner())
	assert.Equal(t, "anya", k.Partner())
	assert.Equal(t, "bored", k.Mood, "non-structural fields still apply")
}

func TestSyncNPCs_CannotStartPair(t *testing.T) {
	e, _ := newTestEngine(t, &cognition.Stub{}, resident("anya", 400, 550), resident("kiran", 750, 300))

	e.SyncNPCs([]town.Update{
		{ID: "anya", Partner: ptr("kiran")},
		{ID: "kiran", Partner: ptr("anya")},
	})
	e.Step(tick)

	assert.Empty(t, e.world.NPC("anya").Partner())
	assert.Empty(t, e.world.NPC("kiran").Partner())
}

func TestSyncNPCs_PlayerPartner(t *testing.T) {
	e, _ := newTestEngine(t, &cognition.Stub{}, resident("ravi", 50, 300))
	n := e.world.NPC("ravi")

	e.SyncNPCs([]town.Update{{ID: "ravi", Partner: ptr(town.PartnerPlayer)}})
	e.Step(tick)
	assert.True(t, n.Summoned)

	n.State = town.WithPlayer{}
	e.nearPlayer["ravi"] = true
	e.SyncNPCs([]town.Update{{ID: "ravi", Partner: ptr("")}})
	e.Step(tick)
	assert.Empty(t, n.Partner())
	assert.IsType(t, town.Idle{}, n.State)
}

func TestSyncNPCs_UnknownIgnored(t *testing.T) {
	e, _ := newTestEngine(t, &cognition.Stub{}, resident("ravi", 50, 300))
	e.SyncNPCs([]town.Update{{ID: "ghost", Mood: ptr("spooky")}})
	assert.NotPanics(t, func() { e.Step(tick) })
}
