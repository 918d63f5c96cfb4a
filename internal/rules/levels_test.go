package rules

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/internal/config"
	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/pkg/town"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEngine struct {
	snap      sim.Snapshot
	syncs     []town.Update
	cooldowns map[string]time.Duration
	announced []sim.Event
	resets    int
}

func newFakeEngine(ids ...string) *fakeEngine {
	f := &fakeEngine{cooldowns: make(map[string]time.Duration)}
	for _, id := range ids {
		f.snap.NPCs = append(f.snap.NPCs, town.View{ID: id, Name: id})
	}
	return f
}

func (f *fakeEngine) SyncNPCs(updates []town.Update) { f.syncs = append(f.syncs, updates...) }
func (f *fakeEngine) SetCooldown(id string, d time.Duration) error {
	f.cooldowns[id] = d
	return nil
}
func (f *fakeEngine) Reset()                 { f.resets++ }
func (f *fakeEngine) Announce(ev sim.Event)  { f.announced = append(f.announced, ev) }
func (f *fakeEngine) Snapshot() sim.Snapshot { return f.snap }

func (f *fakeEngine) setLabel(id, label string) {
	for i := range f.snap.NPCs {
		if f.snap.NPCs[i].ID == id {
			f.snap.NPCs[i].Label = label
		}
	}
}

func (f *fakeEngine) announcedOf(t sim.EventType) []sim.Event {
	var out []sim.Event
	for _, ev := range f.announced {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type collector struct{ events []sim.Event }

func (c *collector) Publish(ev sim.Event) { c.events = append(c.events, ev) }

func arrived(id, location string) sim.Event {
	return sim.Event{Type: sim.EventArrived, NPCID: id, Location: location}
}

func TestArrivalLabel(t *testing.T) {
	assert.Equal(t, "at_coffee_shop", ArrivalLabel("Coffee Shop"))
	assert.Equal(t, "at_market", ArrivalLabel("Market"))
	assert.Equal(t, "at_home", ArrivalLabel("Home"))
}

func TestLevels_ArrivalLabelsAndForwards(t *testing.T) {
	out := &collector{}
	eng := newFakeEngine("ravi", "anya", "kiran")
	l := New(out, DefaultGoals, 25*time.Second, testLogger())
	l.Bind(eng)

	l.Publish(arrived("ravi", "Coffee Shop"))

	require.Len(t, eng.syncs, 1)
	assert.Equal(t, "ravi", eng.syncs[0].ID)
	require.NotNil(t, eng.syncs[0].Label)
	assert.Equal(t, "at_coffee_shop", *eng.syncs[0].Label)
	assert.Nil(t, eng.syncs[0].Destination)

	sys := eng.announcedOf(sim.EventThought)
	require.Len(t, sys, 1)
	assert.Equal(t, "ravi has arrived at the Coffee Shop!", sys[0].Text)
	assert.Equal(t, sim.KindSystem, sys[0].Kind)

	require.Len(t, out.events, 1, "events are forwarded downstream")
	assert.Equal(t, sim.EventArrived, out.events[0].Type)
}

func TestLevels_LevelOneNeedsEveryone(t *testing.T) {
	eng := newFakeEngine("ravi", "anya", "kiran")
	l := New(nil, DefaultGoals, 0, testLogger())
	l.Bind(eng)

	l.Publish(arrived("ravi", "Coffee Shop"))
	l.Publish(arrived("anya", "Coffee Shop"))
	assert.Empty(t, eng.announcedOf(sim.EventLevelCompleted))

	st := l.Status()
	assert.Equal(t, 2, st.Present)
	assert.Equal(t, 3, st.Required)

	l.Publish(arrived("kiran", "Coffee Shop"))
	done := eng.announcedOf(sim.EventLevelCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, 1, done[0].Level)

	l.Publish(arrived("kiran", "Coffee Shop"))
	assert.Len(t, eng.announcedOf(sim.EventLevelCompleted), 1, "completed once per level")
}

func TestLevels_UsesSnapshotLabelsFromEarlierTicks(t *testing.T) {
	eng := newFakeEngine("ravi", "anya", "kiran")
	l := New(nil, DefaultGoals, 0, testLogger())
	l.Bind(eng)

	eng.snap.Tick = 10
	l.Publish(arrived("ravi", "Coffee Shop"))

	// the label sync landed; a later tick only sees it through the snapshot
	eng.snap.Tick = 50
	eng.setLabel("ravi", "at_coffee_shop")
	eng.setLabel("anya", "at_coffee_shop")
	l.Publish(arrived("kiran", "Coffee Shop"))

	assert.Len(t, eng.announcedOf(sim.EventLevelCompleted), 1)
}

func TestLevels_LeavingUndoesProgress(t *testing.T) {
	eng := newFakeEngine("ravi", "anya", "kiran")
	l := New(nil, DefaultGoals, 0, testLogger())
	l.Bind(eng)

	eng.snap.Tick = 1
	l.Publish(arrived("ravi", "Coffee Shop"))
	l.Publish(arrived("anya", "Coffee Shop"))

	eng.snap.Tick = 2
	eng.setLabel("ravi", "moving")
	eng.setLabel("anya", "at_coffee_shop")
	l.Publish(arrived("kiran", "Coffee Shop"))

	assert.Empty(t, eng.announcedOf(sim.EventLevelCompleted))
}

func TestLevels_LevelTwo(t *testing.T) {
	eng := newFakeEngine("ravi", "anya", "kiran")
	l := New(nil, DefaultGoals, 0, testLogger())
	l.Bind(eng)

	lvl, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, lvl)
	assert.Equal(t, 1, eng.resets)
	started := eng.announcedOf(sim.EventLevelStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "Level 2 Started!", started[0].Text)

	l.Publish(arrived("anya", "Market"))
	l.Publish(arrived("ravi", "Coffee Shop"))
	assert.Empty(t, eng.announcedOf(sim.EventLevelCompleted))

	l.Publish(arrived("kiran", "Market"))
	done := eng.announcedOf(sim.EventLevelCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, 2, done[0].Level)
}

func TestLevels_FreePlayAfterLastGoal(t *testing.T) {
	eng := newFakeEngine("ravi")
	l := New(nil, DefaultGoals, 0, testLogger())
	l.Bind(eng)

	for range DefaultGoals {
		_, err := l.Next()
		require.NoError(t, err)
	}
	l.Publish(arrived("ravi", "Market"))

	assert.Empty(t, eng.announcedOf(sim.EventLevelCompleted))
	st := l.Status()
	assert.Equal(t, len(DefaultGoals)+1, st.Level)
	assert.Equal(t, "Free play.", st.Goal)
}

func TestLevels_PlayerChatCooldown(t *testing.T) {
	eng := newFakeEngine("ravi", "anya")
	l := New(nil, DefaultGoals, 25*time.Second, testLogger())
	l.Bind(eng)

	l.Publish(sim.Event{Type: sim.EventThought, NPCID: "ravi", PartnerID: town.PartnerPlayer, Kind: sim.KindInteraction})
	l.Publish(sim.Event{Type: sim.EventThought, NPCID: "anya", PartnerID: "ravi", Kind: sim.KindInteraction})
	l.Publish(sim.Event{Type: sim.EventThought, NPCID: "anya", Kind: sim.KindThought})

	assert.Equal(t, map[string]time.Duration{"ravi": 25 * time.Second}, eng.cooldowns)
}

func TestLevels_Unbound(t *testing.T) {
	out := &collector{}
	l := New(out, DefaultGoals, 0, testLogger())

	assert.NotPanics(t, func() { l.Publish(arrived("ravi", "Market")) })
	assert.Len(t, out.events, 1)
	_, err := l.Next()
	assert.Error(t, err)
}

func TestLevels_WithEngine(t *testing.T) {
	out := &collector{}
	l := New(out, DefaultGoals, 25*time.Second, testLogger())

	tw := config.DefaultTown()
	tw.Tuning.WanderChance = 0
	e, err := sim.New(sim.Options{Town: tw, Cognition: &cognition.Stub{}, Sink: l, Logger: testLogger(), Seed: 1})
	require.NoError(t, err)
	l.Bind(e)
	e.MovePlayer(town.Point{X: 900, Y: 650})

	shop := town.Point{X: 100, Y: 100}
	var updates []town.Update
	for _, r := range tw.Residents {
		require.NoError(t, e.SetCooldown(r.ID, time.Hour))
		target := "Coffee Shop"
		dest := town.Point{X: shop.X + 5, Y: shop.Y}
		updates = append(updates, town.Update{ID: r.ID, Destination: &dest, Target: &target})
	}
	e.SyncNPCs(updates)

	const tick = time.Second / 60
	for i := 0; i < 60*30; i++ {
		e.Step(tick)
	}

	var completed []sim.Event
	for _, ev := range out.events {
		if ev.Type == sim.EventLevelCompleted {
			completed = append(completed, ev)
		}
	}
	require.Len(t, completed, 1)
	assert.Equal(t, e.Snapshot().Session, completed[0].Session)

	for _, v := range e.Snapshot().NPCs {
		assert.Equal(t, "at_coffee_shop", v.Label, v.ID)
	}
	assert.True(t, l.Status().Complete)
}
