// Package rules holds the game layered over the simulation: arriving at a
// building labels the NPC, and levels are won by gathering NPCs in one place.
package rules

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jwebster45206/town-engine/internal/sim"
	"github.com/jwebster45206/town-engine/pkg/town"
)

// Controller is the part of the engine the rules drive.
type Controller interface {
	SyncNPCs(updates []town.Update)
	SetCooldown(id string, d time.Duration) error
	Reset()
	Announce(ev sim.Event)
	Snapshot() sim.Snapshot
}

// Goal is won when every listed NPC is at Location. An empty NPC list means everyone.
type Goal struct {
	Description string   `json:"description"`
	Location    string   `json:"location"`
	NPCs        []string `json:"npcs,omitempty"`
}

// DefaultGoals are the levels of the built-in town.
var DefaultGoals = []Goal{
	{Description: "Convince everyone to meet at the Coffee Shop.", Location: "Coffee Shop"},
	{Description: "Convince Anya and Kiran to meet at the Market for their date.", Location: "Market", NPCs: []string{"anya", "kiran"}},
}

// Status is the progress on the current level.
type Status struct {
	Level    int    `json:"level"`
	Goal     string `json:"goal"`
	Present  int    `json:"present"`
	Required int    `json:"required"`
	Complete bool   `json:"complete"`
}

// ArrivalLabel is the action label given to an NPC that reached location.
func ArrivalLabel(location string) string {
	return "at_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(location)), " ", "_")
}

// Levels is a sim.Sink placed in front of the presentation sinks. It runs on
// the simulation goroutine and talks back to the engine only through queued
// entry points.
type Levels struct {
	next           sim.Sink
	goals          []Goal
	playerCooldown time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	ctl      Controller
	level    int
	complete bool

	// labels set this tick; the snapshot catches up on the next one
	overlay     map[string]string
	overlayTick uint64
}

func New(next sim.Sink, goals []Goal, playerCooldown time.Duration, logger *slog.Logger) *Levels {
	if next == nil {
		next = sim.Discard
	}
	return &Levels{
		next:           next,
		goals:          goals,
		playerCooldown: playerCooldown,
		logger:         logger,
		level:          1,
		overlay:        make(map[string]string),
	}
}

// Bind attaches the engine. Events seen before Bind are only forwarded.
func (l *Levels) Bind(ctl Controller) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctl = ctl
}

// Publish implements sim.Sink.
func (l *Levels) Publish(ev sim.Event) {
	l.mu.Lock()
	if l.ctl != nil {
		switch ev.Type {
		case sim.EventArrived:
			l.arrived(ev)
		case sim.EventThought:
			l.afterPlayerChat(ev)
		}
	}
	l.mu.Unlock()

	l.next.Publish(ev)
}

func (l *Levels) arrived(ev sim.Event) {
	snap := l.ctl.Snapshot()
	if snap.Tick != l.overlayTick {
		clear(l.overlay)
		l.overlayTick = snap.Tick
	}

	label := ArrivalLabel(ev.Location)
	l.overlay[ev.NPCID] = label
	l.ctl.SyncNPCs([]town.Update{{ID: ev.NPCID, Label: &label}})

	name := ev.NPCID
	if v, ok := snap.NPC(ev.NPCID); ok {
		name = v.Name
	}
	l.ctl.Announce(sim.Event{
		Type:     sim.EventThought,
		NPCID:    ev.NPCID,
		Location: ev.Location,
		Kind:     sim.KindSystem,
		Text:     fmt.Sprintf("%s has arrived at the %s!", name, ev.Location),
	})

	if l.complete {
		return
	}
	st := l.status(snap)
	if !st.Complete {
		return
	}
	l.complete = true
	l.logger.Info("Level completed", "level", l.level, "session", ev.Session)
	l.ctl.Announce(sim.Event{
		Type:  sim.EventLevelCompleted,
		Level: l.level,
		Text:  fmt.Sprintf("Level %d complete!", l.level),
	})
}

func (l *Levels) afterPlayerChat(ev sim.Event) {
	if ev.Kind != sim.KindInteraction || ev.PartnerID != town.PartnerPlayer || l.playerCooldown <= 0 {
		return
	}
	if err := l.ctl.SetCooldown(ev.NPCID, l.playerCooldown); err != nil {
		l.logger.Warn("Failed to set cooldown after player chat", "npc_id", ev.NPCID, "error", err)
	}
}

// Next starts the following level with a fresh roster.
func (l *Levels) Next() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctl == nil {
		return 0, fmt.Errorf("levels not bound to an engine")
	}

	l.level++
	l.complete = false
	clear(l.overlay)
	l.ctl.Reset()
	l.ctl.Announce(sim.Event{
		Type:  sim.EventLevelStarted,
		Level: l.level,
		Text:  fmt.Sprintf("Level %d Started!", l.level),
	})
	l.logger.Info("Level started", "level", l.level)
	return l.level, nil
}

// Status reports progress on the current level.
func (l *Levels) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctl == nil {
		return Status{Level: l.level}
	}
	return l.status(l.ctl.Snapshot())
}

func (l *Levels) goal() (Goal, bool) {
	if l.level < 1 || l.level > len(l.goals) {
		return Goal{}, false
	}
	return l.goals[l.level-1], true
}

func (l *Levels) status(snap sim.Snapshot) Status {
	st := Status{Level: l.level, Complete: l.complete}
	g, ok := l.goal()
	if !ok {
		st.Goal = "Free play."
		return st
	}
	st.Goal = g.Description

	ids := g.NPCs
	if len(ids) == 0 {
		for _, v := range snap.NPCs {
			ids = append(ids, v.ID)
		}
	}
	want := ArrivalLabel(g.Location)
	st.Required = len(ids)
	for _, id := range ids {
		if l.labelOf(snap, id) == want {
			st.Present++
		}
	}
	if st.Required > 0 && st.Present == st.Required {
		st.Complete = true
	}
	return st
}

func (l *Levels) labelOf(snap sim.Snapshot, id string) string {
	if snap.Tick == l.overlayTick {
		if label, ok := l.overlay[id]; ok {
			return label
		}
	}
	v, _ := snap.NPC(id)
	return v.Label
}
