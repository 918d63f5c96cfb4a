// Package sim is the town simulation: a single goroutine owns every NPC and
// advances the world in fixed ticks, while cognition calls run beside it and
// are merged back at tick boundaries.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/jwebster45206/town-engine/internal/cognition"
	"github.com/jwebster45206/town-engine/internal/config"
	"github.com/jwebster45206/town-engine/pkg/town"
)

// ErrUnknownNPC is returned by entry points given an id not in the roster.
var ErrUnknownNPC = errors.New("unknown npc")

// Options configures an Engine. Zero durations take the defaults.
type Options struct {
	Town             *config.Town
	Cognition        cognition.Service
	Sink             Sink
	Logger           *slog.Logger
	TickRate         int
	DayLength        time.Duration
	ThoughtInterval  time.Duration
	CognitionTimeout time.Duration
	Seed             int64
}

// Snapshot is a copy of the world published after every tick.
type Snapshot struct {
	Session string      `json:"session"`
	Tick    uint64      `json:"tick"`
	Time    float64     `json:"time"`
	Hour    float64     `json:"hour"`
	Period  town.Period `json:"period"`
	Player  town.Point  `json:"player"`
	NPCs    []town.View `json:"npcs"`
}

// NPC returns the view of id from the snapshot.
func (s Snapshot) NPC(id string) (town.View, bool) {
	for _, v := range s.NPCs {
		if v.ID == id {
			return v, true
		}
	}
	return town.View{}, false
}

type Engine struct {
	logger *slog.Logger
	town   *config.Town
	tuning config.Tuning
	brain  cognition.Service
	sink   Sink
	rng    *rand.Rand

	tickRate        int
	pulse           time.Duration
	thoughtInterval time.Duration
	timeout         time.Duration

	// owned by the simulation goroutine
	session    uuid.UUID
	world      *World
	clock      *Clock
	cooldowns  *Cooldowns
	nearPlayer map[string]bool
	now        time.Duration
	tick       uint64
	clockAcc   time.Duration
	thinkAcc   time.Duration
	seq        uint64
	pending    []Event

	inboxMu sync.Mutex
	inbox   []func(e *Engine)

	doneMu sync.Mutex
	done   []completion

	inflight sync.WaitGroup

	snapMu sync.RWMutex
	snap   Snapshot

	// tuning is written on the simulation goroutine only
	tuningMu sync.RWMutex
}

func New(opts Options) (*Engine, error) {
	if opts.Cognition == nil {
		return nil, fmt.Errorf("cognition service is required")
	}
	if opts.Town == nil {
		opts.Town = config.DefaultTown()
	}
	if opts.Sink == nil {
		opts.Sink = Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.DayLength <= 0 {
		opts.DayLength = 3 * time.Minute
	}
	if opts.ThoughtInterval <= 0 {
		opts.ThoughtInterval = 30 * time.Second
	}
	if opts.CognitionTimeout <= 0 {
		opts.CognitionTimeout = 30 * time.Second
	}
	if opts.Town.Tuning.ClockStep <= 0 {
		return nil, fmt.Errorf("clock step must be positive")
	}

	pulses := 24 / opts.Town.Tuning.ClockStep
	e := &Engine{
		logger:          opts.Logger,
		town:            opts.Town,
		tuning:          opts.Town.Tuning,
		brain:           opts.Cognition,
		sink:            opts.Sink,
		rng:             rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)>>1|1)),
		tickRate:        opts.TickRate,
		pulse:           time.Duration(float64(opts.DayLength) / pulses),
		thoughtInterval: opts.ThoughtInterval,
		timeout:         opts.CognitionTimeout,
	}
	e.reset()
	e.publishSnapshot()
	return e, nil
}

// reset starts a new session with the starting roster.
func (e *Engine) reset() {
	e.session = uuid.New()
	e.world = NewWorld(e.town.Bounds, town.NewRegistry(e.town.Buildings), e.town.Residents)
	e.clock = NewClock(e.tuning.StartHour, e.tuning.ClockStep)
	e.cooldowns = NewCooldowns()
	e.nearPlayer = make(map[string]bool, e.world.Len())
	e.now = 0
	e.clockAcc = 0
	e.thinkAcc = 0
	e.logger.Info("Town session started", "session", e.session, "residents", e.world.Len())
}

// Step advances the simulation by dt. It must only be called from one goroutine.
func (e *Engine) Step(dt time.Duration) {
	e.tick++
	e.now += dt

	e.absorbCommands()
	e.drainCompletions()

	e.clockAcc += dt
	for e.clockAcc >= e.pulse {
		e.clockAcc -= e.pulse
		e.advanceClock()
	}
	period := e.clock.Period()

	e.thinkAcc += dt
	if e.thinkAcc >= e.thoughtInterval {
		e.thinkAcc -= e.thoughtInterval
		e.scheduleThought(period)
	}

	// Positions do not change until integrate, so every read below sees the
	// start-of-tick world.
	npcs := e.world.NPCs()
	for _, n := range npcs {
		e.steer(n, period)
		e.checkPlayer(n, period)
	}
	e.pairUp(period)

	secs := dt.Seconds()
	for _, n := range npcs {
		e.integrate(n, secs)
	}
	e.movePlayer(secs)

	e.publishSnapshot()
	e.flushEvents()
}

// Run ticks at the configured rate until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(e.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Simulation running", "tick_rate", e.tickRate, "clock_pulse", e.pulse)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Simulation stopped")
			return ctx.Err()
		case <-ticker.C:
			e.Step(interval)
		}
	}
}

// Wait blocks until every cognition call issued so far has completed.
// Their results are merged on the next Step.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) emit(ev Event) {
	e.seq++
	ev.Session = e.session.String()
	ev.Seq = e.seq
	ev.Time = e.now.Seconds()
	e.pending = append(e.pending, ev)
}

func (e *Engine) flushEvents() {
	events := e.pending
	e.pending = nil
	for _, ev := range events {
		e.sink.Publish(ev)
	}
}

func (e *Engine) publishSnapshot() {
	npcs := e.world.NPCs()
	snap := Snapshot{
		Session: e.session.String(),
		Tick:    e.tick,
		Time:    e.now.Seconds(),
		Hour:    e.clock.Hour,
		Period:  e.clock.Period(),
		Player:  town.PointOf(e.world.Player.Position),
		NPCs:    make([]town.View, len(npcs)),
	}
	for i, n := range npcs {
		snap.NPCs[i] = n.View()
	}

	e.snapMu.Lock()
	e.snap = snap
	e.snapMu.Unlock()
}

// Snapshot returns the world as of the last completed tick.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snap
}

// Buildings lists the town's landmarks.
func (e *Engine) Buildings() []town.Building {
	return append([]town.Building(nil), e.town.Buildings...)
}

// Tuning returns the simulation constants in use.
func (e *Engine) Tuning() config.Tuning {
	e.tuningMu.RLock()
	defer e.tuningMu.RUnlock()
	return e.tuning
}

// SetTuning swaps the movement and interaction constants from the next
// tick. The clock keeps its start hour and step.
func (e *Engine) SetTuning(t config.Tuning) {
	e.enqueue(func(e *Engine) {
		t.StartHour = e.tuning.StartHour
		t.ClockStep = e.tuning.ClockStep
		e.tuningMu.Lock()
		e.tuning = t
		e.tuningMu.Unlock()
		e.logger.Info("Tuning updated",
			"base_speed", t.BaseSpeed,
			"interaction_radius", t.InteractionRadius,
			"pair_cooldown", t.PairCooldown)
	})
}

// known reports whether id is in the roster. The roster never changes
// within a town, so this is safe off the simulation goroutine.
func (e *Engine) known(id string) bool {
	for _, r := range e.town.Residents {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) enqueue(cmd func(e *Engine)) {
	e.inboxMu.Lock()
	e.inbox = append(e.inbox, cmd)
	e.inboxMu.Unlock()
}

func (e *Engine) absorbCommands() {
	e.inboxMu.Lock()
	cmds := e.inbox
	e.inbox = nil
	e.inboxMu.Unlock()

	for _, cmd := range cmds {
		cmd(e)
	}
}

// SetCooldown keeps id out of NPC conversations for d from the next tick.
func (e *Engine) SetCooldown(id string, d time.Duration) error {
	if !e.known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, id)
	}
	e.enqueue(func(e *Engine) { e.cooldowns.Set(id, e.now, d) })
	return nil
}

// SetPlayerIntent sets the player's walking direction. Zero stops the player.
func (e *Engine) SetPlayerIntent(dx, dy float64) {
	intent := r2.Vec{X: dx, Y: dy}
	if r2.Norm(intent) > 0 {
		intent = r2.Unit(intent)
	}
	e.enqueue(func(e *Engine) { e.world.Player.Intent = intent })
}

// MovePlayer places the player at p.
func (e *Engine) MovePlayer(p town.Point) {
	e.enqueue(func(e *Engine) { e.world.Player.Position = e.world.Bounds.Clamp(p.Vec()) })
}

// Summon asks id to talk to the player once the player is close.
func (e *Engine) Summon(id string) error {
	if !e.known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, id)
	}
	e.enqueue(func(e *Engine) {
		n := e.world.NPC(id)
		if _, paired := n.State.(town.WithNPC); paired {
			e.logger.Debug("Ignoring summon for paired NPC", "npc_id", id)
			return
		}
		n.Summoned = true
	})
	return nil
}

// Select marks id as the player's focus.
func (e *Engine) Select(id string) error {
	if !e.known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, id)
	}
	e.enqueue(func(e *Engine) {
		view := e.world.NPC(id).View()
		e.emit(Event{Type: EventSelected, NPCID: id, NPC: &view})
	})
	return nil
}

// Say sends a player message to id. The reply arrives as an EventThought.
func (e *Engine) Say(id, message string) error {
	if !e.known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, id)
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}
	e.enqueue(func(e *Engine) {
		e.respond(e.world.NPC(id), message, e.clock.Period())
	})
	return nil
}

// Reset restarts the town from its starting roster. Results of calls still
// in flight are discarded.
func (e *Engine) Reset() {
	e.enqueue(func(e *Engine) { e.reset() })
}

// SyncNPCs adopts externally decided fields at the next tick.
func (e *Engine) SyncNPCs(updates []town.Update) {
	batch := append([]town.Update(nil), updates...)
	e.enqueue(func(e *Engine) { e.applySync(batch) })
}

// Announce delivers ev to the sink after the next tick, stamped with the
// session and sequence like engine events.
func (e *Engine) Announce(ev Event) {
	e.enqueue(func(e *Engine) { e.emit(ev) })
}
