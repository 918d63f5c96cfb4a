package cognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Recorder is told about every call the guard lets through or refuses.
type Recorder interface {
	ObserveCognition(kind, outcome string, d time.Duration)
}

// Call outcomes reported to a Recorder.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeCoolingOff  = "cooling_off"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
	OutcomeError       = "error"
)

// Guard wraps a Service. After a rate limit it stops calling the service for
// coolOff and every call fails fast with ErrCoolingOff. A run of other
// failures opens a circuit breaker and calls fail fast with ErrUnavailable
// until a probe succeeds.
type Guard struct {
	next     Service
	coolOff  time.Duration
	logger   *slog.Logger
	now      func() time.Time
	breaker  *gobreaker.CircuitBreaker
	recorder Recorder

	mu    sync.Mutex
	until time.Time
}

var _ Service = (*Guard)(nil)

// BreakerSettings tunes when the guard gives up on a failing service.
type BreakerSettings struct {
	Failures uint32        // consecutive failures that open the breaker
	Timeout  time.Duration // how long the breaker stays open before probing
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{Failures: 5, Timeout: 30 * time.Second}
}

func NewGuard(next Service, coolOff time.Duration, logger *slog.Logger) *Guard {
	return NewGuardWithBreaker(next, coolOff, DefaultBreakerSettings(), logger)
}

func NewGuardWithBreaker(next Service, coolOff time.Duration, bs BreakerSettings, logger *slog.Logger) *Guard {
	g := &Guard{
		next:    next,
		coolOff: coolOff,
		logger:  logger,
		now:     time.Now,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cognition",
		MaxRequests: 1,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Cognition circuit breaker changed state", "from", from.String(), "to", to.String())
		},
		// Rate limits have their own cool-off and cancellations are the caller's doing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRateLimited) || errors.Is(err, context.Canceled)
		},
	})
	return g
}

// SetRecorder installs r. Call before the guard is shared.
func (g *Guard) SetRecorder(r Recorder) {
	g.recorder = r
}

// CoolingOff reports whether calls are currently suppressed, either by a
// rate-limit cool-off or by an open breaker.
func (g *Guard) CoolingOff() bool {
	return g.rateLimited() || g.breaker.State() == gobreaker.StateOpen
}

func (g *Guard) rateLimited() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.until)
}

func (g *Guard) observe(err error) {
	if !errors.Is(err, ErrRateLimited) {
		return
	}
	g.mu.Lock()
	g.until = g.now().Add(g.coolOff)
	g.mu.Unlock()
	g.logger.Warn("Cognition rate limited, cooling off", "duration", g.coolOff)
}

func (g *Guard) record(kind string, err error, d time.Duration) {
	if g.recorder == nil {
		return
	}
	outcome := OutcomeError
	switch {
	case err == nil:
		outcome = OutcomeOK
	case errors.Is(err, ErrCoolingOff):
		outcome = OutcomeCoolingOff
	case errors.Is(err, ErrUnavailable):
		outcome = OutcomeUnavailable
	case errors.Is(err, ErrRateLimited):
		outcome = OutcomeRateLimited
	case errors.Is(err, ErrMalformed):
		outcome = OutcomeMalformed
	}
	g.recorder.ObserveCognition(kind, outcome, d)
}

// guarded runs call through the cool-off and the breaker.
func guarded[T any](g *Guard, kind string, call func() (*T, error)) (*T, error) {
	start := g.now()
	if g.rateLimited() {
		g.record(kind, ErrCoolingOff, 0)
		return nil, ErrCoolingOff
	}

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	g.observe(err)
	g.record(kind, err, g.now().Sub(start))
	if err != nil {
		return nil, err
	}
	return res.(*T), nil
}

func (g *Guard) Think(ctx context.Context, req ThoughtRequest) (*Thought, error) {
	return guarded(g, "think", func() (*Thought, error) { return g.next.Think(ctx, req) })
}

func (g *Guard) RespondToPlayer(ctx context.Context, req PlayerRequest) (*PlayerReply, error) {
	return guarded(g, "respond", func() (*PlayerReply, error) { return g.next.RespondToPlayer(ctx, req) })
}

func (g *Guard) Converse(ctx context.Context, req ConversationRequest) (*Conversation, error) {
	return guarded(g, "converse", func() (*Conversation, error) { return g.next.Converse(ctx, req) })
}
