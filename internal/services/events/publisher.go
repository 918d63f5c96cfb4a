package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/town-engine/internal/sim"
)

const publishTimeout = 2 * time.Second

// CurrentChannel carries every event whatever its session, so a subscriber
// follows the town across resets.
const CurrentChannel = "town-events:current"

// Publisher publishes engine events to Redis Pub/Sub, one channel per session
// plus CurrentChannel.
type Publisher struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(redisClient *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel returns the Pub/Sub channel for a session.
func Channel(session string) string {
	return fmt.Sprintf("town-events:%s", session)
}

// Publish implements sim.Sink. Failures are logged and the event is dropped.
func (p *Publisher) Publish(ev sim.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = p.PublishEvent(ctx, ev)
}

// PublishEvent publishes a single event to its session channel and to CurrentChannel.
func (p *Publisher) PublishEvent(ctx context.Context, ev sim.Event) error {
	channel := Channel(ev.Session)

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to marshal event", "error", err, "event_type", ev.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.redisClient.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, channel, data)
		pipe.Publish(ctx, CurrentChannel, data)
		return nil
	})
	if err != nil {
		p.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		"channel", channel,
		"event_type", ev.Type,
		"seq", ev.Seq,
	)

	return nil
}
