package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/mansion-engine/pkg/notify"
)

// publishTimeout bounds a single publish made from inside a game call
const publishTimeout = 2 * time.Second

// Event is the wire form of a notification on a session channel
type Event struct {
	Type      notify.Kind    `json:"type"`
	SessionID string         `json:"session_id"`
	ProfileID string         `json:"profile_id,omitempty"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the Pub/Sub channel carrying one session's events
func Channel(sessionID string) string {
	return fmt.Sprintf("session-events:%s", sessionID)
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish sends one event to its session channel
func (b *Broadcaster) Publish(ctx context.Context, event Event) error {
	channel := Channel(event.SessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)
	return nil
}

// Subscribe opens a subscription to a session channel. The caller must
// close it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID string) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}

// ForSession returns a Notifier that forwards to the session's channel.
// Publish failures are logged and dropped.
func (b *Broadcaster) ForSession(sessionID, profileID string) notify.Notifier {
	return notify.Func(func(n notify.Notification) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_ = b.Publish(ctx, Event{
			Type:      n.Kind,
			SessionID: sessionID,
			ProfileID: profileID,
			Message:   n.Message,
			Data:      n.Data,
		})
	})
}
