package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"orderpulse/internal/domain/notify"

	"github.com/redis/go-redis/v9"
)

var _ notify.ChangeFeed = (*RedisFeed)(nil)

// RedisFeed delivers "document added" events over a Redis pub/sub
// channel. The store side (a database trigger or edge function) owns
// publishing; this side only subscribes.
type RedisFeed struct {
	client  *redis.Client
	channel string
}

// NewRedisFeed creates a new Redis-backed change feed.
func NewRedisFeed(redisAddr, password string, db int, channel string) *RedisFeed {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
	return &RedisFeed{client: client, channel: channel}
}

// feedMessage is the published payload per added document.
type feedMessage struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// Subscribe starts consuming added-document events. The returned
// channel closes when the context is cancelled.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan notify.Event, error) {
	sub := f.client.Subscribe(ctx, f.channel)

	// Force the subscription to establish so a bad Redis address
	// surfaces here instead of as a silent dead feed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribing to order feed: %w", err)
	}

	events := make(chan notify.Event)

	go func() {
		defer close(events)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := parseEvent(msg.Payload)
				if err != nil {
					slog.Error("malformed order feed message", "payload", msg.Payload, "error", err)
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// Close closes the Redis connection.
func (f *RedisFeed) Close() error {
	return f.client.Close()
}

func parseEvent(payload string) (notify.Event, error) {
	var msg feedMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return notify.Event{}, err
	}
	if msg.ID == "" {
		return notify.Event{}, fmt.Errorf("feed message missing id")
	}

	ev := notify.Event{ID: msg.ID}
	if msg.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, msg.CreatedAt); err == nil {
			ev.CreatedAt = t
		}
	}
	return ev, nil
}
