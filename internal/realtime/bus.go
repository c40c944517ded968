// README: Change feed over Redis pub/sub; stands in for the database's realtime channel.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bitebay/internal/logger"
	"bitebay/internal/types"
)

type EventType string

const EventUpdate EventType = "UPDATE"

// Event announces that a row changed. Consumers refetch; the payload is never merged.
type Event struct {
	Topic    string    `json:"topic"`
	Table    string    `json:"table"`
	RecordID string    `json:"record_id"`
	Type     EventType `json:"type"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topics ...string) (<-chan Event, func() error, error)
}

func OrderTopic(orderID types.ID) string {
	return fmt.Sprintf("changes:order:%s", orderID)
}

type RedisBus struct {
	redis *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{redis: client}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, e.Topic, payload).Err()
}

// Subscribe returns a channel of decoded events. The channel closes when ctx is
// cancelled or the returned close func is called.
func (b *RedisBus) Subscribe(ctx context.Context, topics ...string) (<-chan Event, func() error, error) {
	sub := b.redis.Subscribe(ctx, topics...)
	// Receive blocks until the subscription is confirmed so callers can fall back early.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe %v: %w", topics, err)
	}

	out := make(chan Event, 16)
	msgs := sub.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					logger.FromCtx(ctx).Warn("drop malformed change event",
						zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, sub.Close, nil
}

// Nop drops every event; used by tests and when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
