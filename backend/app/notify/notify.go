package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is published after a command has been committed to the queue.
type Event struct {
	CommandID     int64     `json:"command_id"`
	ServerID      int64     `json:"server_id"`
	Type          string    `json:"type"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Publisher announces queued commands to listening agents.
type Publisher interface {
	CommandQueued(ctx context.Context, ev Event) error
}

// Channel returns the per-server channel name.
func Channel(prefix string, serverID int64) string {
	return fmt.Sprintf("%s:%d", prefix, serverID)
}

type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisPublisher(rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

func (p *RedisPublisher) CommandQueued(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, Channel(p.prefix, ev.ServerID), body).Err()
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) CommandQueued(context.Context, Event) error { return nil }

// Subscribe listens on the server's channel and calls fn for every event
// until ctx is done.
func Subscribe(ctx context.Context, rdb *redis.Client, prefix string, serverID int64, fn func(Event)) error {
	sub := rdb.Subscribe(ctx, Channel(prefix, serverID))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			fn(ev)
		}
	}
}
