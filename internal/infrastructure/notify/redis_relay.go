package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// envelope is the wire form of a relayed emit. An empty Address means every session.
type envelope struct {
	Address string           `json:"address,omitempty"`
	Event   domain.LiveEvent `json:"event"`
}

// RedisRelay publishes emits on a Redis channel and delivers every message
// received on that channel into the local hub, so sessions attached to any
// instance get the event.
type RedisRelay struct {
	client  *redis.Client
	channel string
	local   *Hub
	logger  *slog.Logger

	// detached is set once Run has exited; emits then go to the local hub only.
	detached atomic.Bool
}

var _ ports.Broadcaster = (*RedisRelay)(nil)

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisRelay wires a relay over client and channel into local.
func NewRedisRelay(client *redis.Client, channel string, local *Hub, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay{client: client, channel: channel, local: local, logger: logger}
}

// Emit publishes the event for address. When Redis is unreachable the event
// is still delivered to sessions on this instance.
func (r *RedisRelay) Emit(ctx context.Context, address string, event domain.LiveEvent) error {
	return r.publish(ctx, envelope{Address: address, Event: event})
}

// EmitAll publishes the event for every session on every instance.
func (r *RedisRelay) EmitAll(ctx context.Context, event domain.LiveEvent) error {
	return r.publish(ctx, envelope{Event: event})
}

func (r *RedisRelay) publish(ctx context.Context, env envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal live event: %w", err)
	}

	if r.detached.Load() {
		r.deliver(ctx, env)
		return nil
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.deliver(ctx, env)
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

// Run subscribes to the relay channel and feeds the local hub until ctx is done.
// After Run returns the relay delivers locally until Run subscribes again.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	defer r.detached.Store(true)

	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.detached.Store(false)
	r.logger.Info("live relay subscribed", "channel", r.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("discarding malformed relay message", "channel", msg.Channel, "error", err)
				continue
			}
			r.deliver(ctx, env)
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, env envelope) {
	if env.Address == "" {
		_ = r.local.EmitAll(ctx, env.Event)
		return
	}
	_ = r.local.Emit(ctx, env.Address, env.Event)
}
