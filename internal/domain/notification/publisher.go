package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel is the Redis pub/sub channel for payment events.
const Channel = "league:payments"

// Notifier is informed on every state transition. Implementations must
// be fire-and-forget: a failed publish is logged, never returned.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// RedisPublisher fans events out over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.client == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Str("type", event.Type).Msg("failed to encode notification")
		return
	}

	// Detach from the request context so a cancelled request doesn't
	// drop the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := p.client.Publish(pubCtx, Channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("type", event.Type).Msg("failed to publish notification")
	}
}

// Nop is used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, event Event) {}
