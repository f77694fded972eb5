package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay mirrors changes between API instances over Redis pub/sub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	log     *zap.Logger
}

type relayEnvelope struct {
	Origin string `json:"origin"`
	Change Change `json:"change"`
}

// NewRedisRelay attaches itself to hub as its forwarder.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = "lostfound:live"
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		log:     log,
	}
	hub.SetForwarder(r.forward)
	return r
}

func (r *RedisRelay) forward(c Change) {
	payload, err := json.Marshal(relayEnvelope{Origin: r.origin, Change: c})
	if err != nil {
		r.log.Error("relay marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn("relay publish failed", zap.Error(err), zap.String("collection", c.Collection))
	}
}

// Run delivers changes published by other instances until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info("live relay subscribed", zap.String("channel", r.channel))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn("relay payload dropped", zap.Error(err))
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			r.hub.deliver(env.Change)
		}
	}
}
