package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Bridge relays hub events through a Redis pub/sub channel so that multiple
// API instances fan events out to their own websocket clients. Without a
// Redis client it degrades to local-only delivery.
type Bridge struct {
	hub      *Hub
	rdb      *redis.Client
	channel  string
	instance string
	log      zerolog.Logger
}

type bridgeEnvelope struct {
	Instance string          `json:"instance"`
	Topic    string          `json:"topic"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
}

func NewBridge(hub *Hub, rdb *redis.Client, channel string, log zerolog.Logger) *Bridge {
	if channel == "" {
		channel = "campustrade:events"
	}
	return &Bridge{
		hub:      hub,
		rdb:      rdb,
		channel:  channel,
		instance: uuid.NewString(),
		log:      log,
	}
}

// Publish delivers locally and, when Redis is configured, to peers.
func (b *Bridge) Publish(topic, event string, payload interface{}) {
	b.hub.Publish(topic, event, payload)
	if b.rdb == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Error().Err(err).Str("event", event).Msg("marshal bridge payload")
		return
	}
	env := bridgeEnvelope{Instance: b.instance, Topic: topic, Event: event, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		b.log.Error().Err(err).Msg("marshal bridge envelope")
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, data).Err(); err != nil {
		b.log.Warn().Err(err).Msg("redis publish failed, event delivered locally only")
	}
}

// Run subscribes to the Redis channel and re-injects peer events into the
// local hub until ctx is cancelled. Own events are skipped by instance id.
func (b *Bridge) Run(ctx context.Context) {
	if b.rdb == nil {
		return
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env bridgeEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn().Err(err).Msg("bad bridge envelope")
				continue
			}
			if env.Instance == b.instance {
				continue
			}
			b.hub.Publish(env.Topic, env.Event, env.Payload)
		}
	}
}
