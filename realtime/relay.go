package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "technoworld:orders"

// Relay publishes events to a redis channel and feeds every message on that
// channel to the local hub, so each instance's dashboards see all orders.
type Relay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

func NewRelay(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{client: client, channel: channel, hub: hub, log: log.Named("relay")}
}

// Publish sends ev to redis. Local clients receive it through Run.
func (r *Relay) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run forwards channel messages to the hub until ctx ends. ready, if not nil,
// is closed once the subscription is confirmed.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !json.Valid([]byte(msg.Payload)) {
				r.log.Warn("discarding malformed event", zap.String("channel", msg.Channel))
				continue
			}
			if err := r.hub.deliver(ctx, []byte(msg.Payload)); err != nil {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
