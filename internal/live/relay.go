package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRelayChannel is the Redis channel change notices travel on.
const DefaultRelayChannel = "lumiere:changes"

type changeNotice struct {
	Origin     string     `json:"origin"`
	Collection Collection `json:"collection"`
	At         int64      `json:"at"`
}

// Relay carries change notices between instances over Redis pub/sub, so
// every instance's hubs refresh after a write on any of them.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	broker  *Broker
}

// NewRelay connects to the Redis server at url.
func NewRelay(ctx context.Context, url, channel string, broker *Broker) (*Relay, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &Relay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		broker:  broker,
	}, nil
}

// Publish announces a local change.
func (r *Relay) Publish(ctx context.Context, c Collection) error {
	data, err := json.Marshal(changeNotice{Origin: r.origin, Collection: c, At: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encoding change notice: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing change notice: %w", err)
	}
	return nil
}

// Run refreshes local hubs on notices from other instances until ctx is
// done.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}
	slog.Info("relay subscribed", "channel", r.channel, "origin", r.origin)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) {
	var n changeNotice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		slog.Warn("ignoring malformed change notice", "error", err)
		return
	}
	if n.Origin == r.origin {
		return
	}
	if err := r.broker.Refresh(ctx, n.Collection); err != nil {
		slog.Error("refreshing after remote change", "collection", n.Collection, "error", err)
	}
}

// Close closes the Redis connection.
func (r *Relay) Close() error {
	return r.client.Close()
}
