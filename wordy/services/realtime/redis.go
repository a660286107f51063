package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"wordy/wordy/utils/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroadcaster shares rooms between server processes: Publish goes to a
// Redis channel and every subscribed process, this one included, hands the
// frame to its local Hub.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	local   *Hub

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisBroadcaster(redisURL, channel string, local *Hub) (*RedisBroadcaster, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisBroadcaster{client: client, channel: channel, local: local}, nil
}

func (b *RedisBroadcaster) Publish(ctx context.Context, room, event string, payload any) error {
	data, err := encode(room, event, payload)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event, room, err)
	}
	return nil
}

// Start subscribes to the channel and relays frames into the local Hub
// until ctx ends or Close is called. It returns once the subscription is
// confirmed.
func (b *RedisBroadcaster) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	b.mu.Lock()
	b.pubsub = pubsub
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.relay(ctx, pubsub, b.done)
	logging.AppLogger.Info("Relaying realtime events through redis", zap.String("channel", b.channel))
	return nil
}

func (b *RedisBroadcaster) relay(ctx context.Context, pubsub *redis.PubSub, done chan struct{}) {
	defer close(done)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var frame Message
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				logging.ErrorLogger.Error("malformed realtime frame", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			b.local.Deliver(frame.Room, []byte(msg.Payload))
		}
	}
}

func (b *RedisBroadcaster) Close() error {
	b.mu.Lock()
	pubsub, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()

	if pubsub != nil {
		pubsub.Close()
		<-done
	}
	return b.client.Close()
}
