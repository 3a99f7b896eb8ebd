package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/event"
)

// Broadcaster publishes participant messages on one shared channel that every replica
// subscribes to.
type Broadcaster struct {
	client  *redis.Client
	channel string
	log     logrus.FieldLogger
}

func NewBroadcaster(client *redis.Client, channel string, log logrus.FieldLogger) *Broadcaster {
	if channel == "" {
		channel = "quiz:events"
	}
	return &Broadcaster{client: client, channel: channel, log: log}
}

func (b *Broadcaster) Publish(ctx context.Context, msg event.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Subscribe returns once the subscription is confirmed, so nothing published afterwards
// is missed.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan event.Message, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	messages := pubsub.Channel()
	out := make(chan event.Message, 256)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case raw, ok := <-messages:
				if !ok {
					return
				}
				var msg event.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.log.WithError(err).Warn("dropping malformed broadcast message")
					continue
				}
				select {
				case out <- msg:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	context.AfterFunc(ctx, cancel)
	return out, cancel, nil
}
