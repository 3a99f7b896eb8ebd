package memory

import (
	"context"
	"sync"

	"quiz-game-service/internal/event"
)

// Broadcaster fans messages out to in-process subscribers. A slow subscriber loses its
// oldest pending message instead of blocking the publisher.
type Broadcaster struct {
	mu          sync.Mutex
	buffer      int
	subscribers map[chan event.Message]struct{}
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{
		buffer:      buffer,
		subscribers: make(map[chan event.Message]struct{}),
	}
}

func (b *Broadcaster) Publish(_ context.Context, msg event.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
	return nil
}

// Subscribe registers a subscriber; it is released by the returned cancel func or when ctx
// is done.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan event.Message, func(), error) {
	ch := make(chan event.Message, b.buffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
	context.AfterFunc(ctx, cancel)
	return ch, cancel, nil
}
