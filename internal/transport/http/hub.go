package http

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/event"
)

type connKey struct {
	gameID        string
	participantID string
}

// client is one websocket connection's outbound queue.
type client struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func newClient() *client {
	return &client{
		send: make(chan outboundMessage[any], 16),
		done: make(chan struct{}),
	}
}

// enqueue never blocks: when the queue is full the oldest message is dropped, since only
// the latest state matters to a client.
func (c *client) enqueue(msg outboundMessage[any]) {
	for {
		select {
		case c.send <- msg:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// Hub routes broadcast messages to the connections held by this replica.
type Hub struct {
	log logrus.FieldLogger

	mu      sync.RWMutex
	clients map[connKey]map[*client]struct{}
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{log: log, clients: make(map[connKey]map[*client]struct{})}
}

// Run delivers messages until ctx is done or the subscription closes.
func (h *Hub) Run(ctx context.Context, messages <-chan event.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				h.log.Warn("broadcast subscription closed")
				return
			}
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg event.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[connKey{msg.GameID, msg.ParticipantID}] {
		c.enqueue(outboundMessage[any]{Type: string(msg.Type), Payload: msg.Payload})
	}
}

func (h *Hub) register(gameID, participantID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := connKey{gameID, participantID}
	if h.clients[key] == nil {
		h.clients[key] = make(map[*client]struct{})
	}
	h.clients[key][c] = struct{}{}
}

func (h *Hub) unregister(gameID, participantID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := connKey{gameID, participantID}
	delete(h.clients[key], c)
	if len(h.clients[key]) == 0 {
		delete(h.clients, key)
	}
}

// Connections reports how many sockets are open for a participant.
func (h *Hub) Connections(gameID, participantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[connKey{gameID, participantID}])
}
