package memory

import (
	"context"
	"sync"

	"quiz-game-service/internal/domain"
)

// AnswerBuffer keeps the latest answer per player for each game.
type AnswerBuffer struct {
	mu      sync.Mutex
	answers map[string]map[string]domain.Answer
	order   map[string][]string
}

func NewAnswerBuffer() *AnswerBuffer {
	return &AnswerBuffer{
		answers: make(map[string]map[string]domain.Answer),
		order:   make(map[string][]string),
	}
}

func (b *AnswerBuffer) Append(_ context.Context, gameID string, answer domain.Answer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	byPlayer, ok := b.answers[gameID]
	if !ok {
		byPlayer = make(map[string]domain.Answer)
		b.answers[gameID] = byPlayer
	}
	if _, seen := byPlayer[answer.PlayerID]; !seen {
		b.order[gameID] = append(b.order[gameID], answer.PlayerID)
	}
	byPlayer[answer.PlayerID] = answer
	return nil
}

// List returns the answers in first submission order.
func (b *AnswerBuffer) List(_ context.Context, gameID string) ([]domain.Answer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Answer, 0, len(b.order[gameID]))
	for _, playerID := range b.order[gameID] {
		out = append(out, b.answers[gameID][playerID])
	}
	return out, nil
}

func (b *AnswerBuffer) Clear(_ context.Context, gameID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.answers, gameID)
	delete(b.order, gameID)
	return nil
}
