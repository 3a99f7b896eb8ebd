package memory

import (
	"context"
	"sync"

	"quiz-game-service/internal/domain"
)

// ResultStore records finished games in process.
type ResultStore struct {
	mu      sync.Mutex
	results []domain.GameResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Append(_ context.Context, result domain.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns a copy of everything appended so far.
func (s *ResultStore) Results() []domain.GameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GameResult(nil), s.results...)
}
