package app

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/metrics"
)

// retryingGames retries exclusive updates that lost an optimistic race.
type retryingGames struct {
	GameRepository
	maxRetries uint64
	metrics    *metrics.Metrics
}

func (r retryingGames) Update(ctx context.Context, gameID string, fn func(*domain.Game) error) (*domain.Game, error) {
	var game *domain.Game
	op := func() error {
		g, err := r.GameRepository.Update(ctx, gameID, fn)
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			r.metrics.Conflict()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		game = g
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx)); err != nil {
		return nil, err
	}
	return game, nil
}
