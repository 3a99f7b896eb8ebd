package app

import (
	"context"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/event"
)

// GameRepository stores live games. Update runs fn against the stored game under exclusive
// access and saves the result; it returns domain.ErrConcurrentUpdate when another writer
// won the race.
type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	Load(ctx context.Context, gameID string) (*domain.Game, error)
	FindIDByPIN(ctx context.Context, pin string) (string, error)
	Update(ctx context.Context, gameID string, fn func(*domain.Game) error) (*domain.Game, error)
}

// GameResultRepository persists finished games.
type GameResultRepository interface {
	Append(ctx context.Context, result domain.GameResult) error
}

// AnswerBuffer collects raw answers of the active question outside the game aggregate.
type AnswerBuffer interface {
	Append(ctx context.Context, gameID string, answer domain.Answer) error
	List(ctx context.Context, gameID string) ([]domain.Answer, error)
	Clear(ctx context.Context, gameID string) error
}

// Broadcaster is the shared channel every replica publishes to and listens on.
// The returned cancel func must be called to release the subscription.
type Broadcaster interface {
	Publish(ctx context.Context, msg event.Message) error
	Subscribe(ctx context.Context) (<-chan event.Message, func(), error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}
