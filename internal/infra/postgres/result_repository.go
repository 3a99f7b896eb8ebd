package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-game-service/internal/domain"
)

type gameResultModel struct {
	bun.BaseModel `bun:"table:game_results,alias:gr"`

	GameID    string                `bun:"game_id,pk"`
	QuizID    string                `bun:"quiz_id,notnull"`
	Name      string                `bun:"name,notnull"`
	Mode      string                `bun:"mode,notnull"`
	HostID    string                `bun:"host_id,notnull"`
	Questions int                   `bun:"questions,notnull"`
	Players   []domain.PlayerResult `bun:"players,type:jsonb,notnull"`
	CreatedAt time.Time             `bun:"created_at,notnull"`
	EndedAt   time.Time             `bun:"ended_at,notnull"`
}

// ResultRepository persists finished games with bun.
type ResultRepository struct {
	db *bun.DB
}

func NewResultRepository(db *bun.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Append stores a result once; a replayed append for the same game is ignored.
func (r *ResultRepository) Append(ctx context.Context, result domain.GameResult) error {
	model := &gameResultModel{
		GameID:    result.GameID,
		QuizID:    result.QuizID,
		Name:      result.Name,
		Mode:      string(result.Mode),
		HostID:    result.HostID,
		Questions: result.Questions,
		Players:   result.Players,
		CreatedAt: result.CreatedAt,
		EndedAt:   result.EndedAt,
	}
	if model.Players == nil {
		model.Players = []domain.PlayerResult{}
	}
	if _, err := r.db.NewInsert().Model(model).On("CONFLICT (game_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("append game result: %w", err)
	}
	return nil
}

// ListByQuiz returns the most recent results of a quiz.
func (r *ResultRepository) ListByQuiz(ctx context.Context, quizID string, limit int) ([]domain.GameResult, error) {
	var models []gameResultModel
	err := r.db.NewSelect().
		Model(&models).
		Where("quiz_id = ?", quizID).
		Order("ended_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list game results: %w", err)
	}
	out := make([]domain.GameResult, 0, len(models))
	for _, m := range models {
		out = append(out, domain.GameResult{
			GameID:    m.GameID,
			QuizID:    m.QuizID,
			Name:      m.Name,
			Mode:      domain.GameMode(m.Mode),
			HostID:    m.HostID,
			Players:   m.Players,
			Questions: m.Questions,
			CreatedAt: m.CreatedAt,
			EndedAt:   m.EndedAt,
		})
	}
	return out, nil
}
