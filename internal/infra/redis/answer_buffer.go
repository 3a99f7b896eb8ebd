package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-game-service/internal/domain"
)

// AnswerBuffer keeps answers in a hash per game keyed by player id, so a later submission
// replaces the earlier one.
//
//	game:{id}:answers  {playerID} -> answer json
type AnswerBuffer struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnswerBuffer(client *redis.Client, ttl time.Duration) *AnswerBuffer {
	return &AnswerBuffer{client: client, ttl: ttl}
}

func (b *AnswerBuffer) Append(ctx context.Context, gameID string, answer domain.Answer) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	key := answersKey(gameID)
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, key, answer.PlayerID, data)
	if b.ttl > 0 {
		pipe.Expire(ctx, key, b.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the buffered answers ordered by submission time.
func (b *AnswerBuffer) List(ctx context.Context, gameID string) ([]domain.Answer, error) {
	raw, err := b.client.HGetAll(ctx, answersKey(gameID)).Result()
	if err != nil {
		return nil, err
	}
	answers := make([]domain.Answer, 0, len(raw))
	for playerID, data := range raw {
		var a domain.Answer
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("decode answer of %s: %w", playerID, err)
		}
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool {
		if !answers[i].SubmittedAt.Equal(answers[j].SubmittedAt) {
			return answers[i].SubmittedAt.Before(answers[j].SubmittedAt)
		}
		return answers[i].PlayerID < answers[j].PlayerID
	})
	return answers, nil
}

func (b *AnswerBuffer) Clear(ctx context.Context, gameID string) error {
	return b.client.Del(ctx, answersKey(gameID)).Err()
}

func answersKey(gameID string) string {
	return "game:" + gameID + ":answers"
}
