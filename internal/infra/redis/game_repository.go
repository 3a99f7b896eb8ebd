package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-game-service/internal/domain"
)

// GameRepository stores each game as one JSON document and guards updates with
// WATCH/MULTI/EXEC, so replicas sharing the Redis instance never interleave a
// load-mutate-save of the same game.
//
//	game:{id}        game document, expires after ttl of inactivity
//	game:pin:{pin}   id of the active game holding the PIN
type GameRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameRepository(client *redis.Client, ttl time.Duration) *GameRepository {
	return &GameRepository{client: client, ttl: ttl}
}

func (r *GameRepository) Create(ctx context.Context, game *domain.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	claimed, err := r.client.SetNX(ctx, pinKey(game.PIN), game.ID, r.ttl).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return domain.ErrPINInUse
	}
	if err := r.client.Set(ctx, gameKey(game.ID), data, r.ttl).Err(); err != nil {
		r.client.Del(ctx, pinKey(game.PIN))
		return err
	}
	return nil
}

func (r *GameRepository) Load(ctx context.Context, gameID string) (*domain.Game, error) {
	data, err := r.client.Get(ctx, gameKey(gameID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrGameNotFound
		}
		return nil, err
	}
	return decodeGame(data)
}

func (r *GameRepository) FindIDByPIN(ctx context.Context, pin string) (string, error) {
	id, err := r.client.Get(ctx, pinKey(pin)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrGameNotFound
		}
		return "", err
	}
	return id, nil
}

// Update returns domain.ErrConcurrentUpdate when the game changed between the read and
// the write.
func (r *GameRepository) Update(ctx context.Context, gameID string, fn func(*domain.Game) error) (*domain.Game, error) {
	key := gameKey(gameID)
	var game *domain.Game

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrGameNotFound
			}
			return err
		}
		g, err := decodeGame(data)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		out, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("encode game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			if g.Status == domain.GameActive {
				pipe.Expire(ctx, pinKey(g.PIN), r.ttl)
			} else {
				pipe.Del(ctx, pinKey(g.PIN))
			}
			return nil
		})
		if err != nil {
			return err
		}
		game = g
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, domain.ErrConcurrentUpdate
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

func decodeGame(data []byte) (*domain.Game, error) {
	var game domain.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &game, nil
}

func gameKey(gameID string) string {
	return "game:" + gameID
}

func pinKey(pin string) string {
	return "game:pin:" + pin
}
