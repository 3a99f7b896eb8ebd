package memory

import (
	"context"
	"sync"

	"quiz-game-service/internal/domain"
)

// GameRepository keeps games in process. Each game has its own mutex, so updates of one
// game are serialized while different games proceed in parallel. Stored values are deep
// copies; callers never share state with the store.
type GameRepository struct {
	mu    sync.RWMutex
	games map[string]*gameEntry
	pins  map[string]string
}

type gameEntry struct {
	mu   sync.Mutex
	game *domain.Game
}

func NewGameRepository() *GameRepository {
	return &GameRepository{
		games: make(map[string]*gameEntry),
		pins:  make(map[string]string),
	}
}

func (r *GameRepository) Create(_ context.Context, game *domain.Game) error {
	stored, err := game.Clone()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.pins[game.PIN]; ok && owner != game.ID {
		if entry := r.games[owner]; entry != nil && r.liveLocked(entry) {
			return domain.ErrPINInUse
		}
	}
	r.games[game.ID] = &gameEntry{game: stored}
	r.pins[game.PIN] = game.ID
	return nil
}

func (r *GameRepository) Load(_ context.Context, gameID string) (*domain.Game, error) {
	entry, ok := r.entry(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.game.Clone()
}

// FindIDByPIN only resolves PINs of active games.
func (r *GameRepository) FindIDByPIN(_ context.Context, pin string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pins[pin]
	if !ok {
		return "", domain.ErrGameNotFound
	}
	entry := r.games[id]
	if entry == nil || !r.liveLocked(entry) {
		return "", domain.ErrGameNotFound
	}
	return id, nil
}

// Update runs fn on a copy of the game while holding the game's lock and stores the copy
// if fn succeeds.
func (r *GameRepository) Update(_ context.Context, gameID string, fn func(*domain.Game) error) (*domain.Game, error) {
	entry, ok := r.entry(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	working, err := entry.game.Clone()
	if err != nil {
		return nil, err
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	stored, err := working.Clone()
	if err != nil {
		return nil, err
	}
	entry.game = stored
	return working, nil
}

// Delete drops a game and its PIN.
func (r *GameRepository) Delete(_ context.Context, gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.games[gameID]
	if !ok {
		return
	}
	delete(r.games, gameID)
	entry.mu.Lock()
	pin := entry.game.PIN
	entry.mu.Unlock()
	if r.pins[pin] == gameID {
		delete(r.pins, pin)
	}
}

func (r *GameRepository) entry(gameID string) (*gameEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.games[gameID]
	return entry, ok
}

func (r *GameRepository) liveLocked(entry *gameEntry) bool {
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.game.Status == domain.GameActive
}
