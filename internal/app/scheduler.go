package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/event"
	"quiz-game-service/internal/metrics"
	"quiz-game-service/internal/task"
)

// Scheduler arms one timer per game for the automatic transition of its current state.
type Scheduler struct {
	controller *task.Controller
	publisher  *event.Publisher
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
	timeout    time.Duration

	mu     sync.Mutex
	timers map[string]scheduled
	seq    uint64
	closed bool
}

type scheduled struct {
	timer      *time.Timer
	transition task.Transition
	updatedAt  time.Time
	seq        uint64
}

func NewScheduler(controller *task.Controller, publisher *event.Publisher, m *metrics.Metrics, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		controller: controller,
		publisher:  publisher,
		metrics:    m,
		log:        log,
		timeout:    10 * time.Second,
		timers:     make(map[string]scheduled),
	}
}

// Schedule arms the timer for the game's current state. A timer already armed for the same
// state keeps running, and a snapshot older than the scheduled one is ignored.
func (s *Scheduler) Schedule(game *domain.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	transition, ok := s.controller.Next(game)
	if prev, exists := s.timers[game.ID]; exists {
		if game.UpdatedAt.Before(prev.updatedAt) {
			return
		}
		if ok && sameState(prev.transition, transition) {
			prev.updatedAt = game.UpdatedAt
			s.timers[game.ID] = prev
			return
		}
		prev.timer.Stop()
		delete(s.timers, game.ID)
	}
	if !ok {
		return
	}
	s.seq++
	gameID, seq := game.ID, s.seq
	s.timers[gameID] = scheduled{
		timer:      time.AfterFunc(transition.Delay, func() { s.fire(gameID, seq, transition) }),
		transition: transition,
		updatedAt:  game.UpdatedAt,
		seq:        seq,
	}
}

// Cancel stops the pending timer of a game.
func (s *Scheduler) Cancel(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[gameID]; ok {
		prev.timer.Stop()
		delete(s.timers, gameID)
	}
}

// Pending reports whether a timer is armed for the game.
func (s *Scheduler) Pending(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[gameID]
	return ok
}

// Stop cancels every timer; later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, id)
	}
	s.closed = true
}

func (s *Scheduler) fire(gameID string, seq uint64, transition task.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{
		"game_id": gameID,
		"task":    transition.Type,
		"status":  transition.Status,
	})

	game, applied, err := s.controller.Run(ctx, gameID, transition)
	if err != nil {
		log.WithError(err).Error("scheduled transition failed")
		s.forget(gameID, seq)
		return
	}
	if !applied {
		s.metrics.TransitionSkipped(string(transition.Type), string(transition.Status))
		s.forget(gameID, seq)
		return
	}
	s.metrics.TransitionApplied(string(transition.Type), string(transition.Status))
	log.Debug("transition applied")

	s.publisher.Publish(ctx, game)
	s.Schedule(game)
}

// forget drops the entry if no newer transition replaced it.
func (s *Scheduler) forget(gameID string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[gameID]; ok && t.seq == seq {
		delete(s.timers, gameID)
	}
}

func sameState(a, b task.Transition) bool {
	return a.TaskID == b.TaskID && a.Type == b.Type && a.Status == b.Status
}
