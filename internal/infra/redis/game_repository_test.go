package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/event"
	"quiz-game-service/internal/logging"
)

func newGame(id, pin string) *domain.Game {
	return &domain.Game{
		ID:        id,
		PIN:       pin,
		Mode:      domain.ModeClassic,
		Status:    domain.GameActive,
		Questions: sampleQuiz().Questions,
		Participants: []domain.Participant{
			&domain.Host{ID: "host"},
			&domain.Player{ID: "p1", Nickname: "alice"},
		},
		CurrentTask: &domain.LobbyTask{TaskBase: domain.TaskBase{ID: "lobby", Status: domain.TaskActive}},
	}
}

func TestGameRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := startRedis(t)
	repo := NewGameRepository(newClient(mr), time.Hour)

	if err := repo.Create(ctx, newGame("g1", "123456")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newGame("g2", "123456")); !errors.Is(err, domain.ErrPINInUse) {
		t.Fatalf("expected ErrPINInUse, got %v", err)
	}
	if ttl := mr.TTL("game:g1"); ttl != time.Hour {
		t.Fatalf("expected game ttl, got %v", ttl)
	}

	id, err := repo.FindIDByPIN(ctx, "123456")
	if err != nil || id != "g1" {
		t.Fatalf("find by pin: %q %v", id, err)
	}

	game, err := repo.Load(ctx, "g1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := game.CurrentTask.(*domain.LobbyTask); !ok {
		t.Fatalf("expected lobby task, got %T", game.CurrentTask)
	}
	if p, ok := game.Player("p1"); !ok || p.Nickname != "alice" {
		t.Fatalf("player not decoded: %+v", game.Participants)
	}

	if _, err := repo.Load(ctx, "missing"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestGameRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	mr := startRedis(t)
	repo := NewGameRepository(newClient(mr), time.Hour)
	_ = repo.Create(ctx, newGame("g1", "123456"))

	updated, err := repo.Update(ctx, "g1", func(g *domain.Game) error {
		g.Advance(&domain.QuestionTask{TaskBase: domain.TaskBase{ID: "q", Status: domain.TaskPending}})
		g.NextQuestion++
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.NextQuestion != 1 {
		t.Fatalf("expected returned game to carry the change")
	}
	stored, _ := repo.Load(ctx, "g1")
	if len(stored.PreviousTasks) != 1 || stored.CurrentTask.Type() != domain.TaskQuestion {
		t.Fatalf("update not stored: %+v", stored)
	}

	_, err = repo.Update(ctx, "g1", func(g *domain.Game) error { return domain.ErrNotHost })
	if !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected fn error, got %v", err)
	}

	if _, err := repo.Update(ctx, "g1", func(g *domain.Game) error {
		g.Status = domain.GameCompleted
		return nil
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if mr.Exists("game:pin:123456") {
		t.Fatalf("finished game must release its pin")
	}
}

func TestGameRepositoryDetectsConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	mr := startRedis(t)
	client := newClient(mr)
	repo := NewGameRepository(client, time.Hour)
	_ = repo.Create(ctx, newGame("g1", "123456"))

	other := newClient(mr)
	_, err := repo.Update(ctx, "g1", func(g *domain.Game) error {
		// another replica saves in between the read and the write
		_, err := NewGameRepository(other, time.Hour).Update(ctx, "g1", func(g *domain.Game) error {
			g.Name = "other writer"
			return nil
		})
		if err != nil {
			t.Fatalf("inner update: %v", err)
		}
		g.Name = "first writer"
		return nil
	})
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	stored, _ := repo.Load(ctx, "g1")
	if stored.Name != "other writer" {
		t.Fatalf("expected the committed write to win, got %q", stored.Name)
	}
}

func TestAnswerBuffer(t *testing.T) {
	ctx := context.Background()
	mr := startRedis(t)
	buf := NewAnswerBuffer(newClient(mr), time.Hour)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	one, two := 1, 2

	_ = buf.Append(ctx, "g1", domain.Answer{PlayerID: "p2", Value: domain.AnswerValue{Option: &one}, SubmittedAt: base.Add(2 * time.Second)})
	_ = buf.Append(ctx, "g1", domain.Answer{PlayerID: "p1", Value: domain.AnswerValue{Option: &one}, SubmittedAt: base})
	_ = buf.Append(ctx, "g1", domain.Answer{PlayerID: "p1", Value: domain.AnswerValue{Option: &two}, SubmittedAt: base.Add(3 * time.Second)})

	answers, err := buf.List(ctx, "g1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected one answer per player, got %d", len(answers))
	}
	if answers[0].PlayerID != "p2" || answers[1].PlayerID != "p1" || *answers[1].Value.Option != 2 {
		t.Fatalf("unexpected answers %+v", answers)
	}

	if err := buf.Clear(ctx, "g1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("game:g1:answers") {
		t.Fatalf("expected answers key removed")
	}
}

func TestBroadcasterPubSub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mr := startRedis(t)
	b := NewBroadcaster(newClient(mr), "test:events", logging.Discard())

	ch, stop, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	msg, err := event.NewMessage("g1", "p1", event.Loading{})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if err := b.Publish(ctx, msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.GameID != "g1" || got.ParticipantID != "p1" || got.Type != event.TypeLoading {
			t.Fatalf("unexpected message %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message not received")
	}

	stop()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected channel closed after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription not released")
	}
}
