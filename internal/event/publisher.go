package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/metrics"
)

// Message is what travels over the shared broadcast channel. Every replica relays it to
// the participant's connection if it holds one.
type Message struct {
	GameID        string          `json:"gameId"`
	ParticipantID string          `json:"participantId"`
	Type          Type            `json:"type"`
	Payload       json.RawMessage `json:"payload"`
}

// NewMessage encodes ev for a participant.
func NewMessage(gameID, participantID string, ev Event) (Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s event: %w", ev.EventType(), err)
	}
	return Message{GameID: gameID, ParticipantID: participantID, Type: ev.EventType(), Payload: payload}, nil
}

// Broadcaster publishes messages to every replica.
type Broadcaster interface {
	Publish(ctx context.Context, msg Message) error
}

// AnswerLister reads the answers buffered for a game.
type AnswerLister interface {
	List(ctx context.Context, gameID string) ([]domain.Answer, error)
}

// Publisher fans the current event of a game out to all participants.
type Publisher struct {
	builder     Builder
	broadcaster Broadcaster
	answers     AnswerLister
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
	concurrency int
}

func NewPublisher(builder Builder, broadcaster Broadcaster, answers AnswerLister, m *metrics.Metrics, log logrus.FieldLogger) *Publisher {
	return &Publisher{
		builder:     builder,
		broadcaster: broadcaster,
		answers:     answers,
		metrics:     m,
		log:         log,
		concurrency: 32,
	}
}

// Publish builds and publishes one event per participant concurrently. A participant
// whose event cannot be built or published is logged and skipped.
func (p *Publisher) Publish(ctx context.Context, game *domain.Game) {
	start := time.Now()
	defer p.metrics.ObservePublish(start)

	meta := p.Metadata(ctx, game)

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, participant := range game.Participants {
		participant := participant
		g.Go(func() error {
			if err := p.publish(ctx, game, participant, meta); err != nil {
				p.log.WithError(err).WithFields(logrus.Fields{
					"game_id":        game.ID,
					"participant_id": participant.ParticipantID(),
				}).Warn("failed to publish participant event")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// PublishParticipantEvent publishes a precomputed event; a nil event is ignored.
func (p *Publisher) PublishParticipantEvent(ctx context.Context, gameID, participantID string, ev Event) error {
	if ev == nil {
		return nil
	}
	msg, err := NewMessage(gameID, participantID, ev)
	if err != nil {
		return err
	}
	if err := p.broadcaster.Publish(ctx, msg); err != nil {
		p.metrics.EventFailed("publish")
		return err
	}
	p.metrics.EventPublished(string(msg.Type))
	return nil
}

// Metadata collects the buffered answer state of an active question.
func (p *Publisher) Metadata(ctx context.Context, game *domain.Game) Metadata {
	meta := Metadata{Answered: map[string]bool{}}
	if !domain.Is(game.CurrentTask, domain.TaskQuestion, domain.TaskActive) || p.answers == nil {
		return meta
	}
	answers, err := p.answers.List(ctx, game.ID)
	if err != nil {
		p.log.WithError(err).WithField("game_id", game.ID).Warn("failed to list answers for event metadata")
		return meta
	}
	for _, a := range answers {
		meta.Answered[a.PlayerID] = true
	}
	meta.AnswerCount = len(meta.Answered)
	return meta
}

func (p *Publisher) publish(ctx context.Context, game *domain.Game, participant domain.Participant, meta Metadata) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.EventFailed("build")
			err = fmt.Errorf("build event: panic: %v", r)
		}
	}()

	ev, err := p.builder.Build(game, participant, meta)
	if err != nil {
		p.metrics.EventFailed("build")
		return fmt.Errorf("build event: %w", err)
	}
	return p.PublishParticipantEvent(ctx, game.ID, participant.ParticipantID(), ev)
}
