package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/event"
	"quiz-game-service/internal/metrics"
	"quiz-game-service/internal/task"
)

const (
	maxNicknameLength = 20
	pinAttempts       = 5
)

// Dependencies are the collaborators a GameService is wired with.
type Dependencies struct {
	Games       GameRepository
	Answers     AnswerBuffer
	Results     GameResultRepository
	Quizzes     QuizRepository
	Broadcaster Broadcaster
	Metrics     *metrics.Metrics
	Log         logrus.FieldLogger
}

// Options tune the game flow.
type Options struct {
	Timing     task.Timing
	MaxRetries uint64
}

// GameService contains the live game use cases. Every mutation goes through an exclusive
// repository update, then the new state is published and the next transition scheduled.
type GameService struct {
	games      GameRepository
	answers    AnswerBuffer
	quizzes    QuizRepository
	controller *task.Controller
	events     event.Builder
	publisher  *event.Publisher
	scheduler  *Scheduler
	log        logrus.FieldLogger

	now    func() time.Time
	newID  func() string
	newPIN func() (string, error)
}

func NewGameService(deps Dependencies, opts Options) *GameService {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	games := retryingGames{GameRepository: deps.Games, maxRetries: opts.MaxRetries, metrics: deps.Metrics}
	controller := task.NewController(task.NewBuilder(), opts.Timing, games, deps.Answers, deps.Results, deps.Log).
		WithMetrics(deps.Metrics)
	orchestrator := event.NewOrchestrator(opts.Timing)
	publisher := event.NewPublisher(orchestrator, deps.Broadcaster, deps.Answers, deps.Metrics, deps.Log)

	return &GameService{
		games:      games,
		answers:    deps.Answers,
		quizzes:    deps.Quizzes,
		controller: controller,
		events:     orchestrator,
		publisher:  publisher,
		scheduler:  NewScheduler(controller, publisher, deps.Metrics, deps.Log),
		log:        deps.Log,
		now:        time.Now,
		newID:      uuid.NewString,
		newPIN:     randomPIN,
	}
}

// Scheduler exposes the transition timers, mainly for shutdown.
func (s *GameService) Scheduler() *Scheduler { return s.scheduler }

// CreateGame starts a lobby for the quiz with hostID as host.
func (s *GameService) CreateGame(ctx context.Context, quizID, hostID string, mode domain.GameMode) (*domain.Game, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("quiz %s has no questions: %w", quizID, domain.ErrQuestionNotFound)
	}
	if mode == "" {
		mode = quiz.Mode
	}
	if mode == "" {
		mode = domain.ModeClassic
	}
	if err := mode.SupportsQuestions(quiz.Questions); err != nil {
		return nil, err
	}
	if hostID == "" {
		hostID = s.newID()
	}

	now := s.now()
	game := &domain.Game{
		ID:           s.newID(),
		Name:         quiz.Title,
		QuizID:       quiz.ID,
		Mode:         mode,
		Status:       domain.GameActive,
		Questions:    quiz.Questions,
		Participants: []domain.Participant{&domain.Host{ID: hostID, CreatedAt: now, UpdatedAt: now}},
		CurrentTask:  s.controller.Builder().BuildLobbyTask(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for attempt := 0; ; attempt++ {
		if game.PIN, err = s.newPIN(); err != nil {
			return nil, err
		}
		err = s.games.Create(ctx, game)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrPINInUse) || attempt+1 >= pinAttempts {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{"game_id": game.ID, "quiz_id": quizID, "mode": mode}).Info("game created")
	s.afterUpdate(ctx, game)
	return game, nil
}

// JoinGame adds a player to the lobby of the game with the given PIN. Joining again with the
// same player id returns the existing player.
func (s *GameService) JoinGame(ctx context.Context, pin, playerID, nickname string) (*domain.Game, *domain.Player, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameLength {
		return nil, nil, domain.ErrInvalidNickname
	}
	gameID, err := s.games.FindIDByPIN(ctx, pin)
	if err != nil {
		return nil, nil, err
	}
	if playerID == "" {
		playerID = s.newID()
	}

	var player *domain.Player
	game, err := s.games.Update(ctx, gameID, func(g *domain.Game) error {
		if g.Status != domain.GameActive {
			return domain.ErrGameNotActive
		}
		if existing, ok := g.Player(playerID); ok {
			player = existing
			return nil
		}
		if _, ok := g.CurrentTask.(*domain.LobbyTask); !ok {
			return domain.NewIllegalTaskTypeError(g.CurrentTask, domain.TaskLobby)
		}
		if _, taken := g.Participant(playerID); taken {
			playerID = s.newID()
		}
		for _, p := range g.Players() {
			if strings.EqualFold(p.Nickname, nickname) {
				return domain.ErrNicknameTaken
			}
		}
		now := s.now()
		player = &domain.Player{ID: playerID, Nickname: nickname, CreatedAt: now, UpdatedAt: now}
		g.Participants = append(g.Participants, player)
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.publisher.Publish(ctx, game)
	return game, player, nil
}

// LeaveGame removes a player. The host leaving ends the game.
func (s *GameService) LeaveGame(ctx context.Context, gameID, participantID string) error {
	game, err := s.games.Update(ctx, gameID, func(g *domain.Game) error {
		p, ok := g.Participant(participantID)
		if !ok {
			return domain.ErrParticipantNotFound
		}
		if _, host := p.(*domain.Host); host {
			s.controller.Quit(g)
			return nil
		}
		g.RemoveParticipant(participantID)
		g.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return err
	}
	s.afterUpdate(ctx, game)
	return nil
}

// SubmitAnswer buffers a player's answer for the active question. Once every player has
// answered, the question completes early.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID, playerID string, value domain.AnswerValue) error {
	game, err := s.games.Load(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != domain.GameActive {
		return domain.ErrGameNotActive
	}
	question, ok := game.CurrentTask.(*domain.QuestionTask)
	if !ok {
		return domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestion)
	}
	if question.Status != domain.TaskActive {
		return domain.ErrIllegalTaskStatus
	}
	if _, ok := game.Player(playerID); !ok {
		return domain.ErrParticipantNotFound
	}
	q, err := game.Question(question.QuestionIndex)
	if err != nil {
		return err
	}
	if !value.Matches(q.Type) {
		return domain.ErrInvalidAnswer
	}

	answer := domain.Answer{Type: q.Type, PlayerID: playerID, Value: value, SubmittedAt: s.now()}
	if err := s.answers.Append(ctx, gameID, answer); err != nil {
		return fmt.Errorf("buffer answer: %w", err)
	}

	meta := s.publisher.Metadata(ctx, game)
	if meta.AnswerCount >= len(game.Players()) {
		expected := task.Transition{TaskID: question.ID, Type: domain.TaskQuestion, Status: domain.TaskActive}
		updated, applied, err := s.controller.Run(ctx, gameID, expected)
		if err != nil {
			return err
		}
		if applied {
			s.afterUpdate(ctx, updated)
			return nil
		}
	}

	for _, id := range []string{hostID(game), playerID} {
		if id == "" {
			continue
		}
		participant, _ := game.Participant(id)
		ev, err := s.events.Build(game, participant, meta)
		if err != nil {
			s.log.WithError(err).WithField("game_id", gameID).Warn("failed to build answer event")
			continue
		}
		if err := s.publisher.PublishParticipantEvent(ctx, gameID, id, ev); err != nil {
			s.log.WithError(err).WithField("game_id", gameID).Warn("failed to publish answer event")
		}
	}
	return nil
}

// CompleteTask lets the host complete the current active task.
func (s *GameService) CompleteTask(ctx context.Context, gameID, participantID string) (*domain.Game, error) {
	game, err := s.hostUpdate(ctx, gameID, participantID, func(g *domain.Game) error {
		current := g.CurrentTask
		switch current.(type) {
		case *domain.LobbyTask, *domain.QuestionTask, *domain.QuestionResultTask, *domain.LeaderboardTask, *domain.PodiumTask:
		default:
			return domain.NewIllegalTaskTypeError(current,
				domain.TaskLobby, domain.TaskQuestion, domain.TaskQuestionResult, domain.TaskLeaderboard, domain.TaskPodium)
		}
		if current.Base().Status != domain.TaskActive {
			return fmt.Errorf("%s is %s: %w", current.Type(), current.Base().Status, domain.ErrIllegalTaskStatus)
		}
		current.Base().Status = domain.TaskCompleted
		g.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterUpdate(ctx, game)
	return game, nil
}

// AddCorrectAnswer accepts an additional answer for the question result on screen and
// rescores it.
func (s *GameService) AddCorrectAnswer(ctx context.Context, gameID, participantID string, answer domain.CorrectAnswer) (*domain.Game, error) {
	return s.editCorrectAnswers(ctx, gameID, participantID, answer, func(accepted []domain.CorrectAnswer, i int) []domain.CorrectAnswer {
		if i >= 0 {
			return accepted
		}
		return append(accepted, answer)
	})
}

// DeleteCorrectAnswer stops accepting an answer for the question result on screen and
// rescores it.
func (s *GameService) DeleteCorrectAnswer(ctx context.Context, gameID, participantID string, answer domain.CorrectAnswer) (*domain.Game, error) {
	return s.editCorrectAnswers(ctx, gameID, participantID, answer, func(accepted []domain.CorrectAnswer, i int) []domain.CorrectAnswer {
		if i < 0 {
			return accepted
		}
		return append(accepted[:i], accepted[i+1:]...)
	})
}

func (s *GameService) editCorrectAnswers(ctx context.Context, gameID, participantID string, answer domain.CorrectAnswer,
	edit func(accepted []domain.CorrectAnswer, index int) []domain.CorrectAnswer) (*domain.Game, error) {
	game, err := s.hostUpdate(ctx, gameID, participantID, func(g *domain.Game) error {
		result, ok := g.CurrentTask.(*domain.QuestionResultTask)
		if !ok {
			return domain.NewIllegalTaskTypeError(g.CurrentTask, domain.TaskQuestionResult)
		}
		if result.Status != domain.TaskActive {
			return domain.ErrIllegalTaskStatus
		}
		q, err := g.Question(result.QuestionIndex)
		if err != nil {
			return err
		}
		if answer.Type != q.Type || !answer.Value.Matches(q.Type) {
			return domain.ErrInvalidAnswer
		}

		index := -1
		for i, accepted := range result.CorrectAnswers {
			if reflect.DeepEqual(accepted, answer) {
				index = i
				break
			}
		}
		result.CorrectAnswers = edit(result.CorrectAnswers, index)

		rebuilt, err := s.controller.Builder().RebuildQuestionResultTask(g)
		if err != nil {
			return err
		}
		g.CurrentTask = rebuilt
		g.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, game)
	return game, nil
}

// QuitGame ends the game from any task.
func (s *GameService) QuitGame(ctx context.Context, gameID, participantID string) (*domain.Game, error) {
	game, err := s.hostUpdate(ctx, gameID, participantID, func(g *domain.Game) error {
		s.controller.Quit(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"game_id": gameID, "status": game.Status}).Info("game quit")
	s.afterUpdate(ctx, game)
	return game, nil
}

// CurrentEvent returns the event a (re)connecting participant should see.
func (s *GameService) CurrentEvent(ctx context.Context, gameID, participantID string) (event.Event, error) {
	game, err := s.games.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	participant, ok := game.Participant(participantID)
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	return s.events.Build(game, participant, s.publisher.Metadata(ctx, game))
}

// Resume re-arms the transition timer of a stored game, e.g. after a restart.
func (s *GameService) Resume(ctx context.Context, gameID string) error {
	game, err := s.games.Load(ctx, gameID)
	if err != nil {
		return err
	}
	s.scheduler.Schedule(game)
	return nil
}

func (s *GameService) hostUpdate(ctx context.Context, gameID, participantID string, fn func(*domain.Game) error) (*domain.Game, error) {
	return s.games.Update(ctx, gameID, func(g *domain.Game) error {
		if g.Status != domain.GameActive {
			return domain.ErrGameNotActive
		}
		p, ok := g.Participant(participantID)
		if !ok {
			return domain.ErrParticipantNotFound
		}
		if _, host := p.(*domain.Host); !host {
			return domain.ErrNotHost
		}
		return fn(g)
	})
}

func (s *GameService) afterUpdate(ctx context.Context, game *domain.Game) {
	s.publisher.Publish(ctx, game)
	if game.Status != domain.GameActive {
		s.scheduler.Cancel(game.ID)
		return
	}
	s.scheduler.Schedule(game)
}

func hostID(game *domain.Game) string {
	if h := game.Host(); h != nil {
		return h.ID
	}
	return ""
}

func randomPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
