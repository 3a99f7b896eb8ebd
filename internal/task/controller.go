package task

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/leaderboard"
	"quiz-game-service/internal/metrics"
)

// resultRetries bounds the attempts to persist a final game result once the game state
// has committed.
const resultRetries = 3

// GameStore runs fn against the stored game inside one exclusive critical section.
type GameStore interface {
	Update(ctx context.Context, gameID string, fn func(*domain.Game) error) (*domain.Game, error)
}

// AnswerStore is the buffer of raw answers collected during an active question.
type AnswerStore interface {
	List(ctx context.Context, gameID string) ([]domain.Answer, error)
	Clear(ctx context.Context, gameID string) error
}

// ResultStore persists final game results.
type ResultStore interface {
	Append(ctx context.Context, result domain.GameResult) error
}

// Transition identifies the state an automatic step was scheduled for.
type Transition struct {
	TaskID string
	Type   domain.TaskType
	Status domain.TaskStatus
	Delay  time.Duration
}

// Matches reports whether the game is still in the state the transition was scheduled for.
func (t Transition) Matches(game *domain.Game) bool {
	current := game.CurrentTask
	return current != nil &&
		current.Base().ID == t.TaskID &&
		current.Type() == t.Type &&
		current.Base().Status == t.Status
}

// Effect reports what Apply did and which side effects must follow the save.
type Effect struct {
	Applied      bool
	ClearAnswers bool
	Result       *domain.GameResult
}

// Controller owns the task state machine.
type Controller struct {
	builder *Builder
	timing  Timing
	now     func() time.Time

	games   GameStore
	answers AnswerStore
	results ResultStore
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

func NewController(builder *Builder, timing Timing, games GameStore, answers AnswerStore, results ResultStore, log logrus.FieldLogger) *Controller {
	return &Controller{
		builder: builder,
		timing:  timing,
		now:     time.Now,
		games:   games,
		answers: answers,
		results: results,
		log:     log,
	}
}

// WithClock replaces the controller clock; used by tests.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// WithMetrics records lost game results on m.
func (c *Controller) WithMetrics(m *metrics.Metrics) *Controller {
	c.metrics = m
	return c
}

func (c *Controller) Builder() *Builder { return c.builder }

// Next returns the automatic transition for the game's current state, if any.
func (c *Controller) Next(game *domain.Game) (Transition, bool) {
	if game.Status != domain.GameActive {
		return Transition{}, false
	}
	delay, ok := c.timing.Delay(game)
	if !ok {
		return Transition{}, false
	}
	return Transition{
		TaskID: game.CurrentTask.Base().ID,
		Type:   game.CurrentTask.Type(),
		Status: game.CurrentTask.Base().Status,
		Delay:  delay,
	}, true
}

// Run applies the transition to the stored game under exclusive access. A transition
// whose state has already moved on is a no-op and reports applied=false.
func (c *Controller) Run(ctx context.Context, gameID string, expected Transition) (*domain.Game, bool, error) {
	var effect Effect
	game, err := c.games.Update(ctx, gameID, func(g *domain.Game) error {
		effect = Effect{}
		var answers []domain.Answer
		if expected.Matches(g) && domain.Is(g.CurrentTask, domain.TaskQuestion, domain.TaskCompleted) {
			var err error
			if answers, err = c.answers.List(ctx, gameID); err != nil {
				return fmt.Errorf("list answers: %w", err)
			}
		}
		var err error
		effect, err = c.Apply(g, expected, answers)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if !effect.Applied {
		c.log.WithFields(logrus.Fields{
			"game_id": gameID,
			"task":    expected.Type,
			"status":  expected.Status,
		}).Debug("skipping stale transition")
		return game, false, nil
	}

	if effect.ClearAnswers {
		if err := c.answers.Clear(ctx, gameID); err != nil {
			c.log.WithError(err).WithField("game_id", gameID).Warn("failed to clear answers")
		}
	}
	if effect.Result != nil {
		if err := c.appendResult(ctx, *effect.Result); err != nil {
			c.metrics.ResultLost()
			c.log.WithError(err).WithField("game_id", gameID).Error("failed to persist game result")
		}
	}
	return game, true, nil
}

func (c *Controller) appendResult(ctx context.Context, result domain.GameResult) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second
	return backoff.Retry(func() error {
		return c.results.Append(ctx, result)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, resultRetries), ctx))
}

// Apply mutates game for the expected transition. answers are the buffered raw answers and
// are only used when a question completes.
func (c *Controller) Apply(game *domain.Game, expected Transition, answers []domain.Answer) (Effect, error) {
	if !expected.Matches(game) {
		return Effect{}, nil
	}
	effect := Effect{Applied: true}
	status := game.CurrentTask.Base().Status

	var err error
	switch task := game.CurrentTask.(type) {
	case *domain.LobbyTask:
		switch status {
		case domain.TaskPending:
			task.Status = domain.TaskActive
		case domain.TaskCompleted:
			err = c.LobbyCompleted(game)
		default:
			return Effect{}, nil
		}
	case *domain.QuestionTask:
		switch status {
		case domain.TaskPending:
			err = c.QuestionPending(game)
			effect.ClearAnswers = true
		case domain.TaskActive:
			task.Status = domain.TaskCompleted
		case domain.TaskCompleted:
			err = c.QuestionCompleted(game, answers)
			effect.ClearAnswers = true
		}
	case *domain.QuestionResultTask:
		if status != domain.TaskCompleted {
			return Effect{}, nil
		}
		effect.Result, err = c.QuestionResultCompleted(game)
	case *domain.LeaderboardTask:
		if status != domain.TaskCompleted {
			return Effect{}, nil
		}
		err = c.LeaderboardCompleted(game)
	case *domain.PodiumTask:
		if status != domain.TaskCompleted {
			return Effect{}, nil
		}
		err = c.PodiumCompleted(game)
	default:
		return Effect{}, nil
	}
	if err != nil {
		return Effect{}, err
	}
	game.UpdatedAt = c.now()
	return effect, nil
}

// LobbyCompleted archives the lobby and opens the first question.
func (c *Controller) LobbyCompleted(game *domain.Game) error {
	if _, ok := game.CurrentTask.(*domain.LobbyTask); !ok {
		return domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskLobby)
	}
	game.Advance(c.builder.BuildQuestionTask(game))
	game.NextQuestion++
	return nil
}

// QuestionPending presents the question and opens it for answers.
func (c *Controller) QuestionPending(game *domain.Game) error {
	task, ok := game.CurrentTask.(*domain.QuestionTask)
	if !ok {
		return domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestion)
	}
	now := c.now()
	task.PresentedAt = &now
	task.Status = domain.TaskActive
	return nil
}

// QuestionCompleted attaches the collected answers to the question and replaces it with
// its result.
func (c *Controller) QuestionCompleted(game *domain.Game, answers []domain.Answer) error {
	task, ok := game.CurrentTask.(*domain.QuestionTask)
	if !ok {
		return domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestion)
	}
	task.Answers = latestPerPlayer(answers)
	result, err := c.builder.BuildQuestionResultTask(game)
	if err != nil {
		return err
	}
	game.Advance(result)
	return nil
}

// QuestionResultCompleted ranks the players and moves to the leaderboard, or to the podium
// after the last question. The returned result is non-nil when the game ends with players.
func (c *Controller) QuestionResultCompleted(game *domain.Game) (*domain.GameResult, error) {
	entries, err := leaderboard.UpdateParticipantsAndBuildLeaderboard(game)
	if err != nil {
		return nil, err
	}
	if game.NextQuestion < len(game.Questions) {
		next, err := c.builder.BuildLeaderboardTask(game, entries)
		if err != nil {
			return nil, err
		}
		game.Advance(next)
		return nil, nil
	}

	podium, err := c.builder.BuildPodiumTask(game, entries)
	if err != nil {
		return nil, err
	}
	game.Advance(podium)
	if len(game.Players()) == 0 {
		return nil, nil
	}
	result := buildGameResult(game, entries, c.now())
	return &result, nil
}

func (c *Controller) LeaderboardCompleted(game *domain.Game) error {
	if _, ok := game.CurrentTask.(*domain.LeaderboardTask); !ok {
		return domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskLeaderboard)
	}
	game.Advance(c.builder.BuildQuestionTask(game))
	game.NextQuestion++
	return nil
}

func (c *Controller) PodiumCompleted(game *domain.Game) error {
	if _, ok := game.CurrentTask.(*domain.PodiumTask); !ok {
		return domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskPodium)
	}
	c.Quit(game)
	return nil
}

// Quit ends the game from any task.
func (c *Controller) Quit(game *domain.Game) {
	if _, done := game.CurrentTask.(*domain.QuitTask); done {
		return
	}
	game.Advance(c.builder.BuildQuitTask())
	if len(game.Players()) > 0 {
		game.Status = domain.GameCompleted
	} else {
		game.Status = domain.GameExpired
	}
	game.UpdatedAt = c.now()
}

func latestPerPlayer(answers []domain.Answer) []domain.Answer {
	index := make(map[string]int, len(answers))
	out := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		if i, ok := index[a.PlayerID]; ok {
			if a.SubmittedAt.After(out[i].SubmittedAt) {
				out[i] = a
			}
			continue
		}
		index[a.PlayerID] = len(out)
		out = append(out, a)
	}
	return out
}

func buildGameResult(game *domain.Game, entries []domain.LeaderboardEntry, endedAt time.Time) domain.GameResult {
	result := domain.GameResult{
		GameID:    game.ID,
		QuizID:    game.QuizID,
		Name:      game.Name,
		Mode:      game.Mode,
		Questions: len(game.Questions),
		CreatedAt: game.CreatedAt,
		EndedAt:   endedAt,
	}
	if host := game.Host(); host != nil {
		result.HostID = host.ID
	}
	for _, e := range entries {
		result.Players = append(result.Players, domain.PlayerResult{
			PlayerID: e.PlayerID,
			Nickname: e.Nickname,
			Rank:     e.Position,
			Score:    e.Score,
			Streaks:  e.Streaks,
		})
	}
	return result
}
