// Package task builds task payloads and drives the game through its task sequence:
// lobby, question, question result, (leaderboard, question)*, question result, podium, quit.
package task

import (
	"time"

	"github.com/google/uuid"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/leaderboard"
	"quiz-game-service/internal/scoring"
)

// Builder constructs new task values from the game aggregate. It never mutates the game.
type Builder struct {
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return NewBuilderWithClock(time.Now, uuid.NewString)
}

// NewBuilderWithClock allows deterministic ids and timestamps in tests.
func NewBuilderWithClock(now func() time.Time, newID func() string) *Builder {
	return &Builder{now: now, newID: newID}
}

func (b *Builder) base(status domain.TaskStatus) domain.TaskBase {
	return domain.TaskBase{ID: b.newID(), Status: status, CreatedAt: b.now()}
}

func (b *Builder) BuildLobbyTask() *domain.LobbyTask {
	return &domain.LobbyTask{TaskBase: b.base(domain.TaskPending)}
}

// BuildQuestionTask creates the pending task for the game's next question.
func (b *Builder) BuildQuestionTask(game *domain.Game) *domain.QuestionTask {
	return &domain.QuestionTask{
		TaskBase:      b.base(domain.TaskPending),
		QuestionIndex: game.NextQuestion,
	}
}

// BuildQuestionResultTask scores every player's answer of the current question task.
func (b *Builder) BuildQuestionResultTask(game *domain.Game) (*domain.QuestionResultTask, error) {
	question, ok := game.CurrentTask.(*domain.QuestionTask)
	if !ok {
		return nil, domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestion)
	}
	q, err := game.Question(question.QuestionIndex)
	if err != nil {
		return nil, err
	}
	accepted := q.CorrectAnswers()
	results, err := buildResults(game, q, question, accepted)
	if err != nil {
		return nil, err
	}
	return &domain.QuestionResultTask{
		TaskBase:       b.base(domain.TaskActive),
		QuestionIndex:  question.QuestionIndex,
		CorrectAnswers: accepted,
		Results:        results,
	}, nil
}

// RebuildQuestionResultTask recomputes the results of the current question result from the
// archived question's answers and the result's own accepted answers.
func (b *Builder) RebuildQuestionResultTask(game *domain.Game) (*domain.QuestionResultTask, error) {
	current, ok := game.CurrentTask.(*domain.QuestionResultTask)
	if !ok {
		return nil, domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestionResult)
	}
	question, ok := game.PreviousTask().(*domain.QuestionTask)
	if !ok {
		return nil, domain.NewIllegalTaskTypeError(game.PreviousTask(), domain.TaskQuestion)
	}
	q, err := game.Question(question.QuestionIndex)
	if err != nil {
		return nil, err
	}
	results, err := buildResults(game, q, question, current.CorrectAnswers)
	if err != nil {
		return nil, err
	}
	return &domain.QuestionResultTask{
		TaskBase:       current.TaskBase,
		QuestionIndex:  current.QuestionIndex,
		CorrectAnswers: append([]domain.CorrectAnswer(nil), current.CorrectAnswers...),
		Results:        results,
	}, nil
}

func (b *Builder) BuildLeaderboardTask(game *domain.Game, entries []domain.LeaderboardEntry) (*domain.LeaderboardTask, error) {
	if _, ok := game.CurrentTask.(*domain.QuestionResultTask); !ok {
		return nil, domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestionResult)
	}
	return &domain.LeaderboardTask{
		TaskBase:      b.base(domain.TaskActive),
		QuestionIndex: game.NextQuestion - 1,
		Leaderboard:   entries,
	}, nil
}

func (b *Builder) BuildPodiumTask(game *domain.Game, entries []domain.LeaderboardEntry) (*domain.PodiumTask, error) {
	if _, ok := game.CurrentTask.(*domain.QuestionResultTask); !ok {
		return nil, domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestionResult)
	}
	return &domain.PodiumTask{
		TaskBase:      b.base(domain.TaskActive),
		QuestionIndex: game.NextQuestion - 1,
		Leaderboard:   entries,
	}, nil
}

// BuildQuitTask is created completed; there is no transition out of it.
func (b *Builder) BuildQuitTask() *domain.QuitTask {
	return &domain.QuitTask{TaskBase: b.base(domain.TaskCompleted)}
}

func buildResults(game *domain.Game, q domain.Question, question *domain.QuestionTask, accepted []domain.CorrectAnswer) ([]domain.QuestionResultEntry, error) {
	answers := make(map[string]domain.Answer, len(question.Answers))
	for _, a := range question.Answers {
		answers[a.PlayerID] = a
	}
	var presentedAt time.Time
	if question.PresentedAt != nil {
		presentedAt = *question.PresentedAt
	}

	players := game.Players()
	results := make([]domain.QuestionResultEntry, 0, len(players))
	for _, player := range players {
		var answer *domain.Answer
		if a, ok := answers[player.ID]; ok {
			answer = &a
		}
		outcome, err := scoring.Evaluate(game.Mode, q, presentedAt, accepted, answer)
		if err != nil {
			return nil, err
		}
		streak := 0
		if outcome.Correct {
			streak = player.CurrentStreak + 1
		}
		results = append(results, domain.QuestionResultEntry{
			PlayerID:   player.ID,
			Nickname:   player.Nickname,
			Answer:     answer,
			Correct:    outcome.Correct,
			LastScore:  outcome.Score,
			TotalScore: player.TotalScore + outcome.Score,
			Streak:     streak,
		})
	}
	leaderboard.RankResults(game.Mode, results)
	return results, nil
}
