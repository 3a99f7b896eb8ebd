package task

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-game-service/internal/domain"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

func intPtr(v int) *int { return &v }

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       "q1",
			Type:     domain.QuestionMultiChoice,
			Text:     "What is the capital of Sweden?",
			Duration: 20,
			Points:   1000,
			Options: []domain.Option{
				{Text: "Oslo"},
				{Text: "Stockholm", Correct: true},
				{Text: "Copenhagen"},
			},
		},
		{
			ID:          "q2",
			Type:        domain.QuestionTypeAnswer,
			Text:        "Name the largest planet",
			Duration:    30,
			Points:      1000,
			TypeAnswers: []string{"Jupiter"},
		},
	}
}

func sampleGame(b *Builder) *domain.Game {
	return &domain.Game{
		ID:        "game-1",
		Mode:      domain.ModeClassic,
		Status:    domain.GameActive,
		Questions: sampleQuestions(),
		Participants: []domain.Participant{
			&domain.Host{ID: "host"},
			&domain.Player{ID: "p1", Nickname: "alice"},
			&domain.Player{ID: "p2", Nickname: "bob"},
		},
		CurrentTask: b.BuildLobbyTask(),
		CreatedAt:   epoch,
	}
}

func questionGame(b *Builder, answers ...domain.Answer) *domain.Game {
	game := sampleGame(b)
	presented := epoch
	game.Advance(&domain.QuestionTask{
		TaskBase:      domain.TaskBase{ID: "question", Status: domain.TaskCompleted},
		QuestionIndex: 0,
		PresentedAt:   &presented,
		Answers:       answers,
	})
	game.NextQuestion = 1
	return game
}

func TestBuildLobbyAndQuitTasks(t *testing.T) {
	clock := &fakeClock{now: epoch}
	b := NewBuilderWithClock(clock.Now, sequentialIDs())

	lobby := b.BuildLobbyTask()
	assert.Equal(t, "task-1", lobby.ID)
	assert.Equal(t, domain.TaskPending, lobby.Status)
	assert.Equal(t, epoch, lobby.CreatedAt)

	quit := b.BuildQuitTask()
	assert.Equal(t, domain.TaskCompleted, quit.Status)
}

func TestBuildQuestionTaskUsesNextQuestion(t *testing.T) {
	b := NewBuilderWithClock(time.Now, sequentialIDs())
	game := sampleGame(b)
	game.NextQuestion = 1

	question := b.BuildQuestionTask(game)
	assert.Equal(t, 1, question.QuestionIndex)
	assert.Equal(t, domain.TaskPending, question.Status)
	assert.Nil(t, question.PresentedAt)
}

func TestBuildQuestionResultTask(t *testing.T) {
	b := NewBuilderWithClock(time.Now, sequentialIDs())
	game := questionGame(b,
		domain.Answer{Type: domain.QuestionMultiChoice, PlayerID: "p1", Value: domain.AnswerValue{Option: intPtr(1)}, SubmittedAt: epoch.Add(10 * time.Second)},
		domain.Answer{Type: domain.QuestionMultiChoice, PlayerID: "p2", Value: domain.AnswerValue{Option: intPtr(0)}, SubmittedAt: epoch.Add(time.Second)},
	)
	alice, _ := game.Player("p1")
	alice.TotalScore = 100
	alice.CurrentStreak = 2

	result, err := b.BuildQuestionResultTask(game)
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	require.Len(t, result.CorrectAnswers, 1)
	assert.Equal(t, 1, *result.CorrectAnswers[0].Value.Option)

	first := result.Results[0]
	assert.Equal(t, "p1", first.PlayerID)
	assert.True(t, first.Correct)
	assert.Equal(t, 750, first.LastScore)
	assert.Equal(t, 850, first.TotalScore)
	assert.Equal(t, 3, first.Streak)
	assert.Equal(t, 1, first.Position)

	second := result.Results[1]
	assert.False(t, second.Correct)
	assert.Zero(t, second.LastScore)
	assert.Zero(t, second.Streak)
	assert.Equal(t, 2, second.Position)
}

func TestBuildQuestionResultTaskWithoutAnswers(t *testing.T) {
	b := NewBuilderWithClock(time.Now, sequentialIDs())
	game := questionGame(b)

	result, err := b.BuildQuestionResultTask(game)
	require.NoError(t, err)
	for _, r := range result.Results {
		assert.Nil(t, r.Answer)
		assert.False(t, r.Correct)
		assert.Zero(t, r.LastScore)
	}
}

func TestBuildersRejectWrongCurrentTask(t *testing.T) {
	b := NewBuilderWithClock(time.Now, sequentialIDs())
	game := sampleGame(b)

	_, err := b.BuildQuestionResultTask(game)
	assert.True(t, errors.Is(err, domain.ErrIllegalTaskType))

	_, err = b.BuildLeaderboardTask(game, nil)
	assert.True(t, errors.Is(err, domain.ErrIllegalTaskType))

	_, err = b.BuildPodiumTask(game, nil)
	assert.True(t, errors.Is(err, domain.ErrIllegalTaskType))

	_, err = b.RebuildQuestionResultTask(game)
	var illegal *domain.IllegalTaskTypeError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, domain.TaskLobby, illegal.Actual)
}

func TestBuildLeaderboardAndPodiumTasks(t *testing.T) {
	b := NewBuilderWithClock(time.Now, sequentialIDs())
	game := questionGame(b)
	result, err := b.BuildQuestionResultTask(game)
	require.NoError(t, err)
	game.Advance(result)

	entries := []domain.LeaderboardEntry{{PlayerID: "p1", Nickname: "alice", Position: 1, Score: 10}}
	lb, err := b.BuildLeaderboardTask(game, entries)
	require.NoError(t, err)
	assert.Equal(t, 0, lb.QuestionIndex)
	assert.Equal(t, entries, lb.Leaderboard)

	podium, err := b.BuildPodiumTask(game, entries)
	require.NoError(t, err)
	assert.Equal(t, 0, podium.QuestionIndex)
	assert.Equal(t, entries, podium.Leaderboard)
}

func TestRebuildQuestionResultTask(t *testing.T) {
	b := NewBuilderWithClock(time.Now, sequentialIDs())
	game := questionGame(b,
		domain.Answer{Type: domain.QuestionMultiChoice, PlayerID: "p1", Value: domain.AnswerValue{Option: intPtr(1)}, SubmittedAt: epoch},
		domain.Answer{Type: domain.QuestionMultiChoice, PlayerID: "p2", Value: domain.AnswerValue{Option: intPtr(2)}, SubmittedAt: epoch},
	)
	result, err := b.BuildQuestionResultTask(game)
	require.NoError(t, err)
	game.Advance(result)

	t.Run("idempotent", func(t *testing.T) {
		first, err := b.RebuildQuestionResultTask(game)
		require.NoError(t, err)
		second, err := b.RebuildQuestionResultTask(game)
		require.NoError(t, err)
		assert.Equal(t, first.Results, second.Results)
		assert.Equal(t, result.Results, first.Results)
		assert.Equal(t, result.ID, first.ID)
	})

	t.Run("uses the preserved correct answers", func(t *testing.T) {
		result.CorrectAnswers = append(result.CorrectAnswers, domain.CorrectAnswer{
			Type:  domain.QuestionMultiChoice,
			Value: domain.AnswerValue{Option: intPtr(2)},
		})
		rebuilt, err := b.RebuildQuestionResultTask(game)
		require.NoError(t, err)
		for _, r := range rebuilt.Results {
			assert.True(t, r.Correct, r.Nickname)
			assert.Equal(t, 1000, r.LastScore)
		}
	})

	t.Run("requires a preceding question", func(t *testing.T) {
		broken := *game
		broken.PreviousTasks = []domain.Task{b.BuildLobbyTask()}
		_, err := b.RebuildQuestionResultTask(&broken)
		assert.True(t, errors.Is(err, domain.ErrIllegalTaskType))
	})
}
