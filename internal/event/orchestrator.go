package event

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"slices"
	"time"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/task"
)

// Metadata carries state that lives outside the game aggregate, such as the answers
// buffered for the active question.
type Metadata struct {
	AnswerCount int
	Answered    map[string]bool
}

// Builder derives the event a participant should see right now.
type Builder interface {
	Build(game *domain.Game, participant domain.Participant, meta Metadata) (Event, error)
}

// Orchestrator maps the current task and the participant role to an event.
type Orchestrator struct {
	timing task.Timing
}

func NewOrchestrator(timing task.Timing) *Orchestrator {
	return &Orchestrator{timing: timing}
}

// Build dispatches on the current task type, then on its status, then on the role.
func (o *Orchestrator) Build(game *domain.Game, participant domain.Participant, meta Metadata) (Event, error) {
	if game.CurrentTask == nil {
		return nil, fmt.Errorf("game %s has no current task: %w", game.ID, domain.ErrUnknownTaskType)
	}
	var player *domain.Player
	switch p := participant.(type) {
	case *domain.Host:
	case *domain.Player:
		player = p
	default:
		return nil, fmt.Errorf("unknown participant %T", participant)
	}

	status := game.CurrentTask.Base().Status
	switch t := game.CurrentTask.(type) {
	case *domain.LobbyTask:
		return o.lobby(game, player, status), nil
	case *domain.QuestionTask:
		return o.question(game, t, player, status, meta)
	case *domain.QuestionResultTask:
		if status != domain.TaskActive {
			return Loading{}, nil
		}
		return o.questionResult(game, t, player)
	case *domain.LeaderboardTask:
		if status != domain.TaskActive {
			return Loading{}, nil
		}
		return o.leaderboard(game, t, player), nil
	case *domain.PodiumTask:
		if status != domain.TaskActive {
			return Loading{}, nil
		}
		return o.podium(t, player), nil
	case *domain.QuitTask:
		return Quit{Status: game.Status}, nil
	}
	return nil, fmt.Errorf("%w: %T", domain.ErrUnknownTaskType, game.CurrentTask)
}

func (o *Orchestrator) lobby(game *domain.Game, player *domain.Player, status domain.TaskStatus) Event {
	if status == domain.TaskCompleted {
		if player == nil {
			return GameBeginHost{GameID: game.ID}
		}
		return GameBeginPlayer{Nickname: player.Nickname}
	}
	if player == nil {
		players := make([]PlayerInfo, 0, len(game.Participants))
		for _, p := range game.Players() {
			players = append(players, PlayerInfo{ID: p.ID, Nickname: p.Nickname})
		}
		return GameLobbyHost{GameID: game.ID, PIN: game.PIN, Players: players}
	}
	return GameLobbyPlayer{Nickname: player.Nickname}
}

func (o *Orchestrator) question(game *domain.Game, t *domain.QuestionTask, player *domain.Player, status domain.TaskStatus, meta Metadata) (Event, error) {
	q, err := game.Question(t.QuestionIndex)
	if err != nil {
		return nil, err
	}
	view := questionView(q, t, len(game.Questions))

	switch status {
	case domain.TaskPending:
		reading := o.timing.ReadingTime(q.Text)
		countdown := Countdown{ExpiresAt: t.CreatedAt.Add(reading), Duration: reading.Milliseconds()}
		if player == nil {
			return QuestionPreviewHost{Question: view, Countdown: countdown}, nil
		}
		return QuestionPreviewPlayer{Player: standing(player), Question: view, Countdown: countdown}, nil
	case domain.TaskActive:
		var countdown Countdown
		duration := time.Duration(q.Duration) * time.Second
		if t.PresentedAt != nil {
			countdown = Countdown{ExpiresAt: t.PresentedAt.Add(duration), Duration: duration.Milliseconds()}
		}
		if player == nil {
			return QuestionHost{
				Question:  view,
				Countdown: countdown,
				Submitted: meta.AnswerCount,
				Total:     len(game.Players()),
			}, nil
		}
		return QuestionPlayer{
			Player:    standing(player),
			Question:  view,
			Countdown: countdown,
			Answered:  meta.Answered[player.ID],
		}, nil
	default:
		if player == nil {
			return Loading{}, nil
		}
		return AwaitingResultPlayer{Player: standing(player)}, nil
	}
}

func (o *Orchestrator) questionResult(game *domain.Game, t *domain.QuestionResultTask, player *domain.Player) (Event, error) {
	if player != nil {
		for _, r := range t.Results {
			if r.PlayerID == player.ID {
				return QuestionResultPlayer{
					Nickname:   r.Nickname,
					Answered:   r.Answer != nil,
					Correct:    r.Correct,
					LastScore:  r.LastScore,
					TotalScore: r.TotalScore,
					Position:   r.Position,
					Streak:     r.Streak,
				}, nil
			}
		}
		return QuestionResultPlayer{Nickname: player.Nickname, TotalScore: player.TotalScore, Position: player.Rank}, nil
	}

	q, err := game.Question(t.QuestionIndex)
	if err != nil {
		return nil, err
	}
	var presented *domain.QuestionTask
	if prev, ok := game.PreviousTask().(*domain.QuestionTask); ok {
		presented = prev
	}
	view := questionView(q, presented, len(game.Questions))
	view.Index = t.QuestionIndex
	return QuestionResultHost{
		Question:       view,
		CorrectAnswers: t.CorrectAnswers,
		Distribution:   distribution(t),
		Results:        t.Results,
	}, nil
}

func (o *Orchestrator) leaderboard(game *domain.Game, t *domain.LeaderboardTask, player *domain.Player) Event {
	if player == nil {
		return LeaderboardHost{QuestionIndex: t.QuestionIndex, Total: len(game.Questions), Leaderboard: t.Leaderboard}
	}
	for _, e := range t.Leaderboard {
		if e.PlayerID == player.ID {
			return LeaderboardPlayer{
				Nickname:         e.Nickname,
				Position:         e.Position,
				PreviousPosition: e.PreviousPosition,
				Score:            e.Score,
				Streaks:          e.Streaks,
			}
		}
	}
	return LeaderboardPlayer{Nickname: player.Nickname}
}

func (o *Orchestrator) podium(t *domain.PodiumTask, player *domain.Player) Event {
	if player == nil {
		return PodiumHost{Leaderboard: t.Leaderboard}
	}
	for _, e := range t.Leaderboard {
		if e.PlayerID == player.ID {
			return PodiumPlayer{Nickname: e.Nickname, Position: e.Position, Score: e.Score}
		}
	}
	return PodiumPlayer{Nickname: player.Nickname}
}

func standing(p *domain.Player) Standing {
	return Standing{Nickname: p.Nickname, Score: p.TotalScore, Rank: p.Rank, Streak: p.CurrentStreak}
}

// questionView strips the correct values from q. Puzzle items are shuffled with a seed
// derived from the task id so every participant and replica sees the same order.
func questionView(q domain.Question, t *domain.QuestionTask, total int) Question {
	view := Question{
		Type:     q.Type,
		Text:     q.Text,
		Total:    total,
		Duration: q.Duration,
		Points:   q.Points,
	}
	if t != nil {
		view.Index = t.QuestionIndex
	}
	switch q.Type {
	case domain.QuestionMultiChoice:
		for _, opt := range q.Options {
			view.Options = append(view.Options, opt.Text)
		}
	case domain.QuestionRange:
		if q.Range != nil {
			view.Range = &RangeInfo{Min: q.Range.Min, Max: q.Range.Max, Step: q.Range.Step}
		}
	case domain.QuestionPin:
		if q.Pin != nil {
			view.ImageURL = q.Pin.ImageURL
		}
	case domain.QuestionPuzzle:
		view.PuzzleItems = append([]string(nil), q.Puzzle...)
		seed := q.ID
		if t != nil {
			seed = t.ID
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(seed))
		rnd := rand.New(rand.NewSource(int64(h.Sum64())))
		rnd.Shuffle(len(view.PuzzleItems), func(i, j int) {
			view.PuzzleItems[i], view.PuzzleItems[j] = view.PuzzleItems[j], view.PuzzleItems[i]
		})
		// never present the solved order; a rotation only matches when every item is equal
		if len(view.PuzzleItems) > 1 && slices.Equal(view.PuzzleItems, q.Puzzle) {
			view.PuzzleItems = append(slices.Clone(view.PuzzleItems[1:]), view.PuzzleItems[0])
		}
	}
	return view
}

func distribution(t *domain.QuestionResultTask) []AnswerCount {
	var out []AnswerCount
	index := make(map[answerKey]int)
	for _, r := range t.Results {
		if r.Answer == nil {
			continue
		}
		key := valueKey(r.Answer.Value)
		if i, ok := index[key]; ok {
			out[i].Count++
			out[i].Correct = out[i].Correct || r.Correct
			continue
		}
		index[key] = len(out)
		out = append(out, AnswerCount{Value: r.Answer.Value, Count: 1, Correct: r.Correct})
	}
	return out
}

type answerKey struct {
	Option string
	Bool   string
	Number string
	Text   string
	Pin    string
	Order  string
}

func valueKey(v domain.AnswerValue) answerKey {
	var k answerKey
	if v.Option != nil {
		k.Option = fmt.Sprint(*v.Option)
	}
	if v.Bool != nil {
		k.Bool = fmt.Sprint(*v.Bool)
	}
	if v.Number != nil {
		k.Number = fmt.Sprint(*v.Number)
	}
	if v.Text != nil {
		k.Text = *v.Text
	}
	if v.Pin != nil {
		k.Pin = *v.Pin
	}
	k.Order = fmt.Sprint(v.Order)
	return k
}
