package domain

import "time"

// TaskType discriminates the task union.
type TaskType string

const (
	TaskLobby          TaskType = "lobby"
	TaskQuestion       TaskType = "question"
	TaskQuestionResult TaskType = "question_result"
	TaskLeaderboard    TaskType = "leaderboard"
	TaskPodium         TaskType = "podium"
	TaskQuit           TaskType = "quit"
)

// TaskStatus is the lifecycle phase of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
)

// Task is one of *LobbyTask, *QuestionTask, *QuestionResultTask, *LeaderboardTask,
// *PodiumTask or *QuitTask.
type Task interface {
	Type() TaskType
	Base() *TaskBase
	task()
}

// TaskBase is shared by every task variant.
type TaskBase struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (b *TaskBase) Base() *TaskBase { return b }
func (b *TaskBase) task()           {}

// Is reports whether the task has the given type and status.
func Is(t Task, typ TaskType, status TaskStatus) bool {
	return t != nil && t.Type() == typ && t.Base().Status == status
}

type LobbyTask struct {
	TaskBase
}

func (*LobbyTask) Type() TaskType { return TaskLobby }

type QuestionTask struct {
	TaskBase
	QuestionIndex int        `json:"questionIndex"`
	PresentedAt   *time.Time `json:"presentedAt,omitempty"`
	Answers       []Answer   `json:"answers,omitempty"`
}

func (*QuestionTask) Type() TaskType { return TaskQuestion }

// QuestionResultEntry is one player's outcome for a question.
type QuestionResultEntry struct {
	PlayerID   string  `json:"playerId"`
	Nickname   string  `json:"nickname"`
	Answer     *Answer `json:"answer,omitempty"`
	Correct    bool    `json:"correct"`
	LastScore  int     `json:"lastScore"`
	TotalScore int     `json:"totalScore"`
	Position   int     `json:"position"`
	Streak     int     `json:"streak"`
}

type QuestionResultTask struct {
	TaskBase
	QuestionIndex  int                   `json:"questionIndex"`
	CorrectAnswers []CorrectAnswer       `json:"correctAnswers"`
	Results        []QuestionResultEntry `json:"results"`
}

func (*QuestionResultTask) Type() TaskType { return TaskQuestionResult }

// LeaderboardEntry is a ranked snapshot of a player.
type LeaderboardEntry struct {
	PlayerID         string `json:"playerId"`
	Nickname         string `json:"nickname"`
	Position         int    `json:"position"`
	PreviousPosition *int   `json:"previousPosition,omitempty"`
	Score            int    `json:"score"`
	Streaks          int    `json:"streaks"`
}

type LeaderboardTask struct {
	TaskBase
	QuestionIndex int                `json:"questionIndex"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
}

func (*LeaderboardTask) Type() TaskType { return TaskLeaderboard }

type PodiumTask struct {
	TaskBase
	QuestionIndex int                `json:"questionIndex"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
}

func (*PodiumTask) Type() TaskType { return TaskPodium }

// QuitTask is terminal and created completed.
type QuitTask struct {
	TaskBase
}

func (*QuitTask) Type() TaskType { return TaskQuit }
