// Package event derives the view each participant should see for the current task and fans
// it out to every replica.
package event

import (
	"time"

	"quiz-game-service/internal/domain"
)

// Type names an event payload.
type Type string

const (
	TypeGameLobbyHost         Type = "game_lobby_host"
	TypeGameLobbyPlayer       Type = "game_lobby_player"
	TypeGameBeginHost         Type = "game_begin_host"
	TypeGameBeginPlayer       Type = "game_begin_player"
	TypeQuestionPreviewHost   Type = "question_preview_host"
	TypeQuestionPreviewPlayer Type = "question_preview_player"
	TypeQuestionHost          Type = "question_host"
	TypeQuestionPlayer        Type = "question_player"
	TypeAwaitingResultPlayer  Type = "awaiting_result_player"
	TypeQuestionResultHost    Type = "question_result_host"
	TypeQuestionResultPlayer  Type = "question_result_player"
	TypeLeaderboardHost       Type = "leaderboard_host"
	TypeLeaderboardPlayer     Type = "leaderboard_player"
	TypePodiumHost            Type = "podium_host"
	TypePodiumPlayer          Type = "podium_player"
	TypeLoading               Type = "loading"
	TypeQuit                  Type = "quit"
)

// Event is a payload addressed to one participant.
type Event interface {
	EventType() Type
}

// PlayerInfo is the public identity of a player.
type PlayerInfo struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// Standing is a player's own progress.
type Standing struct {
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
	Streak   int    `json:"streak"`
}

// Question is a question as shown to participants; it never reveals the answer.
type Question struct {
	Index       int                 `json:"index"`
	Total       int                 `json:"total"`
	Type        domain.QuestionType `json:"type"`
	Text        string              `json:"text"`
	Duration    int                 `json:"duration"`
	Points      int                 `json:"points"`
	Options     []string            `json:"options,omitempty"`
	Range       *RangeInfo          `json:"range,omitempty"`
	ImageURL    string              `json:"imageUrl,omitempty"`
	PuzzleItems []string            `json:"puzzleItems,omitempty"`
}

type RangeInfo struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Countdown tells clients when the current phase ends.
type Countdown struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Duration  int64     `json:"durationMs"`
}

type GameLobbyHost struct {
	GameID  string       `json:"gameId"`
	PIN     string       `json:"pin"`
	Players []PlayerInfo `json:"players"`
}

type GameLobbyPlayer struct {
	Nickname string `json:"nickname"`
}

type GameBeginHost struct {
	GameID string `json:"gameId"`
}

type GameBeginPlayer struct {
	Nickname string `json:"nickname"`
}

type QuestionPreviewHost struct {
	Question  Question  `json:"question"`
	Countdown Countdown `json:"countdown"`
}

type QuestionPreviewPlayer struct {
	Player    Standing  `json:"player"`
	Question  Question  `json:"question"`
	Countdown Countdown `json:"countdown"`
}

type QuestionHost struct {
	Question  Question  `json:"question"`
	Countdown Countdown `json:"countdown"`
	Submitted int       `json:"submitted"`
	Total     int       `json:"total"`
}

type QuestionPlayer struct {
	Player    Standing  `json:"player"`
	Question  Question  `json:"question"`
	Countdown Countdown `json:"countdown"`
	Answered  bool      `json:"answered"`
}

type AwaitingResultPlayer struct {
	Player Standing `json:"player"`
}

// AnswerCount is how many players submitted a given value.
type AnswerCount struct {
	Value   domain.AnswerValue `json:"value"`
	Count   int                `json:"count"`
	Correct bool               `json:"correct"`
}

type QuestionResultHost struct {
	Question       Question                     `json:"question"`
	CorrectAnswers []domain.CorrectAnswer       `json:"correctAnswers"`
	Distribution   []AnswerCount                `json:"distribution"`
	Results        []domain.QuestionResultEntry `json:"results"`
}

type QuestionResultPlayer struct {
	Nickname   string `json:"nickname"`
	Answered   bool   `json:"answered"`
	Correct    bool   `json:"correct"`
	LastScore  int    `json:"lastScore"`
	TotalScore int    `json:"totalScore"`
	Position   int    `json:"position"`
	Streak     int    `json:"streak"`
}

type LeaderboardHost struct {
	QuestionIndex int                       `json:"questionIndex"`
	Total         int                       `json:"total"`
	Leaderboard   []domain.LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardPlayer struct {
	Nickname         string `json:"nickname"`
	Position         int    `json:"position"`
	PreviousPosition *int   `json:"previousPosition,omitempty"`
	Score            int    `json:"score"`
	Streaks          int    `json:"streaks"`
}

type PodiumHost struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type PodiumPlayer struct {
	Nickname string `json:"nickname"`
	Position int    `json:"position"`
	Score    int    `json:"score"`
}

// Loading bridges the gap until the next task becomes active.
type Loading struct{}

type Quit struct {
	Status domain.GameStatus `json:"status"`
}

func (GameLobbyHost) EventType() Type         { return TypeGameLobbyHost }
func (GameLobbyPlayer) EventType() Type       { return TypeGameLobbyPlayer }
func (GameBeginHost) EventType() Type         { return TypeGameBeginHost }
func (GameBeginPlayer) EventType() Type       { return TypeGameBeginPlayer }
func (QuestionPreviewHost) EventType() Type   { return TypeQuestionPreviewHost }
func (QuestionPreviewPlayer) EventType() Type { return TypeQuestionPreviewPlayer }
func (QuestionHost) EventType() Type          { return TypeQuestionHost }
func (QuestionPlayer) EventType() Type        { return TypeQuestionPlayer }
func (AwaitingResultPlayer) EventType() Type  { return TypeAwaitingResultPlayer }
func (QuestionResultHost) EventType() Type    { return TypeQuestionResultHost }
func (QuestionResultPlayer) EventType() Type  { return TypeQuestionResultPlayer }
func (LeaderboardHost) EventType() Type       { return TypeLeaderboardHost }
func (LeaderboardPlayer) EventType() Type     { return TypeLeaderboardPlayer }
func (PodiumHost) EventType() Type            { return TypePodiumHost }
func (PodiumPlayer) EventType() Type          { return TypePodiumPlayer }
func (Loading) EventType() Type               { return TypeLoading }
func (Quit) EventType() Type                  { return TypeQuit }
