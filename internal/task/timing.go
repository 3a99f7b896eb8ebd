package task

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"quiz-game-service/internal/domain"
)

// Timing holds the tuning values of the automatic transitions.
type Timing struct {
	LobbyDelay  time.Duration
	AverageWPM  float64
	CharReading time.Duration // reading time per character
	ReadingCap  time.Duration // cap of the character based estimate
}

func DefaultTiming() Timing {
	return Timing{
		LobbyDelay:  3 * time.Second,
		AverageWPM:  200,
		CharReading: 50 * time.Millisecond,
		ReadingCap:  5 * time.Second,
	}
}

// ReadingTime estimates how long a question is previewed before answers open.
func (t Timing) ReadingTime(text string) time.Duration {
	var byWords time.Duration
	if t.AverageWPM > 0 {
		words := float64(len(strings.Fields(text)))
		byWords = time.Duration(math.Round(words / t.AverageWPM * 60000)) * time.Millisecond
	}
	byChars := time.Duration(utf8.RuneCountInString(text)) * t.CharReading
	if byChars > t.ReadingCap {
		byChars = t.ReadingCap
	}
	if byWords > byChars {
		return byWords
	}
	return byChars
}

// Delay returns how long the game waits in its current state before the automatic
// transition, and whether such a transition exists.
func (t Timing) Delay(game *domain.Game) (time.Duration, bool) {
	current := game.CurrentTask
	if current == nil {
		return 0, false
	}
	status := current.Base().Status
	switch task := current.(type) {
	case *domain.LobbyTask:
		if status == domain.TaskPending || status == domain.TaskCompleted {
			return t.LobbyDelay, true
		}
	case *domain.QuestionTask:
		q, err := game.Question(task.QuestionIndex)
		if err != nil {
			return 0, false
		}
		switch status {
		case domain.TaskPending:
			return t.ReadingTime(q.Text), true
		case domain.TaskActive:
			return time.Duration(q.Duration) * time.Second, true
		case domain.TaskCompleted:
			return 0, true
		}
	case *domain.QuestionResultTask, *domain.LeaderboardTask, *domain.PodiumTask:
		if status == domain.TaskCompleted {
			return 0, true
		}
	}
	return 0, false
}
