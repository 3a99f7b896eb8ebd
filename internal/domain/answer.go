package domain

import (
	"strconv"
	"time"
)

// AnswerValue holds the submitted value; exactly one field is set for the question type.
type AnswerValue struct {
	Option *int     `json:"option,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
	Number *float64 `json:"number,omitempty"`
	Text   *string  `json:"text,omitempty"`
	Pin    *string  `json:"pin,omitempty"` // "x,y"
	Order  []string `json:"order,omitempty"`
}

// Matches reports whether the value carries the field used by the question type.
func (v AnswerValue) Matches(t QuestionType) bool {
	switch t {
	case QuestionMultiChoice:
		return v.Option != nil
	case QuestionTrueFalse:
		return v.Bool != nil
	case QuestionRange:
		return v.Number != nil
	case QuestionTypeAnswer:
		return v.Text != nil
	case QuestionPin:
		return v.Pin != nil
	case QuestionPuzzle:
		return len(v.Order) > 0
	}
	return false
}

// Answer is a player's submission for the active question. At most one is kept per player.
type Answer struct {
	Type        QuestionType `json:"type"`
	PlayerID    string       `json:"playerId"`
	Value       AnswerValue  `json:"value"`
	SubmittedAt time.Time    `json:"submittedAt"`
}

// CorrectAnswer is one accepted value of a question result.
type CorrectAnswer struct {
	Type  QuestionType `json:"type"`
	Value AnswerValue  `json:"value"`
}

// FormatPin renders a point the way pin answers are submitted.
func FormatPin(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + "," + strconv.FormatFloat(y, 'f', -1, 64)
}
