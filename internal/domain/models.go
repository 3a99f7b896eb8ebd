package domain

// QuestionType discriminates the six supported question shapes.
type QuestionType string

const (
	QuestionMultiChoice QuestionType = "multi_choice"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionRange       QuestionType = "range"
	QuestionTypeAnswer  QuestionType = "type_answer"
	QuestionPin         QuestionType = "pin"
	QuestionPuzzle      QuestionType = "puzzle"
)

// RangeMargin controls how far from the correct value a range answer may land.
type RangeMargin string

const (
	MarginNone    RangeMargin = "none"
	MarginLow     RangeMargin = "low"
	MarginMedium  RangeMargin = "medium"
	MarginHigh    RangeMargin = "high"
	MarginMaximum RangeMargin = "maximum"
)

// PinTolerance controls the accepted distance of a pin answer.
type PinTolerance string

const (
	ToleranceLow     PinTolerance = "low"
	ToleranceMedium  PinTolerance = "medium"
	ToleranceHigh    PinTolerance = "high"
	ToleranceMaximum PinTolerance = "maximum"
)

// Option represents a possible answer for a multi choice question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// RangeSpec is the slider configuration of a range question.
type RangeSpec struct {
	Min     float64     `json:"min"`
	Max     float64     `json:"max"`
	Step    float64     `json:"step"`
	Correct float64     `json:"correct"`
	Margin  RangeMargin `json:"margin"`
}

// PinSpec is the correct point of a pin question, in normalized image coordinates.
type PinSpec struct {
	ImageURL  string       `json:"imageUrl,omitempty"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Tolerance PinTolerance `json:"tolerance"`
}

// Question is immutable once a game starts.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Duration int          `json:"duration"` // seconds
	Points   int          `json:"points"`

	Options     []Option   `json:"options,omitempty"`
	TrueFalse   *bool      `json:"trueFalse,omitempty"`
	Range       *RangeSpec `json:"range,omitempty"`
	TypeAnswers []string   `json:"typeAnswers,omitempty"`
	Pin         *PinSpec   `json:"pin,omitempty"`
	Puzzle      []string   `json:"puzzle,omitempty"` // canonical order
}

// CorrectAnswers derives the canonical accepted answers of the question.
func (q Question) CorrectAnswers() []CorrectAnswer {
	switch q.Type {
	case QuestionMultiChoice:
		var out []CorrectAnswer
		for i, opt := range q.Options {
			if opt.Correct {
				index := i
				out = append(out, CorrectAnswer{Type: q.Type, Value: AnswerValue{Option: &index}})
			}
		}
		return out
	case QuestionTrueFalse:
		if q.TrueFalse == nil {
			return nil
		}
		value := *q.TrueFalse
		return []CorrectAnswer{{Type: q.Type, Value: AnswerValue{Bool: &value}}}
	case QuestionRange:
		if q.Range == nil {
			return nil
		}
		value := q.Range.Correct
		return []CorrectAnswer{{Type: q.Type, Value: AnswerValue{Number: &value}}}
	case QuestionTypeAnswer:
		out := make([]CorrectAnswer, 0, len(q.TypeAnswers))
		for _, text := range q.TypeAnswers {
			value := text
			out = append(out, CorrectAnswer{Type: q.Type, Value: AnswerValue{Text: &value}})
		}
		return out
	case QuestionPin:
		if q.Pin == nil {
			return nil
		}
		value := FormatPin(q.Pin.X, q.Pin.Y)
		return []CorrectAnswer{{Type: q.Type, Value: AnswerValue{Pin: &value}}}
	case QuestionPuzzle:
		order := append([]string(nil), q.Puzzle...)
		return []CorrectAnswer{{Type: q.Type, Value: AnswerValue{Order: order}}}
	}
	return nil
}

// Quiz is the question source a game is created from.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Mode      GameMode   `json:"mode"`
	Questions []Question `json:"questions"`
}
