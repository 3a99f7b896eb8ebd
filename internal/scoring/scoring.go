// Package scoring computes the points awarded for a single answer.
//
// Every function is pure: invalid input scores zero rather than failing, so a
// malformed client submission can never break a question result.
package scoring

import (
	"math"
	"time"

	"quiz-game-service/internal/domain"
)

const (
	// speedWeight is the share of the points driven by answer time for the
	// partial-credit question types (range and pin).
	speedWeight = 0.2
	// precisionWeight is the share driven by how close the answer is.
	precisionWeight = 0.8

	// ZeroToOneHundredMiss is the deviation charged for a missing answer.
	ZeroToOneHundredMiss = 100
)

// TimeMultiplier returns the linear decay factor from 1.0 at presentation to 0.5 at the
// deadline. ok is false when the answer falls outside the window or the duration is invalid.
func TimeMultiplier(presentedAt, answeredAt time.Time, duration float64) (multiplier float64, ok bool) {
	if !validPositive(duration) || presentedAt.IsZero() || answeredAt.IsZero() {
		return 0, false
	}
	elapsed := float64(answeredAt.Sub(presentedAt).Milliseconds())
	if elapsed < 0 || elapsed > duration*1000 {
		return 0, false
	}
	ratio := clamp(elapsed/1000/duration, 0, 1)
	return 1 - ratio/2, true
}

// Binary scores the multi choice, true/false and type answer questions.
func Binary(correct bool, presentedAt, answeredAt time.Time, duration, points float64) int {
	if !correct || !validPositive(points) {
		return 0
	}
	multiplier, ok := TimeMultiplier(presentedAt, answeredAt, duration)
	if !ok {
		return 0
	}
	return int(math.Round(points * multiplier))
}

// Outcome is the evaluated result of one answer.
type Outcome struct {
	Correct bool
	Score   int
}

// Evaluate scores answer against every accepted value and keeps the best outcome.
// A nil answer always scores zero, or the full miss penalty in zero-to-one-hundred mode.
func Evaluate(mode domain.GameMode, q domain.Question, presentedAt time.Time, accepted []domain.CorrectAnswer, answer *domain.Answer) (Outcome, error) {
	if mode == domain.ModeZeroToOneHundred {
		return evaluateZeroToOneHundred(q, presentedAt, accepted, answer), nil
	}
	if answer == nil || !answer.Value.Matches(q.Type) {
		return Outcome{}, nil
	}
	duration, points := float64(q.Duration), float64(q.Points)
	if _, ok := TimeMultiplier(presentedAt, answer.SubmittedAt, duration); !ok {
		return Outcome{}, nil
	}

	best := Outcome{}
	for _, correct := range accepted {
		var (
			ok    bool
			score int
		)
		switch q.Type {
		case domain.QuestionMultiChoice:
			ok = correct.Value.Option != nil && *correct.Value.Option == *answer.Value.Option
			score = Binary(ok, presentedAt, answer.SubmittedAt, duration, points)
		case domain.QuestionTrueFalse:
			ok = correct.Value.Bool != nil && *correct.Value.Bool == *answer.Value.Bool
			score = Binary(ok, presentedAt, answer.SubmittedAt, duration, points)
		case domain.QuestionTypeAnswer:
			ok = correct.Value.Text != nil && TextMatches(*correct.Value.Text, *answer.Value.Text)
			score = Binary(ok, presentedAt, answer.SubmittedAt, duration, points)
		case domain.QuestionRange:
			if q.Range == nil || correct.Value.Number == nil {
				continue
			}
			spec := *q.Range
			ok = RangeCorrect(spec, *correct.Value.Number, *answer.Value.Number)
			score = Range(presentedAt, answer.SubmittedAt, duration, points, spec, *correct.Value.Number, *answer.Value.Number)
		case domain.QuestionPin:
			if q.Pin == nil || correct.Value.Pin == nil {
				continue
			}
			ok = PinCorrect(q.Pin.Tolerance, *correct.Value.Pin, *answer.Value.Pin)
			score = Pin(presentedAt, answer.SubmittedAt, duration, points, q.Pin.Tolerance, *correct.Value.Pin, *answer.Value.Pin)
		case domain.QuestionPuzzle:
			ok = PuzzleCorrect(correct.Value.Order, answer.Value.Order)
			score = Puzzle(presentedAt, answer.SubmittedAt, duration, points, correct.Value.Order, answer.Value.Order)
		default:
			return Outcome{}, domain.ErrUnknownQuestionType
		}
		if !ok {
			continue
		}
		if !best.Correct || score > best.Score {
			best = Outcome{Correct: true, Score: score}
		}
	}
	return best, nil
}

func evaluateZeroToOneHundred(q domain.Question, presentedAt time.Time, accepted []domain.CorrectAnswer, answer *domain.Answer) Outcome {
	miss := Outcome{Score: ZeroToOneHundredMiss}
	if answer == nil || answer.Value.Number == nil {
		return miss
	}
	if _, ok := TimeMultiplier(presentedAt, answer.SubmittedAt, float64(q.Duration)); !ok {
		return miss
	}
	best := miss
	for _, correct := range accepted {
		if correct.Value.Number == nil {
			continue
		}
		deviation := ZeroToOneHundred(*correct.Value.Number, *answer.Value.Number)
		if deviation < best.Score {
			best = Outcome{Correct: deviation == 0, Score: deviation}
		}
	}
	return best
}

// ZeroToOneHundred returns the absolute deviation between answer and correct, capped to
// the miss penalty. Lower is better.
func ZeroToOneHundred(correct, answer float64) int {
	if !finite(correct) || !finite(answer) {
		return ZeroToOneHundredMiss
	}
	deviation := int(math.Round(math.Abs(answer - correct)))
	if deviation > ZeroToOneHundredMiss {
		return ZeroToOneHundredMiss
	}
	return deviation
}

func validPositive(v float64) bool {
	return finite(v) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
