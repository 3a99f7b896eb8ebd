package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-game-service/internal/domain"
)

var presented = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func after(d time.Duration) time.Time {
	return presented.Add(d)
}

func TestBinaryTimeDecay(t *testing.T) {
	for _, tc := range []struct {
		name     string
		duration float64
		points   float64
	}{
		{"short", 5, 100},
		{"classic", 20, 1000},
		{"odd points", 30, 2001},
	} {
		t.Run(tc.name, func(t *testing.T) {
			deadline := time.Duration(tc.duration * float64(time.Second))
			assert.Equal(t, int(tc.points), Binary(true, presented, presented, tc.duration, tc.points))
			assert.Equal(t, int(math.Round(tc.points/2)), Binary(true, presented, after(deadline), tc.duration, tc.points))
			assert.Zero(t, Binary(true, presented, after(deadline+time.Millisecond), tc.duration, tc.points))
			assert.Zero(t, Binary(false, presented, presented, tc.duration, tc.points))
		})
	}
}

func TestBinaryHalfway(t *testing.T) {
	assert.Equal(t, 60, Binary(true, presented, after(10*time.Second), 20, 80))
}

func TestBinaryRejectsInvalidInput(t *testing.T) {
	assert.Zero(t, Binary(true, presented, after(-time.Second), 20, 1000), "answer before presentation")
	assert.Zero(t, Binary(true, presented, presented, 0, 1000))
	assert.Zero(t, Binary(true, presented, presented, math.Inf(1), 1000))
	assert.Zero(t, Binary(true, presented, presented, 20, math.NaN()))
	assert.Zero(t, Binary(true, presented, presented, 20, -5))
	assert.Zero(t, Binary(true, time.Time{}, presented, 20, 1000))
}

func TestRangeScoring(t *testing.T) {
	spec := domain.RangeSpec{Min: 0, Max: 100, Step: 2, Correct: 50, Margin: domain.MarginMedium}

	t.Run("boundary answer", func(t *testing.T) {
		assert.True(t, RangeCorrect(spec, 50, 60))
		assert.Equal(t, 383, Range(presented, after(5*time.Second), 30, 1000, spec, 50, 60))
		// full speed part plus a quarter of the 800 precision points
		assert.Equal(t, 400, Range(presented, presented, 30, 1000, spec, 50, 60))
	})

	t.Run("outside tolerance", func(t *testing.T) {
		assert.False(t, RangeCorrect(spec, 50, 62))
		assert.Zero(t, Range(presented, after(5*time.Second), 30, 1000, spec, 50, 62))
	})

	t.Run("exact answer with no margin", func(t *testing.T) {
		exact := spec
		exact.Margin = domain.MarginNone
		assert.Equal(t, 1000, Range(presented, presented, 30, 1000, exact, 50, 50))
		assert.Zero(t, Range(presented, presented, 30, 1000, exact, 50, 52))
	})

	t.Run("maximum margin accepts the whole range", func(t *testing.T) {
		wide := spec
		wide.Margin = domain.MarginMaximum
		assert.True(t, RangeCorrect(wide, 50, 0))
		assert.Positive(t, Range(presented, presented, 30, 1000, wide, 50, 100))
	})

	t.Run("bounds are clamped", func(t *testing.T) {
		lower, upper := RangeBounds(domain.RangeSpec{Min: 0, Max: 100, Step: 1, Margin: domain.MarginHigh}, 95)
		assert.Equal(t, 75.0, lower)
		assert.Equal(t, 100.0, upper)
	})

	t.Run("closer answers score more", func(t *testing.T) {
		near := Range(presented, presented, 30, 1000, spec, 50, 52)
		far := Range(presented, presented, 30, 1000, spec, 50, 58)
		assert.Greater(t, near, far)
	})
}

func TestPinScoring(t *testing.T) {
	correct := "0.5,0.5"

	exact := Pin(presented, after(time.Second), 30, 1000, domain.ToleranceMedium, correct, "0.5,0.5")
	boundary := Pin(presented, after(time.Second), 30, 1000, domain.ToleranceMedium, correct, "0.6,0.5")
	outside := Pin(presented, after(time.Second), 30, 1000, domain.ToleranceMedium, correct, "0.7,0.5")

	assert.Greater(t, exact, boundary)
	assert.Positive(t, boundary)
	assert.Zero(t, outside)
	assert.True(t, PinCorrect(domain.ToleranceMedium, correct, "0.6,0.5"))
	assert.True(t, PinCorrect(domain.ToleranceMaximum, correct, "1,1"))
}

func TestParsePinDefaultsToOrigin(t *testing.T) {
	for _, raw := range []string{"", "abc", "1", "1,2,3", "x,0.4", "NaN,1"} {
		assert.Equal(t, Point{}, ParsePin(raw), raw)
	}
	assert.Equal(t, Point{X: 0.25, Y: 0.75}, ParsePin(" 0.25 , 0.75 "))
}

func TestPuzzleScoring(t *testing.T) {
	correct := []string{"a", "b", "c", "d"}

	assert.Zero(t, Puzzle(presented, presented, 20, 1000, correct, []string{"d", "c", "b", "a"}))
	assert.Equal(t, 500, Puzzle(presented, after(20*time.Second), 20, 1000, correct, correct))
	assert.Equal(t, 500, Puzzle(presented, presented, 20, 1000, correct, []string{"a", "b", "d", "c"}))
	assert.Zero(t, Puzzle(presented, time.Time{}, 20, 1000, correct, correct), "missing timestamp")
	assert.False(t, PuzzleCorrect(correct, []string{"b", "a"}))
}

func TestTextMatches(t *testing.T) {
	assert.True(t, TextMatches("Café au lait", "  cafe AU-lait! "))
	assert.True(t, TextMatches("Stockholm", "stockholm"))
	assert.False(t, TextMatches("Stockholm", "Oslo"))
	assert.False(t, TextMatches("", ""))
}

func TestEvaluate(t *testing.T) {
	option := 1
	wrong := 0
	question := domain.Question{
		Type:     domain.QuestionMultiChoice,
		Duration: 20,
		Points:   1000,
		Options:  []domain.Option{{Text: "no"}, {Text: "yes", Correct: true}},
	}
	accepted := question.CorrectAnswers()

	t.Run("nil answer", func(t *testing.T) {
		out, err := Evaluate(domain.ModeClassic, question, presented, accepted, nil)
		require.NoError(t, err)
		assert.Equal(t, Outcome{}, out)
	})

	t.Run("correct", func(t *testing.T) {
		out, err := Evaluate(domain.ModeClassic, question, presented, accepted, &domain.Answer{
			Type: domain.QuestionMultiChoice, Value: domain.AnswerValue{Option: &option}, SubmittedAt: presented,
		})
		require.NoError(t, err)
		assert.Equal(t, Outcome{Correct: true, Score: 1000}, out)
	})

	t.Run("incorrect", func(t *testing.T) {
		out, err := Evaluate(domain.ModeClassic, question, presented, accepted, &domain.Answer{
			Type: domain.QuestionMultiChoice, Value: domain.AnswerValue{Option: &wrong}, SubmittedAt: presented,
		})
		require.NoError(t, err)
		assert.Equal(t, Outcome{}, out)
	})

	t.Run("late answers are not evaluated", func(t *testing.T) {
		out, err := Evaluate(domain.ModeClassic, question, presented, accepted, &domain.Answer{
			Type: domain.QuestionMultiChoice, Value: domain.AnswerValue{Option: &option}, SubmittedAt: after(21 * time.Second),
		})
		require.NoError(t, err)
		assert.False(t, out.Correct)
	})

	t.Run("mismatched value", func(t *testing.T) {
		yes := true
		out, err := Evaluate(domain.ModeClassic, question, presented, accepted, &domain.Answer{
			Type: domain.QuestionMultiChoice, Value: domain.AnswerValue{Bool: &yes}, SubmittedAt: presented,
		})
		require.NoError(t, err)
		assert.Equal(t, Outcome{}, out)
	})
}

func TestEvaluateZeroToOneHundred(t *testing.T) {
	question := domain.Question{
		Type:     domain.QuestionRange,
		Duration: 30,
		Points:   1000,
		Range:    &domain.RangeSpec{Min: 0, Max: 100, Step: 1, Correct: 42, Margin: domain.MarginMaximum},
	}
	accepted := question.CorrectAnswers()

	value := 50.0
	out, err := Evaluate(domain.ModeZeroToOneHundred, question, presented, accepted, &domain.Answer{
		Type: domain.QuestionRange, Value: domain.AnswerValue{Number: &value}, SubmittedAt: after(time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, Outcome{Score: 8}, out)

	exact := 42.0
	out, err = Evaluate(domain.ModeZeroToOneHundred, question, presented, accepted, &domain.Answer{
		Type: domain.QuestionRange, Value: domain.AnswerValue{Number: &exact}, SubmittedAt: after(time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, Outcome{Correct: true, Score: 0}, out)

	out, err = Evaluate(domain.ModeZeroToOneHundred, question, presented, accepted, nil)
	require.NoError(t, err)
	assert.Equal(t, Outcome{Score: ZeroToOneHundredMiss}, out)
}
