package scoring

import (
	"math"
	"time"

	"quiz-game-service/internal/domain"
)

// edgePrecision is the precision multiplier left at the tolerance edge: an answer on the
// edge keeps a quarter of the precision points, so precision is 1 - 0.75*d/radius rather
// than falling to zero at the edge.
const edgePrecision = 0.25

var marginShare = map[domain.RangeMargin]float64{
	domain.MarginLow:    0.05,
	domain.MarginMedium: 0.10,
	domain.MarginHigh:   0.20,
}

// RangeBounds returns the accepted interval around correct for the configured margin,
// clamped to [Min, Max]. MarginNone yields the single point correct.
func RangeBounds(spec domain.RangeSpec, correct float64) (lower, upper float64) {
	switch spec.Margin {
	case domain.MarginMaximum:
		return spec.Min, spec.Max
	case domain.MarginLow, domain.MarginMedium, domain.MarginHigh:
		margin := marginShare[spec.Margin] * (spec.Max - spec.Min)
		if validPositive(spec.Step) {
			margin = math.Max(spec.Step, math.Round(margin/spec.Step)*spec.Step)
		}
		return math.Max(spec.Min, correct-margin), math.Min(spec.Max, correct+margin)
	}
	return correct, correct
}

// RangeCorrect reports whether answer lies inside the tolerance, edges included.
func RangeCorrect(spec domain.RangeSpec, correct, answer float64) bool {
	if !finite(correct) || !finite(answer) {
		return false
	}
	lower, upper := RangeBounds(spec, correct)
	return answer >= lower && answer <= upper
}

// Range scores a slider answer: a speed part worth 20% of the points and a precision part
// worth 80% that decays linearly from the exact value to the tolerance edge.
func Range(presentedAt, answeredAt time.Time, duration, points float64, spec domain.RangeSpec, correct, answer float64) int {
	if !validPositive(points) || !RangeCorrect(spec, correct, answer) {
		return 0
	}
	multiplier, ok := TimeMultiplier(presentedAt, answeredAt, duration)
	if !ok {
		return 0
	}
	speed := multiplier * points * speedWeight

	if spec.Margin == domain.MarginNone || spec.Margin == "" {
		return int(math.Round(speed + points*precisionWeight))
	}

	lower, upper := RangeBounds(spec, correct)
	radius := math.Max(correct-lower, upper-correct)
	distance := math.Abs(answer - correct)
	precision := 1.0
	if radius > 0 {
		precision = math.Max(0, 1-(1-edgePrecision)*distance/radius)
	}
	return int(math.Round(speed + points*precision*precisionWeight))
}
