package scoring

import (
	"math"
	"time"
)

// CorrectPositions counts the positions where answer matches the canonical order.
func CorrectPositions(correct, answer []string) int {
	n := 0
	for i := range correct {
		if i < len(answer) && answer[i] == correct[i] {
			n++
		}
	}
	return n
}

// PuzzleCorrect requires at least one token in its canonical position.
func PuzzleCorrect(correct, answer []string) bool {
	return CorrectPositions(correct, answer) > 0
}

// Puzzle scores the time decayed points scaled by the share of correct positions.
func Puzzle(presentedAt, answeredAt time.Time, duration, points float64, correct, answer []string) int {
	if len(correct) == 0 || answeredAt.IsZero() || !validPositive(points) {
		return 0
	}
	positions := CorrectPositions(correct, answer)
	if positions == 0 {
		return 0
	}
	multiplier, ok := TimeMultiplier(presentedAt, answeredAt, duration)
	if !ok {
		return 0
	}
	base := points * multiplier
	return int(math.Round(base * float64(positions) / float64(len(correct))))
}
