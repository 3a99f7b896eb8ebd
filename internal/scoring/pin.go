package scoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"quiz-game-service/internal/domain"
)

var pinRadius = map[domain.PinTolerance]float64{
	domain.ToleranceLow:    0.05,
	domain.ToleranceMedium: 0.10,
	domain.ToleranceHigh:   0.20,
	// the diagonal of the unit square, so every point is inside
	domain.ToleranceMaximum: math.Sqrt2,
}

// Point is a position on the normalized [0,1]x[0,1] pin image.
type Point struct {
	X, Y float64
}

// ParsePin parses "x,y". Malformed or missing input yields the origin.
func ParsePin(raw string) Point {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Point{}
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		return Point{}
	}
	return Point{X: x, Y: y}
}

// PinRadius returns the accepted distance for a tolerance. Unknown tolerances accept
// only the exact point.
func PinRadius(tolerance domain.PinTolerance) float64 {
	return pinRadius[tolerance]
}

// PinDistance is the euclidean distance between two pins rounded to two decimals.
func PinDistance(correct, answer string) float64 {
	a, b := ParsePin(correct), ParsePin(answer)
	d := math.Hypot(a.X-b.X, a.Y-b.Y)
	return math.Round(d*100) / 100
}

// PinCorrect reports whether the answer is within the tolerance radius, edge included.
func PinCorrect(tolerance domain.PinTolerance, correct, answer string) bool {
	if tolerance == domain.ToleranceMaximum {
		return true
	}
	return PinDistance(correct, answer) <= PinRadius(tolerance)
}

// Pin scores a pin answer with a speed part and a distance based precision part.
func Pin(presentedAt, answeredAt time.Time, duration, points float64, tolerance domain.PinTolerance, correct, answer string) int {
	if !validPositive(points) {
		return 0
	}
	radius := PinRadius(tolerance)
	distance := PinDistance(correct, answer)
	if distance > radius || !PinCorrect(tolerance, correct, answer) {
		return 0
	}
	multiplier, ok := TimeMultiplier(presentedAt, answeredAt, duration)
	if !ok {
		return 0
	}
	precision := 1.0
	if radius > 0 {
		precision = math.Max(0, 1-distance/radius)
	}
	return int(math.Round(multiplier*points*speedWeight + points*precision*precisionWeight))
}
