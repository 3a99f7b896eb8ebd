package cli

import "quiz-game-service/internal/domain"

// sampleQuizzes is the built-in quiz set used when no postgres store is configured, and
// what `migrate --seed` writes.
func sampleQuizzes() map[string]domain.Quiz {
	yes := true
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "General knowledge",
			Mode:  domain.ModeClassic,
			Questions: []domain.Question{
				{
					ID:       "q1",
					Type:     domain.QuestionMultiChoice,
					Text:     "What is 2 + 2?",
					Duration: 20,
					Points:   1000,
					Options: []domain.Option{
						{Text: "3"},
						{Text: "4", Correct: true},
						{Text: "5"},
					},
				},
				{
					ID:        "q2",
					Type:      domain.QuestionTrueFalse,
					Text:      "Go was first released in 2009.",
					Duration:  15,
					Points:    1000,
					TrueFalse: &yes,
				},
				{
					ID:       "q3",
					Type:     domain.QuestionRange,
					Text:     "In which year did the Berlin Wall fall?",
					Duration: 30,
					Points:   1000,
					Range:    &domain.RangeSpec{Min: 1950, Max: 2000, Step: 1, Correct: 1989, Margin: domain.MarginLow},
				},
				{
					ID:          "q4",
					Type:        domain.QuestionTypeAnswer,
					Text:        "Name the largest planet of the solar system.",
					Duration:    30,
					Points:      1000,
					TypeAnswers: []string{"Jupiter"},
				},
				{
					ID:       "q5",
					Type:     domain.QuestionPin,
					Text:     "Pin the center of the image.",
					Duration: 30,
					Points:   1000,
					Pin:      &domain.PinSpec{X: 0.5, Y: 0.5, Tolerance: domain.ToleranceMedium},
				},
				{
					ID:       "q6",
					Type:     domain.QuestionPuzzle,
					Text:     "Order these numbers from smallest to largest.",
					Duration: 45,
					Points:   1000,
					Puzzle:   []string{"1", "10", "100", "1000"},
				},
			},
		},
	}
}
