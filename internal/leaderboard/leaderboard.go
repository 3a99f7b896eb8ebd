// Package leaderboard folds question results into player standings.
package leaderboard

import (
	"sort"

	"quiz-game-service/internal/domain"
)

// Standing is the part of a player's state a ranking strategy looks at.
type Standing struct {
	Nickname string
	Score    int
}

// Strategy orders standings for a game mode.
type Strategy interface {
	Less(a, b Standing) bool
}

type classic struct{}

// Less ranks higher total scores first.
func (classic) Less(a, b Standing) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Nickname < b.Nickname
}

type zeroToOneHundred struct{}

// Less ranks lower cumulative deviation first.
func (zeroToOneHundred) Less(a, b Standing) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Nickname < b.Nickname
}

var strategies = map[domain.GameMode]Strategy{
	domain.ModeClassic:          classic{},
	domain.ModeZeroToOneHundred: zeroToOneHundred{},
}

// StrategyFor returns the ranking strategy of mode, defaulting to classic.
func StrategyFor(mode domain.GameMode) Strategy {
	if s, ok := strategies[mode]; ok {
		return s
	}
	return classic{}
}

// RankResults orders results in place and assigns positions starting at 1.
func RankResults(mode domain.GameMode, results []domain.QuestionResultEntry) {
	strategy := StrategyFor(mode)
	sort.SliceStable(results, func(i, j int) bool {
		return strategy.Less(
			Standing{Nickname: results[i].Nickname, Score: results[i].TotalScore},
			Standing{Nickname: results[j].Nickname, Score: results[j].TotalScore},
		)
	})
	for i := range results {
		results[i].Position = i + 1
	}
}

// UpdateParticipantsAndBuildLeaderboard copies the current question result onto the
// players and returns the ranked leaderboard. The current task must be a question result.
func UpdateParticipantsAndBuildLeaderboard(game *domain.Game) ([]domain.LeaderboardEntry, error) {
	task, ok := game.CurrentTask.(*domain.QuestionResultTask)
	if !ok {
		return nil, domain.NewIllegalTaskTypeError(game.CurrentTask, domain.TaskQuestionResult)
	}

	results := make(map[string]domain.QuestionResultEntry, len(task.Results))
	for _, r := range task.Results {
		results[r.PlayerID] = r
	}

	entries := make([]domain.LeaderboardEntry, 0, len(task.Results))
	for _, player := range game.Players() {
		if r, found := results[player.ID]; found {
			previous := player.Rank
			player.Rank = r.Position
			player.TotalScore = r.TotalScore
			player.CurrentStreak = r.Streak

			entry := domain.LeaderboardEntry{
				PlayerID: player.ID,
				Nickname: player.Nickname,
				Position: r.Position,
				Score:    r.TotalScore,
				Streaks:  r.Streak,
			}
			if previous > 0 {
				entry.PreviousPosition = &previous
			}
			entries = append(entries, entry)
			continue
		}

		if player.Rank <= 0 {
			continue
		}
		rank := player.Rank
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:         player.ID,
			Nickname:         player.Nickname,
			Position:         rank,
			PreviousPosition: &rank,
			Score:            player.TotalScore,
			Streaks:          player.CurrentStreak,
		})
	}

	strategy := StrategyFor(game.Mode)
	sort.SliceStable(entries, func(i, j int) bool {
		return strategy.Less(
			Standing{Nickname: entries[i].Nickname, Score: entries[i].Score},
			Standing{Nickname: entries[j].Nickname, Score: entries[j].Score},
		)
	})
	return entries, nil
}
