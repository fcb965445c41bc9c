package championship

import (
	"math"

	"klask-tracker/internal/domain"
)

type PlayerStats struct {
	PlayerID          domain.PlayerID `json:"playerId"`
	Name              string          `json:"name"`
	Wins              int             `json:"wins"`
	Losses            int             `json:"losses"`
	TotalGames        int             `json:"totalGames"`
	WinPercent        float64         `json:"winPercent"`
	PointsWon         int             `json:"pointsWon"`
	PointsLost        int             `json:"pointsLost"`
	PointPercent      float64         `json:"pointPercent"`
	TotalChampionDays int             `json:"totalChampionDays"`
	MaxChampionStreak int             `json:"maxChampionStreak"`
}

type HeadToHead struct {
	OpponentID   domain.PlayerID `json:"opponentId"`
	OpponentName string          `json:"opponentName"`
	GamesAgainst int             `json:"gamesAgainst"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	WinBalance   int             `json:"winBalance"`
	AvgPointDiff float64         `json:"avgPointDiff"`
}

// ComputeStats aggregates every game and reign into one row per registered
// player, in registration order. Games and reigns of removed players are
// ignored.
func (e *Engine) ComputeStats(s *domain.State) []PlayerStats {
	index := make(map[domain.PlayerID]int, len(s.Players))
	stats := make([]PlayerStats, len(s.Players))
	for i, p := range s.Players {
		index[p.ID] = i
		stats[i] = PlayerStats{PlayerID: p.ID, Name: p.Name}
	}

	for _, g := range s.Games {
		winnerScore := max(g.Score1, g.Score2)
		loserScore := min(g.Score1, g.Score2)

		if i, ok := index[g.WinnerID()]; ok {
			stats[i].Wins++
			stats[i].PointsWon += winnerScore
			stats[i].PointsLost += loserScore
		}
		if i, ok := index[g.LoserID()]; ok {
			stats[i].Losses++
			stats[i].PointsWon += loserScore
			stats[i].PointsLost += winnerScore
		}
	}

	for _, r := range e.Reigns(s) {
		i, ok := index[r.ChampionID]
		if !ok {
			continue
		}
		stats[i].TotalChampionDays += r.DaysDefended
		stats[i].MaxChampionStreak = max(stats[i].MaxChampionStreak, r.DaysDefended)
	}

	for i := range stats {
		st := &stats[i]
		st.TotalGames = st.Wins + st.Losses
		st.WinPercent = percent(st.Wins, st.TotalGames)
		st.PointPercent = percent(st.PointsWon, st.PointsWon+st.PointsLost)
	}
	return stats
}

// ComputeHeadToHead summarises playerID's record against every opponent they
// have faced, in order of first meeting.
func (e *Engine) ComputeHeadToHead(s *domain.State, playerID domain.PlayerID) []HeadToHead {
	var order []domain.PlayerID
	rows := make(map[domain.PlayerID]*HeadToHead)
	diffSum := make(map[domain.PlayerID]int)

	for _, g := range s.Games {
		if !g.Involves(playerID) || g.Player1ID == g.Player2ID {
			continue
		}

		opponent, own, theirs := g.Player2ID, g.Score1, g.Score2
		if g.Player2ID == playerID {
			opponent, own, theirs = g.Player1ID, g.Score2, g.Score1
		}

		row, ok := rows[opponent]
		if !ok {
			row = &HeadToHead{
				OpponentID:   opponent,
				OpponentName: s.PlayerName(domain.IDPtr(opponent)),
			}
			rows[opponent] = row
			order = append(order, opponent)
		}

		row.GamesAgainst++
		if own > theirs {
			row.Wins++
		} else {
			row.Losses++
		}
		diffSum[opponent] += own - theirs
	}

	out := make([]HeadToHead, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.WinBalance = row.Wins - row.Losses
		row.AvgPointDiff = round1(float64(diffSum[id]) / float64(row.GamesAgainst))
		out = append(out, *row)
	}
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
