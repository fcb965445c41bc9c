package championship

import (
	"klask-tracker/internal/constants"
	"klask-tracker/internal/domain"
)

type MatchResult struct {
	Player1ID domain.PlayerID
	Player2ID domain.PlayerID
	Score1    int
	Score2    int
}

type MatchOutcome struct {
	Game            domain.Game
	WinnerID        domain.PlayerID
	LoserID         domain.PlayerID
	ChampionChanged bool

	// FirstChampion is set when the winner took a vacant title.
	FirstChampion bool

	// TitleChangeDeferred is set when a completed challenge could not take
	// the title because it already changed hands today.
	TitleChangeDeferred bool
}

// ValidateMatch rejects results that cannot come out of a finished game:
// a player facing themself, a draw, or a score line without exactly one
// side on the winning score.
func ValidateMatch(m MatchResult) error {
	const op = "championship.ValidateMatch"

	if m.Player1ID == m.Player2ID {
		return domain.NewError(op, domain.ErrInvalidMatch, "player %d cannot play against themself", m.Player1ID)
	}
	if m.Score1 < 0 || m.Score2 < 0 || m.Score1 > constants.WinningScore || m.Score2 > constants.WinningScore {
		return domain.NewError(op, domain.ErrInvalidMatch, "scores must be between 0 and %d, got %d-%d",
			constants.WinningScore, m.Score1, m.Score2)
	}
	if m.Score1 == m.Score2 {
		return domain.NewError(op, domain.ErrInvalidMatch, "scores cannot be equal, got %d-%d", m.Score1, m.Score2)
	}
	if (m.Score1 == constants.WinningScore) == (m.Score2 == constants.WinningScore) {
		return domain.NewError(op, domain.ErrInvalidMatch, "exactly one score must be %d, got %d-%d",
			constants.WinningScore, m.Score1, m.Score2)
	}
	return nil
}

// ProcessMatch records a game and advances the championship state machine.
//
// A challenger takes the title by beating the champion ChallengeWinsRequired
// times in a row on the same calendar day. A win on a later day restarts the
// streak at one; a champion win clears the challenge. The very first decided
// game crowns its winner without a ledger entry.
func (e *Engine) ProcessMatch(s *domain.State, m MatchResult) (MatchOutcome, error) {
	if err := ValidateMatch(m); err != nil {
		return MatchOutcome{}, err
	}

	now := e.now()
	today := e.Day(now)

	game := domain.Game{
		Date:      domain.NewTimestamp(now),
		Player1ID: m.Player1ID,
		Player2ID: m.Player2ID,
		Score1:    m.Score1,
		Score2:    m.Score2,
	}
	s.Games = append(s.Games, game)

	out := MatchOutcome{
		Game:     game,
		WinnerID: game.WinnerID(),
		LoserID:  game.LoserID(),
	}
	c := &s.Championship

	switch {
	case c.ChampionID == nil:
		c.ChampionID = domain.IDPtr(out.WinnerID)
		out.FirstChampion = true

	case c.IsChampion(out.LoserID):
		sameDay := c.LastWinDate != nil && *c.LastWinDate == today
		if c.IsChallenger(out.WinnerID) && sameDay {
			c.WinsInRow++
		} else {
			c.ChallengerID = domain.IDPtr(out.WinnerID)
			c.WinsInRow = 1
			c.LastWinDate = &today
		}

		if c.WinsInRow >= constants.ChallengeWinsRequired {
			if e.titleChangedOn(s, today) {
				out.TitleChangeDeferred = true
				break
			}

			s.ChampionshipHistory = append(s.ChampionshipHistory, domain.ChampionshipEvent{
				Date:                         domain.NewTimestamp(now),
				NewChampionID:                domain.IDPtr(out.WinnerID),
				PreviousChampionID:           domain.IDPtr(out.LoserID),
				Reason:                       domain.ReasonGame,
				PreviousChampionDurationDays: e.DurationSinceLastBecame(s, domain.IDPtr(out.LoserID)),
			})
			c.ChampionID = domain.IDPtr(out.WinnerID)
			c.ResetChallenge()
			out.ChampionChanged = true
		}

	case c.IsChampion(out.WinnerID):
		c.ResetChallenge()
	}

	return out, nil
}

// SetChampion overrides the title holder. A ledger entry is appended only
// when the holder actually changes; the challenge is cleared either way.
// Manual overrides are not limited to one per day.
func (e *Engine) SetChampion(s *domain.State, id domain.PlayerID) bool {
	c := &s.Championship
	changed := !c.IsChampion(id)

	if changed {
		s.ChampionshipHistory = append(s.ChampionshipHistory, domain.ChampionshipEvent{
			Date:                         domain.NewTimestamp(e.now()),
			NewChampionID:                domain.IDPtr(id),
			PreviousChampionID:           c.ChampionID,
			Reason:                       domain.ReasonManual,
			PreviousChampionDurationDays: e.DurationSinceLastBecame(s, c.ChampionID),
		})
	}

	c.ChampionID = domain.IDPtr(id)
	c.ResetChallenge()
	return changed
}

// titleChangedOn reports whether any ledger entry falls on day.
func (e *Engine) titleChangedOn(s *domain.State, day string) bool {
	for i := len(s.ChampionshipHistory) - 1; i >= 0; i-- {
		ev := s.ChampionshipHistory[i]
		if !ev.Date.IsZero() && e.Day(ev.Date.Time) == day {
			return true
		}
	}
	return false
}
