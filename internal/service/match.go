package service

import (
	"context"
	"fmt"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type MatchService struct {
	session *StateSession
	engine  *championship.Engine
	logger  zerolog.Logger
}

func NewMatchService(session *StateSession, engine *championship.Engine, logger zerolog.Logger) *MatchService {
	return &MatchService{session: session, engine: engine, logger: logger}
}

// GameView is a recorded game with resolved player names. Index is the
// position used by RemoveGame.
type GameView struct {
	Index       int              `json:"index"`
	Date        domain.Timestamp `json:"date"`
	Player1ID   domain.PlayerID  `json:"player1Id"`
	Player1Name string           `json:"player1Name"`
	Player2ID   domain.PlayerID  `json:"player2Id"`
	Player2Name string           `json:"player2Name"`
	Score1      int              `json:"score1"`
	Score2      int              `json:"score2"`
	WinnerID    domain.PlayerID  `json:"winnerId"`
}

func (s *MatchService) RecordMatch(ctx context.Context, m championship.MatchResult) (championship.MatchOutcome, error) {
	const op = "service.MatchService.RecordMatch"

	var out championship.MatchOutcome
	st, err := s.session.Mutate(ctx, func(st *domain.State) (string, error) {
		if err := championship.ValidateMatch(m); err != nil {
			return "", err
		}
		for _, id := range []domain.PlayerID{m.Player1ID, m.Player2ID} {
			if _, err := requirePlayer(op, st, id); err != nil {
				return "", err
			}
		}

		var err error
		out, err = s.engine.ProcessMatch(st, m)
		if err != nil {
			return "", err
		}
		return "Match: " + describeGame(st, out.Game), nil
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Int64("player1_id", int64(m.Player1ID)).
			Int64("player2_id", int64(m.Player2ID)).
			Msg("match rejected")
		return championship.MatchOutcome{}, err
	}

	event := s.logger.Info().
		Int64("winner_id", int64(out.WinnerID)).
		Int64("loser_id", int64(out.LoserID)).
		Int("wins_in_row", st.Championship.WinsInRow)
	switch {
	case out.FirstChampion:
		event.Msg("first champion crowned")
	case out.ChampionChanged:
		event.Msg("title changed hands")
	case out.TitleChangeDeferred:
		event.Msg("challenge complete but title already changed today")
	default:
		event.Msg("match recorded")
	}
	return out, nil
}

func (s *MatchService) RemoveGame(ctx context.Context, index int) (domain.Game, error) {
	var removed domain.Game
	_, err := s.session.Mutate(ctx, func(st *domain.State) (string, error) {
		var err error
		removed, err = s.engine.RemoveGame(st, index)
		if err != nil {
			return "", err
		}
		return "Remove game: " + describeGame(st, removed), nil
	})
	if err != nil {
		return domain.Game{}, err
	}

	s.logger.Info().Int("index", index).Msg("game removed")
	return removed, nil
}

func (s *MatchService) Games(ctx context.Context) ([]GameView, error) {
	st, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	games := make([]GameView, len(st.Games))
	for i, g := range st.Games {
		games[i] = GameView{
			Index:       i,
			Date:        g.Date,
			Player1ID:   g.Player1ID,
			Player1Name: st.PlayerName(domain.IDPtr(g.Player1ID)),
			Player2ID:   g.Player2ID,
			Player2Name: st.PlayerName(domain.IDPtr(g.Player2ID)),
			Score1:      g.Score1,
			Score2:      g.Score2,
			WinnerID:    g.WinnerID(),
		}
	}
	return games, nil
}

// describeGame renders a game as "Alice 6-4 Bob".
func describeGame(st *domain.State, g domain.Game) string {
	return fmt.Sprintf("%s %d-%d %s",
		st.PlayerName(domain.IDPtr(g.Player1ID)), g.Score1, g.Score2, st.PlayerName(domain.IDPtr(g.Player2ID)))
}
