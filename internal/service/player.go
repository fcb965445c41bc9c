package service

import (
	"context"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerService struct {
	session *StateSession
	engine  *championship.Engine
	logger  zerolog.Logger
}

func NewPlayerService(session *StateSession, engine *championship.Engine, logger zerolog.Logger) *PlayerService {
	return &PlayerService{session: session, engine: engine, logger: logger}
}

func (s *PlayerService) AddPlayer(ctx context.Context, name string) (domain.Player, error) {
	var player domain.Player
	_, err := s.session.Mutate(ctx, func(st *domain.State) (string, error) {
		var err error
		player, err = s.engine.AddPlayer(st, name)
		if err != nil {
			return "", err
		}
		return "Add player: " + player.Name, nil
	})
	if err != nil {
		return domain.Player{}, err
	}

	s.logger.Info().Int64("player_id", int64(player.ID)).Str("name", player.Name).Msg("player added")
	return player, nil
}

func (s *PlayerService) List(ctx context.Context) ([]domain.Player, error) {
	st, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return st.Players, nil
}

// requirePlayer fails with ErrPlayerNotFound for ids outside the roster.
func requirePlayer(op string, st *domain.State, id domain.PlayerID) (domain.Player, error) {
	p, ok := st.Player(id)
	if !ok {
		return domain.Player{}, domain.NewError(op, domain.ErrPlayerNotFound, "player %d does not exist", id)
	}
	return p, nil
}
