package service

import (
	"context"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type ChampionshipService struct {
	session *StateSession
	engine  *championship.Engine
	logger  zerolog.Logger
}

func NewChampionshipService(session *StateSession, engine *championship.Engine, logger zerolog.Logger) *ChampionshipService {
	return &ChampionshipService{session: session, engine: engine, logger: logger}
}

// Standing is the live title situation with names resolved.
type Standing struct {
	ChampionID     *domain.PlayerID `json:"championId"`
	ChampionName   string           `json:"championName,omitempty"`
	ChallengerID   *domain.PlayerID `json:"challengerId"`
	ChallengerName string           `json:"challengerName,omitempty"`
	WinsInRow      int              `json:"winsInRow"`
	LastWinDate    *string          `json:"lastWinDate"`
	DaysAsChampion *int             `json:"daysAsChampion"`
}

type EventView struct {
	Index                        int              `json:"index"`
	Date                         domain.Timestamp `json:"date"`
	NewChampionID                *domain.PlayerID `json:"newChampionId"`
	NewChampionName              string           `json:"newChampionName"`
	PreviousChampionID           *domain.PlayerID `json:"previousChampionId"`
	PreviousChampionName         string           `json:"previousChampionName"`
	Reason                       domain.Reason    `json:"reason"`
	PreviousChampionDurationDays *int             `json:"previousChampionDurationDays"`
}

func (s *ChampionshipService) Standing(ctx context.Context) (Standing, error) {
	st, err := s.session.Snapshot(ctx)
	if err != nil {
		return Standing{}, err
	}
	return standingOf(s.engine, st), nil
}

// SetChampion crowns id by hand. It reports whether the holder changed.
func (s *ChampionshipService) SetChampion(ctx context.Context, id domain.PlayerID) (bool, error) {
	var changed bool
	_, err := s.session.Mutate(ctx, func(st *domain.State) (string, error) {
		p, err := requirePlayer("service.ChampionshipService.SetChampion", st, id)
		if err != nil {
			return "", err
		}
		changed = s.engine.SetChampion(st, id)
		return "Set champion: " + p.Name, nil
	})
	if err != nil {
		return false, err
	}

	s.logger.Info().Int64("champion_id", int64(id)).Bool("changed", changed).Msg("champion set manually")
	return changed, nil
}

func (s *ChampionshipService) RemoveEvent(ctx context.Context, index int) (domain.ChampionshipEvent, error) {
	var removed domain.ChampionshipEvent
	_, err := s.session.Mutate(ctx, func(st *domain.State) (string, error) {
		var err error
		removed, err = s.engine.RemoveChampionshipEvent(st, index)
		if err != nil {
			return "", err
		}
		return "Remove championship event: " + st.PlayerName(removed.NewChampionID), nil
	})
	if err != nil {
		return domain.ChampionshipEvent{}, err
	}

	s.logger.Info().Int("index", index).Msg("championship event removed")
	return removed, nil
}

func (s *ChampionshipService) History(ctx context.Context) ([]EventView, error) {
	st, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]EventView, len(st.ChampionshipHistory))
	for i, ev := range st.ChampionshipHistory {
		events[i] = EventView{
			Index:                        i,
			Date:                         ev.Date,
			NewChampionID:                ev.NewChampionID,
			NewChampionName:              st.PlayerName(ev.NewChampionID),
			PreviousChampionID:           ev.PreviousChampionID,
			PreviousChampionName:         st.PlayerName(ev.PreviousChampionID),
			Reason:                       ev.Reason,
			PreviousChampionDurationDays: ev.PreviousChampionDurationDays,
		}
	}
	return events, nil
}

func standingOf(engine *championship.Engine, st *domain.State) Standing {
	c := st.Championship
	return Standing{
		ChampionID:     c.ChampionID,
		ChampionName:   st.PlayerName(c.ChampionID),
		ChallengerID:   c.ChallengerID,
		ChallengerName: st.PlayerName(c.ChallengerID),
		WinsInRow:      c.WinsInRow,
		LastWinDate:    c.LastWinDate,
		DaysAsChampion: engine.DurationSinceLastBecame(st, c.ChampionID),
	}
}
