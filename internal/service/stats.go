package service

import (
	"context"
	"fmt"
	"sort"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type StatsService struct {
	session *StateSession
	engine  *championship.Engine
	logger  zerolog.Logger
}

func NewStatsService(session *StateSession, engine *championship.Engine, logger zerolog.Logger) *StatsService {
	return &StatsService{session: session, engine: engine, logger: logger}
}

type ReignView struct {
	ChampionID   domain.PlayerID   `json:"championId"`
	ChampionName string            `json:"championName"`
	Start        domain.Timestamp  `json:"start"`
	End          *domain.Timestamp `json:"end"`
	Reason       domain.Reason     `json:"reason"`
	DaysDefended int               `json:"daysDefended"`
}

type PlayerHeadToHead struct {
	PlayerID  domain.PlayerID           `json:"playerId"`
	Name      string                    `json:"name"`
	Opponents []championship.HeadToHead `json:"opponents"`
}

// Dashboard bundles every read view the front page shows, computed from a
// single snapshot.
type Dashboard struct {
	Standing    Standing                   `json:"standing"`
	Leaderboard []championship.PlayerStats `json:"leaderboard"`
	HeadToHead  []PlayerHeadToHead         `json:"headToHead"`
	Reigns      []ReignView                `json:"reigns"`
	Version     string                     `json:"version"`
}

func (s *StatsService) Stats(ctx context.Context) ([]championship.PlayerStats, error) {
	st, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.ComputeStats(st), nil
}

// HeadToHead reports id's record against each opponent. Ids that only
// survive in old games still get their rows; an id that never played gets
// none.
func (s *StatsService) HeadToHead(ctx context.Context, id domain.PlayerID) ([]championship.HeadToHead, error) {
	st, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.ComputeHeadToHead(st, id), nil
}

func (s *StatsService) Reigns(ctx context.Context) ([]ReignView, error) {
	st, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return reignViews(s.engine, st), nil
}

func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	st, version, err := s.session.Current(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		HeadToHead: make([]PlayerHeadToHead, len(st.Players)),
		Version:    version,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Standing = standingOf(s.engine, st)
		return nil
	})
	g.Go(func() error {
		d.Leaderboard = Leaderboard(s.engine.ComputeStats(st))
		return nil
	})
	g.Go(func() error {
		d.Reigns = reignViews(s.engine, st)
		return nil
	})
	for i, p := range st.Players {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			d.HeadToHead[i] = PlayerHeadToHead{
				PlayerID:  p.ID,
				Name:      p.Name,
				Opponents: s.engine.ComputeHeadToHead(st, p.ID),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to build dashboard")
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return d, nil
}

// Leaderboard orders stats by win percentage, then by wins.
func Leaderboard(stats []championship.PlayerStats) []championship.PlayerStats {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].WinPercent != stats[j].WinPercent {
			return stats[i].WinPercent > stats[j].WinPercent
		}
		return stats[i].Wins > stats[j].Wins
	})
	return stats
}

func reignViews(engine *championship.Engine, st *domain.State) []ReignView {
	reigns := engine.Reigns(st)
	views := make([]ReignView, len(reigns))
	for i, r := range reigns {
		views[i] = ReignView{
			ChampionID:   r.ChampionID,
			ChampionName: st.PlayerName(domain.IDPtr(r.ChampionID)),
			Start:        domain.NewTimestamp(r.Start),
			Reason:       r.Reason,
			DaysDefended: r.DaysDefended,
		}
		if r.End != nil {
			end := domain.NewTimestamp(*r.End)
			views[i].End = &end
		}
	}
	return views
}
