// Package championship applies match results and manual overrides to the
// ranking state and derives statistics from it. Every function operates on
// an explicit *domain.State and performs no I/O; callers serialise access.
package championship

import (
	"strings"
	"time"

	"klask-tracker/internal/constants"
	"klask-tracker/internal/domain"
)

type Clock func() time.Time

// Engine pins the clock and the calendar used for day bucketing. Two
// instants fall on the same day when their dates in loc are equal.
type Engine struct {
	loc *time.Location
	now Clock
}

func NewEngine(loc *time.Location, now Clock) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{loc: loc, now: now}
}

// Day returns the calendar-day string of t.
func (e *Engine) Day(t time.Time) string {
	return t.In(e.loc).Format(constants.DayLayout)
}

// AddPlayer registers a player. Ids derive from the clock in milliseconds
// and are bumped past every existing id, so they stay unique across saves.
func (e *Engine) AddPlayer(s *domain.State, name string) (domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, domain.NewError("championship.AddPlayer", domain.ErrInvalidPlayer, "player name is required")
	}

	id := domain.PlayerID(e.now().UnixMilli()) + domain.PlayerID(len(s.Players))
	for _, p := range s.Players {
		if p.ID >= id {
			id = p.ID + 1
		}
	}

	player := domain.Player{ID: id, Name: name}
	s.Players = append(s.Players, player)
	return player, nil
}

func (e *Engine) RemoveGame(s *domain.State, index int) (domain.Game, error) {
	if index < 0 || index >= len(s.Games) {
		return domain.Game{}, domain.NewError("championship.RemoveGame", domain.ErrIndexOutOfRange,
			"game index %d out of range [0,%d)", index, len(s.Games))
	}
	removed := s.Games[index]
	s.Games = append(s.Games[:index], s.Games[index+1:]...)
	return removed, nil
}

func (e *Engine) RemoveChampionshipEvent(s *domain.State, index int) (domain.ChampionshipEvent, error) {
	if index < 0 || index >= len(s.ChampionshipHistory) {
		return domain.ChampionshipEvent{}, domain.NewError("championship.RemoveChampionshipEvent", domain.ErrIndexOutOfRange,
			"event index %d out of range [0,%d)", index, len(s.ChampionshipHistory))
	}
	removed := s.ChampionshipHistory[index]
	s.ChampionshipHistory = append(s.ChampionshipHistory[:index], s.ChampionshipHistory[index+1:]...)
	return removed, nil
}
