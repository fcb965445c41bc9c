package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"klask-tracker/internal/constants"
)

// legacyDayLayout is the day string older web clients stored in lastWinDate.
const legacyDayLayout = "Mon Jan 02 2006"

// Decode loads a state document. Missing collections are normalised to empty
// slices so a freshly created file (players + championship only) loads.
func Decode(data []byte) (*State, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewState(), nil
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, WrapError("domain.Decode", ErrInvalidDocument, "malformed state document", err)
	}
	s.normalize()
	return &s, nil
}

// Encode exports the state as an indented JSON document.
func Encode(s *State) ([]byte, error) {
	c := *s
	c.normalize()
	return json.MarshalIndent(&c, "", "  ")
}

func (s *State) normalize() {
	if s.Players == nil {
		s.Players = []Player{}
	}
	if s.Games == nil {
		s.Games = []Game{}
	}
	if s.ChampionshipHistory == nil {
		s.ChampionshipHistory = []ChampionshipEvent{}
	}
	if s.Championship.WinsInRow < 0 {
		s.Championship.WinsInRow = 0
	}
	if d := s.Championship.LastWinDate; d != nil {
		if t, err := time.Parse(legacyDayLayout, *d); err == nil {
			day := t.Format(constants.DayLayout)
			s.Championship.LastWinDate = &day
		}
	}
}
