package domain

import (
	"time"
)

type PlayerID int64

type Reason string

const (
	ReasonGame   Reason = "game"
	ReasonManual Reason = "manual"
)

type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// Game is a single completed match. Scores are stored from the perspective of
// the record's sides, not winner/loser.
type Game struct {
	Date      Timestamp `json:"date"`
	Player1ID PlayerID  `json:"player1Id"`
	Player2ID PlayerID  `json:"player2Id"`
	Score1    int       `json:"score1"`
	Score2    int       `json:"score2"`
}

func (g Game) WinnerID() PlayerID {
	if g.Score1 > g.Score2 {
		return g.Player1ID
	}
	return g.Player2ID
}

func (g Game) LoserID() PlayerID {
	if g.Score1 > g.Score2 {
		return g.Player2ID
	}
	return g.Player1ID
}

func (g Game) Involves(id PlayerID) bool {
	return g.Player1ID == id || g.Player2ID == id
}

// Championship is the live pointer state. LastWinDate is a calendar-day
// string of the challenger's most recent win over the champion.
type Championship struct {
	ChampionID   *PlayerID `json:"championId"`
	ChallengerID *PlayerID `json:"challengerId"`
	WinsInRow    int       `json:"winsInRow"`
	LastWinDate  *string   `json:"lastWinDate"`
}

func (c *Championship) ResetChallenge() {
	c.ChallengerID = nil
	c.WinsInRow = 0
	c.LastWinDate = nil
}

func (c Championship) IsChampion(id PlayerID) bool {
	return c.ChampionID != nil && *c.ChampionID == id
}

func (c Championship) IsChallenger(id PlayerID) bool {
	return c.ChallengerID != nil && *c.ChallengerID == id
}

type ChampionshipEvent struct {
	Date                         Timestamp `json:"date"`
	NewChampionID                *PlayerID `json:"newChampionId"`
	PreviousChampionID           *PlayerID `json:"previousChampionId"`
	Reason                       Reason    `json:"reason"`
	PreviousChampionDurationDays *int      `json:"previousChampionDurationDays"`
}

// State is the whole championship document. It is loaded and written
// wholesale; callers own a single instance per session.
type State struct {
	Players             []Player            `json:"players"`
	Championship        Championship        `json:"championship"`
	Games               []Game              `json:"games"`
	ChampionshipHistory []ChampionshipEvent `json:"championshipHistory"`
}

func NewState() *State {
	return &State{
		Players:             []Player{},
		Games:               []Game{},
		ChampionshipHistory: []ChampionshipEvent{},
	}
}

func (s *State) Player(id PlayerID) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerName resolves a display name, falling back to UnknownPlayerName for
// ids that no longer exist.
func (s *State) PlayerName(id *PlayerID) string {
	if id == nil {
		return ""
	}
	if p, ok := s.Player(*id); ok {
		return p.Name
	}
	return UnknownPlayerName
}

func (s *State) Clone() *State {
	out := &State{
		Players:             append([]Player{}, s.Players...),
		Championship:        s.Championship.clone(),
		Games:               append([]Game{}, s.Games...),
		ChampionshipHistory: make([]ChampionshipEvent, len(s.ChampionshipHistory)),
	}
	for i, e := range s.ChampionshipHistory {
		out.ChampionshipHistory[i] = ChampionshipEvent{
			Date:                         e.Date,
			NewChampionID:                copyID(e.NewChampionID),
			PreviousChampionID:           copyID(e.PreviousChampionID),
			Reason:                       e.Reason,
			PreviousChampionDurationDays: copyInt(e.PreviousChampionDurationDays),
		}
	}
	return out
}

func (c Championship) clone() Championship {
	out := Championship{
		ChampionID:   copyID(c.ChampionID),
		ChallengerID: copyID(c.ChallengerID),
		WinsInRow:    c.WinsInRow,
	}
	if c.LastWinDate != nil {
		d := *c.LastWinDate
		out.LastWinDate = &d
	}
	return out
}

func IDPtr(id PlayerID) *PlayerID {
	return &id
}

func copyID(id *PlayerID) *PlayerID {
	if id == nil {
		return nil
	}
	return IDPtr(*id)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// Revision is one persisted save of the document in the revision-keeping
// backends.
type Revision struct {
	ID          string
	Seq         int64
	Document    []byte
	Description string
	CreatedAt   time.Time
}

const UnknownPlayerName = "Unknown"
