package server

import (
	"encoding/json"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/domain"
	"klask-tracker/internal/service"
)

type Empty struct{}

type StateResponse struct {
	State   *domain.State `json:"state"`
	Version string        `json:"version"`
}

type ReplaceStateRequest struct {
	State       json.RawMessage `json:"state"`
	Description string          `json:"description"`
}

type ListPlayersResponse struct {
	Players []domain.Player `json:"players"`
}

type AddPlayerRequest struct {
	Name string `json:"name"`
}

type AddPlayerResponse struct {
	Player domain.Player `json:"player"`
}

type RecordMatchRequest struct {
	Player1ID domain.PlayerID `json:"player1Id"`
	Player2ID domain.PlayerID `json:"player2Id"`
	Score1    int             `json:"score1"`
	Score2    int             `json:"score2"`
}

type RecordMatchResponse struct {
	Game                domain.Game      `json:"game"`
	WinnerID            domain.PlayerID  `json:"winnerId"`
	LoserID             domain.PlayerID  `json:"loserId"`
	ChampionChanged     bool             `json:"championChanged"`
	FirstChampion       bool             `json:"firstChampion"`
	TitleChangeDeferred bool             `json:"titleChangeDeferred"`
	Standing            service.Standing `json:"standing"`
}

type ListGamesResponse struct {
	Games []service.GameView `json:"games"`
}

type SetChampionRequest struct {
	PlayerID domain.PlayerID `json:"playerId"`
}

type SetChampionResponse struct {
	Changed  bool             `json:"changed"`
	Standing service.Standing `json:"standing"`
}

type IndexRequest struct {
	Index int `json:"index"`
}

type RemoveGameResponse struct {
	Game domain.Game `json:"game"`
}

type RemoveChampionshipEventResponse struct {
	Event domain.ChampionshipEvent `json:"event"`
}

type HistoryResponse struct {
	Standing service.Standing    `json:"standing"`
	Events   []service.EventView `json:"events"`
}

type GetStatsResponse struct {
	Stats []championship.PlayerStats `json:"stats"`
}

type GetHeadToHeadRequest struct {
	PlayerID domain.PlayerID `json:"playerId"`
}

type GetHeadToHeadResponse struct {
	PlayerID  domain.PlayerID           `json:"playerId"`
	Opponents []championship.HeadToHead `json:"opponents"`
}

type GetReignsResponse struct {
	Reigns []service.ReignView `json:"reigns"`
}

type ListRevisionsRequest struct {
	Limit int `json:"limit"`
}

type Revision struct {
	ID          string           `json:"id"`
	Seq         int64            `json:"seq"`
	Description string           `json:"description"`
	CreatedAt   domain.Timestamp `json:"createdAt"`
}

type ListRevisionsResponse struct {
	Revisions []Revision `json:"revisions"`
}
