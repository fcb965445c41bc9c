package server

import (
	"bytes"
	"context"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/domain"
	"klask-tracker/internal/service"

	"connectrpc.com/connect"
)

type ChampionshipServer struct {
	session   *service.StateSession
	playerSvc *service.PlayerService
	matchSvc  *service.MatchService
	titleSvc  *service.ChampionshipService
	statsSvc  *service.StatsService
}

func NewChampionshipServer(
	session *service.StateSession,
	playerSvc *service.PlayerService,
	matchSvc *service.MatchService,
	titleSvc *service.ChampionshipService,
	statsSvc *service.StatsService,
) *ChampionshipServer {
	return &ChampionshipServer{
		session:   session,
		playerSvc: playerSvc,
		matchSvc:  matchSvc,
		titleSvc:  titleSvc,
		statsSvc:  statsSvc,
	}
}

func (s *ChampionshipServer) GetState(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	st, version, err := s.session.Current(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&StateResponse{State: st, Version: version}), nil
}

func (s *ChampionshipServer) ReplaceState(ctx context.Context, req *connect.Request[ReplaceStateRequest]) (*connect.Response[StateResponse], error) {
	if raw := bytes.TrimSpace(req.Msg.State); len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, toConnectError(ctx, domain.NewError("server.ReplaceState", domain.ErrInvalidDocument, "state is required"))
	}
	doc, err := domain.Decode(req.Msg.State)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	st, version, err := s.session.Replace(ctx, doc, req.Msg.Description)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&StateResponse{State: st, Version: version}), nil
}

func (s *ChampionshipServer) ReloadState(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	if err := s.session.Reload(ctx); err != nil {
		return nil, toConnectError(ctx, err)
	}
	return s.GetState(ctx, req)
}

func (s *ChampionshipServer) ListPlayers(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListPlayersResponse], error) {
	players, err := s.playerSvc.List(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListPlayersResponse{Players: players}), nil
}

func (s *ChampionshipServer) AddPlayer(ctx context.Context, req *connect.Request[AddPlayerRequest]) (*connect.Response[AddPlayerResponse], error) {
	player, err := s.playerSvc.AddPlayer(ctx, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&AddPlayerResponse{Player: player}), nil
}

func (s *ChampionshipServer) RecordMatch(ctx context.Context, req *connect.Request[RecordMatchRequest]) (*connect.Response[RecordMatchResponse], error) {
	out, err := s.matchSvc.RecordMatch(ctx, championship.MatchResult{
		Player1ID: req.Msg.Player1ID,
		Player2ID: req.Msg.Player2ID,
		Score1:    req.Msg.Score1,
		Score2:    req.Msg.Score2,
	})
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	standing, err := s.titleSvc.Standing(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	return connect.NewResponse(&RecordMatchResponse{
		Game:                out.Game,
		WinnerID:            out.WinnerID,
		LoserID:             out.LoserID,
		ChampionChanged:     out.ChampionChanged,
		FirstChampion:       out.FirstChampion,
		TitleChangeDeferred: out.TitleChangeDeferred,
		Standing:            standing,
	}), nil
}

func (s *ChampionshipServer) ListGames(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListGamesResponse], error) {
	games, err := s.matchSvc.Games(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListGamesResponse{Games: games}), nil
}

func (s *ChampionshipServer) RemoveGame(ctx context.Context, req *connect.Request[IndexRequest]) (*connect.Response[RemoveGameResponse], error) {
	game, err := s.matchSvc.RemoveGame(ctx, req.Msg.Index)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&RemoveGameResponse{Game: game}), nil
}

func (s *ChampionshipServer) SetChampion(ctx context.Context, req *connect.Request[SetChampionRequest]) (*connect.Response[SetChampionResponse], error) {
	changed, err := s.titleSvc.SetChampion(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	standing, err := s.titleSvc.Standing(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&SetChampionResponse{Changed: changed, Standing: standing}), nil
}

func (s *ChampionshipServer) GetChampionshipHistory(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[HistoryResponse], error) {
	standing, err := s.titleSvc.Standing(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	events, err := s.titleSvc.History(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&HistoryResponse{Standing: standing, Events: events}), nil
}

func (s *ChampionshipServer) RemoveChampionshipEvent(ctx context.Context, req *connect.Request[IndexRequest]) (*connect.Response[RemoveChampionshipEventResponse], error) {
	ev, err := s.titleSvc.RemoveEvent(ctx, req.Msg.Index)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&RemoveChampionshipEventResponse{Event: ev}), nil
}

func (s *ChampionshipServer) GetStats(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GetStatsResponse], error) {
	stats, err := s.statsSvc.Stats(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&GetStatsResponse{Stats: stats}), nil
}

func (s *ChampionshipServer) GetHeadToHead(ctx context.Context, req *connect.Request[GetHeadToHeadRequest]) (*connect.Response[GetHeadToHeadResponse], error) {
	rows, err := s.statsSvc.HeadToHead(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&GetHeadToHeadResponse{PlayerID: req.Msg.PlayerID, Opponents: rows}), nil
}

func (s *ChampionshipServer) GetReigns(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GetReignsResponse], error) {
	reigns, err := s.statsSvc.Reigns(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&GetReignsResponse{Reigns: reigns}), nil
}

func (s *ChampionshipServer) GetDashboard(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[service.Dashboard], error) {
	d, err := s.statsSvc.Dashboard(ctx)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(d), nil
}

func (s *ChampionshipServer) ListRevisions(ctx context.Context, req *connect.Request[ListRevisionsRequest]) (*connect.Response[ListRevisionsResponse], error) {
	revisions, err := s.session.Revisions(ctx, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	out := make([]Revision, len(revisions))
	for i, r := range revisions {
		out[i] = Revision{
			ID:          r.ID,
			Seq:         r.Seq,
			Description: r.Description,
			CreatedAt:   domain.NewTimestamp(r.CreatedAt),
		}
	}
	return connect.NewResponse(&ListRevisionsResponse{Revisions: out}), nil
}
