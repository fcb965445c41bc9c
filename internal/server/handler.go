package server

import (
	"net/http"

	"connectrpc.com/connect"
)

const ChampionshipServicePath = "/klask.v1.ChampionshipService/"

// Procedure names, mounted under ChampionshipServicePath.
const (
	GetStateProcedure                = ChampionshipServicePath + "GetState"
	ReplaceStateProcedure            = ChampionshipServicePath + "ReplaceState"
	ReloadStateProcedure             = ChampionshipServicePath + "ReloadState"
	ListPlayersProcedure             = ChampionshipServicePath + "ListPlayers"
	AddPlayerProcedure               = ChampionshipServicePath + "AddPlayer"
	RecordMatchProcedure             = ChampionshipServicePath + "RecordMatch"
	ListGamesProcedure               = ChampionshipServicePath + "ListGames"
	RemoveGameProcedure              = ChampionshipServicePath + "RemoveGame"
	SetChampionProcedure             = ChampionshipServicePath + "SetChampion"
	GetChampionshipHistoryProcedure  = ChampionshipServicePath + "GetChampionshipHistory"
	RemoveChampionshipEventProcedure = ChampionshipServicePath + "RemoveChampionshipEvent"
	GetStatsProcedure                = ChampionshipServicePath + "GetStats"
	GetHeadToHeadProcedure           = ChampionshipServicePath + "GetHeadToHead"
	GetReignsProcedure               = ChampionshipServicePath + "GetReigns"
	GetDashboardProcedure            = ChampionshipServicePath + "GetDashboard"
	ListRevisionsProcedure           = ChampionshipServicePath + "ListRevisions"
)

// Codec returns the JSON codec handlers and clients must share.
func Codec() connect.Codec {
	return jsonCodec{}
}

// NewChampionshipHandler mounts every procedure of srv and returns the path
// prefix to register it under.
func NewChampionshipHandler(srv *ChampionshipServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(callLogger()),
	}, opts...)
	mux := http.NewServeMux()

	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, srv.GetState, opts...))
	mux.Handle(ReplaceStateProcedure, connect.NewUnaryHandler(ReplaceStateProcedure, srv.ReplaceState, opts...))
	mux.Handle(ReloadStateProcedure, connect.NewUnaryHandler(ReloadStateProcedure, srv.ReloadState, opts...))
	mux.Handle(ListPlayersProcedure, connect.NewUnaryHandler(ListPlayersProcedure, srv.ListPlayers, opts...))
	mux.Handle(AddPlayerProcedure, connect.NewUnaryHandler(AddPlayerProcedure, srv.AddPlayer, opts...))
	mux.Handle(RecordMatchProcedure, connect.NewUnaryHandler(RecordMatchProcedure, srv.RecordMatch, opts...))
	mux.Handle(ListGamesProcedure, connect.NewUnaryHandler(ListGamesProcedure, srv.ListGames, opts...))
	mux.Handle(RemoveGameProcedure, connect.NewUnaryHandler(RemoveGameProcedure, srv.RemoveGame, opts...))
	mux.Handle(SetChampionProcedure, connect.NewUnaryHandler(SetChampionProcedure, srv.SetChampion, opts...))
	mux.Handle(GetChampionshipHistoryProcedure, connect.NewUnaryHandler(GetChampionshipHistoryProcedure, srv.GetChampionshipHistory, opts...))
	mux.Handle(RemoveChampionshipEventProcedure, connect.NewUnaryHandler(RemoveChampionshipEventProcedure, srv.RemoveChampionshipEvent, opts...))
	mux.Handle(GetStatsProcedure, connect.NewUnaryHandler(GetStatsProcedure, srv.GetStats, opts...))
	mux.Handle(GetHeadToHeadProcedure, connect.NewUnaryHandler(GetHeadToHeadProcedure, srv.GetHeadToHead, opts...))
	mux.Handle(GetReignsProcedure, connect.NewUnaryHandler(GetReignsProcedure, srv.GetReigns, opts...))
	mux.Handle(GetDashboardProcedure, connect.NewUnaryHandler(GetDashboardProcedure, srv.GetDashboard, opts...))
	mux.Handle(ListRevisionsProcedure, connect.NewUnaryHandler(ListRevisionsProcedure, srv.ListRevisions, opts...))

	return ChampionshipServicePath, mux
}
