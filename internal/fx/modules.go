package fx

import (
	"time"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/config"
	"klask-tracker/internal/logger"
	"klask-tracker/internal/server"
	"klask-tracker/internal/service"
	"klask-tracker/internal/storage"

	"go.uber.org/fx"
)

func ProvideEngine(cfg *config.Config) *championship.Engine {
	return championship.NewEngine(cfg.Location, time.Now)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// storage
	fx.Provide(storage.NewStore),
	fx.Provide(ProvideEngine),
	fx.Provide(service.NewStateSession),
	// svc
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewChampionshipService),
	fx.Provide(service.NewStatsService),
	// server
	fx.Provide(server.NewChampionshipServer),
)
