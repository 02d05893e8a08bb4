package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/app"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	app.InitLogging(cfg)

	env := config.GetEnvironment()
	if env == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	logging.Info().Str("environment", string(env)).Str("db_driver", cfg.Database.Driver).Msg("starting foodgram api")

	a, err := app.Open(context.Background(), cfg, true)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer a.Close()

	handler := router.SetupRouter(router.Dependencies{
		Config:        cfg,
		DB:            a.DB,
		Redis:         a.Redis,
		Authenticator: a.Auth,
		Services:      a.Services(),
	})

	if err := server.NewServer(cfg.Server, handler).Start(); err != nil {
		logging.Error().Err(err).Msg("server error")
		return
	}
	logging.Info().Msg("server stopped")
}
