// Package app wires configuration, storage and services together for the
// binaries under cmd/.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	Auth         *service.AuthService
	Users        *service.UserService
	Catalog      *service.CatalogService
	Recipes      *service.RecipeService
	Interactions *service.InteractionService
}

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) {
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}

// Open connects to the database and migrates it. withRedis also connects to
// Redis, which backs token revocation and rate limits.
func Open(ctx context.Context, cfg *config.Config, withRedis bool) (*App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{Config: cfg, DB: db}

	var tokens service.TokenStore
	if withRedis {
		if a.Redis, err = database.NewRedisClient(cfg.Redis); err != nil {
			a.Close()
			return nil, err
		}
		tokens = service.NewRedisTokenStore(a.Redis)
	}

	images, err := service.NewImageStore(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = service.NewAuthService(db, tokens, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Users = service.NewUserService(db, images)
	a.Catalog = service.NewCatalogService(db)
	a.Recipes = service.NewRecipeService(db, images, cfg.API.Domain)
	a.Interactions = service.NewInteractionService(db, a.Recipes)
	return a, nil
}

// Services exposes the services to the HTTP layer.
func (a *App) Services() api.Services {
	return api.Services{
		Auth:         a.Auth,
		Users:        a.Users,
		Catalog:      a.Catalog,
		Recipes:      a.Recipes,
		Interactions: a.Interactions,
	}
}

// Close releases database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
