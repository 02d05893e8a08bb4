package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Config        *config.Config
	DB            *gorm.DB
	Redis         *redis.Client
	Authenticator middleware.Authenticator
	Services      api.Services
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORS.Origins()))

	router.GET("/health", healthHandler(deps.DB, deps.Redis))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Storage.Backend == "local" {
		router.Static(cfg.Storage.MediaURL, cfg.Storage.MediaDir)
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.ErrorHandler())
	if cfg.API.MaxBodyBytes > 0 {
		apiGroup.Use(middleware.BodyLimit(cfg.API.MaxBodyBytes))
	}
	apiGroup.Use(middleware.AuthMiddleware(deps.Authenticator))

	opts := api.Options{
		Pagination: api.Paginator{
			PageSize:    cfg.API.PageSize,
			MaxPageSize: cfg.API.MaxPageSize,
		},
		PDF: service.PDFRenderer{FontPath: cfg.API.PDFFontPath},
	}
	if !cfg.RateLimit.Disabled && deps.Redis != nil {
		login := middleware.NewLoginRateLimiter(deps.Redis, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow)
		create := middleware.NewRecipeCreationRateLimiter(deps.Redis, cfg.RateLimit.RecipeCreateLimit, cfg.RateLimit.RecipeCreateWindow)
		opts.LoginLimit = login.Middleware(middleware.ByClientIP)
		opts.RecipeCreateLimit = create.Middleware(middleware.ByUser)
	}

	api.SetupAPI(apiGroup, deps.Services, opts)

	return router
}

func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok"}
		code := http.StatusOK
		if err := database.HealthCheck(ctx, db); err != nil {
			status["database"] = err.Error()
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["redis"] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	}
}
