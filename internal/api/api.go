package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Services bundles what the handlers depend on.
type Services struct {
	Auth         service.IAuthService
	Users        service.IUserService
	Catalog      service.ICatalogService
	Recipes      service.IRecipeService
	Interactions service.IInteractionService
}

// Options tunes handler behaviour that comes from configuration.
type Options struct {
	Pagination Paginator
	// PDF renders the shopping list for ?format=pdf.
	PDF service.PDFRenderer
	// LoginLimit and RecipeCreateLimit are optional rate-limit middlewares.
	LoginLimit        gin.HandlerFunc
	RecipeCreateLimit gin.HandlerFunc
}

// SetupAPI registers every handler under router.
func SetupAPI(router *gin.RouterGroup, svc Services, opts Options) {
	RegisterValidators()

	NewAuthHandler(svc.Auth, opts.LoginLimit).RegisterRoutes(router)
	NewUserHandler(svc.Auth, svc.Users, opts.Pagination).RegisterRoutes(router)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(router)
	NewRecipeHandler(svc.Recipes, svc.Interactions, opts.Pagination, opts.PDF, opts.RecipeCreateLimit).RegisterRoutes(router)
}

func chain(h ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(h))
	for _, fn := range h {
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out
}
