package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipeService      service.IRecipeService
	interactionService service.IInteractionService
	paginator          Paginator
	pdf                service.PDFRenderer
	createLimit        gin.HandlerFunc
}

func NewRecipeHandler(
	recipeService service.IRecipeService,
	interactionService service.IInteractionService,
	paginator Paginator,
	pdf service.PDFRenderer,
	createLimit gin.HandlerFunc,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:      recipeService,
		interactionService: interactionService,
		paginator:          paginator,
		pdf:                pdf,
		createLimit:        createLimit,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/", chain(middleware.RequireAuth(), h.createLimit, h.CreateRecipe)...)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PUT("/:id/", middleware.RequireAuth(), h.ReplaceRecipe)
		recipes.PATCH("/:id/", middleware.RequireAuth(), h.PatchRecipe)
		recipes.DELETE("/:id/", middleware.RequireAuth(), h.DeleteRecipe)
		recipes.GET("/:id/get-link/", h.GetLink)

		recipes.GET("/favorites/", middleware.RequireAuth(), h.Favorites)
		recipes.POST("/:id/favorite/", middleware.RequireAuth(), h.AddFavorite)
		recipes.DELETE("/:id/favorite/", middleware.RequireAuth(), h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", middleware.RequireAuth(), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", middleware.RequireAuth(), h.RemoveFromCart)
		recipes.GET("/download_shopping_cart/", middleware.RequireAuth(), h.DownloadShoppingCart)
	}
}

func recipeFilter(c *gin.Context) (types.RecipeFilter, error) {
	var f types.RecipeFilter
	verr := &service.ValidationError{}

	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			verr.Add("author", "Select a valid author id.")
		} else {
			author := uint(id)
			f.AuthorID = &author
		}
	}
	f.TagSlugs = c.QueryArray("tags")
	f.Search = c.Query("search")

	var err error
	if f.IsFavorited, err = queryFlag(c, "is_favorited"); err != nil {
		verr.Add("is_favorited", "Must be 0 or 1.")
	}
	if f.IsInShoppingCart, err = queryFlag(c, "is_in_shopping_cart"); err != nil {
		verr.Add("is_in_shopping_cart", "Must be 0 or 1.")
	}
	return f, verr.OrNil()
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter, err := recipeFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.paginator.Parse(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	recipes, total, err := h.recipeService.List(c.Request.Context(), middleware.Principal(c), filter, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pageOf(c, page, recipes, total))
}

func (h *RecipeHandler) Favorites(c *gin.Context) {
	page, err := h.paginator.Parse(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	recipes, total, err := h.recipeService.Favorites(c.Request.Context(), middleware.Principal(c), page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pageOf(c, page, recipes, total))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	recipe, err := h.recipeService.Get(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) ReplaceRecipe(c *gin.Context) {
	h.updateRecipe(c, types.WriteReplace)
}

func (h *RecipeHandler) PatchRecipe(c *gin.Context) {
	h.updateRecipe(c, types.WritePatch)
}

func (h *RecipeHandler) updateRecipe(c *gin.Context, mode types.WriteMode) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	recipe, err := h.recipeService.Update(c.Request.Context(), middleware.Principal(c), id, req, mode)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.recipeService.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLink returns the shareable recipe URL, or its QR code with ?format=qr.
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	url, err := h.recipeService.Link(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if c.Query("format") == "qr" {
		png, err := service.QRCodePNG(url)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
		return
	}
	c.JSON(http.StatusOK, types.LinkResponse{URL: url})
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMarker(c, h.interactionService.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMarker(c, h.interactionService.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMarker(c, h.interactionService.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMarker(c, h.interactionService.RemoveFromCart)
}

type markerAdder func(ctx context.Context, p *types.Principal, recipeID uint) (*types.RecipeResponse, error)

type markerRemover func(ctx context.Context, p *types.Principal, recipeID uint) error

func (h *RecipeHandler) addMarker(c *gin.Context, add markerAdder) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	recipe, err := add(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) removeMarker(c *gin.Context, remove markerRemover) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := remove(c.Request.Context(), middleware.Principal(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart serves the aggregated list as a text attachment, or
// as a PDF with ?format=pdf.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	lines, err := h.interactionService.ShoppingList(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if c.Query("format") == "pdf" {
		data, err := h.pdf.Render(lines)
		switch {
		case errors.Is(err, service.ErrPDFFontRequired):
			logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("set PDF_FONT_PATH for non-Latin shopping lists; serving text")
		case err != nil:
			_ = c.Error(err)
			return
		default:
			metrics.RecordShoppingListDownload("pdf")
			c.Header("Content-Disposition", `attachment; filename="shopping_list.pdf"`)
			c.Data(http.StatusOK, "application/pdf", data)
			return
		}
	}

	metrics.RecordShoppingListDownload("txt")
	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.RenderShoppingListText(lines)))
}
