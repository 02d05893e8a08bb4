package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	authService service.IAuthService
	userService service.IUserService
	paginator   Paginator
}

func NewUserHandler(authService service.IAuthService, userService service.IUserService, paginator Paginator) *UserHandler {
	return &UserHandler{authService: authService, userService: userService, paginator: paginator}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/", h.List)
		users.POST("/", h.Register)
		users.GET("/:id/", h.Get)

		users.GET("/me/", middleware.RequireAuth(), h.Me)
		users.PUT("/me/", middleware.RequireAuth(), h.UpdateMe)
		users.PATCH("/me/", middleware.RequireAuth(), h.UpdateMe)
		users.POST("/set_password/", middleware.RequireAuth(), h.SetPassword)

		users.PUT("/me/avatar/", middleware.RequireAuth(), h.SetAvatar)
		users.POST("/me/avatar/", middleware.RequireAuth(), h.SetAvatar)
		users.DELETE("/me/avatar/", middleware.RequireAuth(), h.DeleteAvatar)

		users.GET("/subscriptions/", middleware.RequireAuth(), h.Subscriptions)
		users.POST("/:id/subscribe/", middleware.RequireAuth(), h.Subscribe)
		users.DELETE("/:id/subscribe/", middleware.RequireAuth(), h.Unsubscribe)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	page, err := h.paginator.Parse(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	users, total, err := h.userService.List(c.Request.Context(), middleware.Principal(c), page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pageOf(c, page, users, total))
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, service.RegisteredUser(user))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.userService.Get(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	p := middleware.Principal(c)
	user, err := h.userService.Get(c.Request.Context(), p, p.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req types.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.userService.UpdateMe(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.authService.SetPassword(c.Request.Context(), middleware.Principal(c), req); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetAvatar accepts either a multipart "avatar" file or a JSON data URI.
func (h *UserHandler) SetAvatar(c *gin.Context) {
	upload, err := avatarUpload(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	url, err := h.userService.SetAvatar(c.Request.Context(), middleware.Principal(c), upload)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.AvatarResponse{Avatar: url})
}

func avatarUpload(c *gin.Context) (*service.ImageUpload, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("avatar")
		if err != nil {
			return nil, service.NewValidationError("avatar", "This field is required.")
		}
		if header.Size > service.MaxImageSize {
			return nil, service.NewValidationError("avatar", "Image size must not exceed 10MB.")
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return service.ReadUpload("avatar", f, header.Header.Get("Content-Type"))
	}

	var req types.AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return service.DecodeDataURI("avatar", req.Avatar)
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	if err := h.userService.DeleteAvatar(c.Request.Context(), middleware.Principal(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, err := h.paginator.Parse(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	subs, total, err := h.userService.Subscriptions(c.Request.Context(), middleware.Principal(c), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pageOf(c, page, subs, total))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sub, err := h.userService.Subscribe(c.Request.Context(), middleware.Principal(c), id, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.userService.Unsubscribe(c.Request.Context(), middleware.Principal(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
